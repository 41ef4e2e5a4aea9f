package calculation

import (
	"math"
	"sort"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

type batchSummary struct {
	currentAge     int
	retirementAge  int
	controlVariate bool
	expectedMean   float64
	expectedEnding float64
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// aggregate reduces trial outcomes, in index order, to the result distribution
func aggregate(outcomes []outcome, sum batchSummary) (*domain.AggregateResult, error) {
	included := make([]*outcome, 0, len(outcomes))
	for i := range outcomes {
		if !outcomes[i].corrupted {
			included = append(included, &outcomes[i])
		}
	}
	res := &domain.AggregateResult{
		IncludedTrials:        len(included),
		ExcludedTrials:        len(outcomes) - len(included),
		ExpectedEndingBalance: money(sum.expectedEnding),
	}
	if len(included) == 0 {
		return nil, ErrNoTrials
	}
	n := float64(len(included))

	endings := make([]float64, len(included))
	successes := make([]float64, len(included))
	controls := make([]float64, len(included))
	var depletionYears float64
	var failed int
	for i, o := range included {
		endings[i] = o.ending
		controls[i] = o.control
		if o.success {
			successes[i] = 1
			res.SuccessfulTrials++
		} else {
			failed++
			depletionYears += float64(max(0, o.depletionAge-sum.retirementAge))
		}
	}
	res.SuccessProbability = float64(res.SuccessfulTrials) / n
	res.AverageEndingBalance = money(stat.Mean(endings, nil))
	sort.Float64s(endings)
	res.MedianEndingBalance = money(stat.Quantile(0.5, stat.Empirical, endings, nil))
	if failed > 0 {
		res.AverageYearsUntilDepletion = depletionYears / float64(failed)
	}

	if sum.controlVariate {
		res.ControlVariate = controlVariate(successes, controls, sum.expectedMean)
	}
	res.PercentileBands = percentileBands(included, sum.currentAge)
	res.Guardrails = guardrailStats(included)
	res.LTC = ltcStats(included)
	return res, nil
}

// controlVariate adjusts the success estimate by the deviation of realized returns from
// their known mean
func controlVariate(y, x []float64, expected float64) *domain.ControlVariateEstimate {
	mean := stat.Mean(x, nil)
	est := &domain.ControlVariateEstimate{SampleMean: mean, ExpectedMean: expected}
	if v := stat.Variance(x, nil); v > 0 && len(x) > 1 {
		est.Beta = stat.Covariance(y, x, nil) / v
	}
	p := stat.Mean(y, nil) - est.Beta*(mean-expected)
	est.AdjustedProbability = math.Min(1, math.Max(0, p))
	return est
}

// percentileBands takes, per age, the balances of every trial alive at that age. Depleted
// trials count as zero for the rest of their horizon.
func percentileBands(included []*outcome, currentAge int) []domain.PercentileBand {
	longest := 0
	for _, o := range included {
		longest = max(longest, len(o.endBalances))
	}
	bands := make([]domain.PercentileBand, 0, longest)
	values := make([]float64, 0, len(included))
	for t := 0; t < longest; t++ {
		values = values[:0]
		for _, o := range included {
			if t < len(o.endBalances) {
				values = append(values, o.endBalances[t])
			}
		}
		sort.Float64s(values)
		q := make([]decimal.Decimal, len(domain.BandPercentiles))
		for k, p := range domain.BandPercentiles {
			q[k] = money(stat.Quantile(p, stat.Empirical, values, nil))
		}
		bands = append(bands, domain.PercentileBand{
			Age:    currentAge + t,
			Trials: len(values),
			P5:     q[0],
			P10:    q[1],
			P25:    q[2],
			P50:    q[3],
			P75:    q[4],
			P90:    q[5],
			P95:    q[6],
		})
	}
	return bands
}

func guardrailStats(included []*outcome) domain.GuardrailStats {
	var s domain.GuardrailStats
	var adjustments, cuts, raises int
	for _, o := range included {
		a := o.cuts + o.raises
		adjustments += a
		cuts += o.cuts
		raises += o.raises
		s.MaxAdjustments = max(s.MaxAdjustments, a)
	}
	n := float64(len(included))
	s.MeanAdjustments = float64(adjustments) / n
	s.MeanCuts = float64(cuts) / n
	s.MeanRaises = float64(raises) / n
	return s
}

// ltcStats compares trials that had a care event with their paired re-runs without it
func ltcStats(included []*outcome) domain.LTCStats {
	var s domain.LTCStats
	var gross, net float64
	var with, without int
	for _, o := range included {
		if o.ltc == nil {
			continue
		}
		s.TrialsWithEvent++
		gross += o.ltc.TotalGross()
		net += o.ltc.TotalNet()
		if o.success {
			with++
		}
		if o.successWithoutLTC {
			without++
		}
	}
	s.IncidenceRate = float64(s.TrialsWithEvent) / float64(len(included))
	if s.TrialsWithEvent == 0 {
		return s
	}
	events := float64(s.TrialsWithEvent)
	s.AverageGrossCost = money(gross / events)
	s.AverageNetCost = money(net / events)
	s.SuccessWithEvent = float64(with) / events
	s.SuccessWithoutEvent = float64(without) / events
	s.SuccessProbabilityDelta = float64(with-without) / float64(len(included))
	return s
}
