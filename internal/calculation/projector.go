package calculation

import (
	"math"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/ltc"
	"github.com/rgehrsitz/viability/internal/scenario"
	"github.com/rgehrsitz/viability/internal/sequencing"
	"github.com/rgehrsitz/viability/internal/withdrawal"
)

// shortfallTolerance ignores sub-dollar gaps left by the gross-up iteration
const shortfallTolerance = 1.0

// Projector walks one trial year by year. It holds only read-only state and is safe for
// concurrent use; everything a trial mutates lives in the walk.
type Projector struct {
	params   *domain.SimulationParameters
	tables   *domain.Tables
	ltc      *ltc.Model
	strategy *withdrawal.Strategy
	irmaa    *withdrawal.IRMAA
	guards   *withdrawal.Guardrails

	start domain.Balances
	split sequencing.Split

	couple         bool
	ages           [2]int
	retirementAge  int
	benefits       [2]benefit
	filing         string
	savings        float64
	savingsGrowth  float64
	expenses       float64
	healthcare     float64
	healthcareDiff float64
	survivorFactor float64
	preRetirement  float64
	partTime       *partTime
	streams        []stream
}

type partTime struct {
	amount           float64
	startAge, endAge int
}

type stream struct {
	domain.IncomeStream
	amount float64
}

// NewProjector prepares the per-household constants. params must already be valid.
func NewProjector(params *domain.SimulationParameters, tables *domain.Tables) (*Projector, error) {
	strategy, err := withdrawal.NewStrategy(params, tables)
	if err != nil {
		return nil, err
	}
	p := &Projector{
		params:         params,
		tables:         tables,
		ltc:            ltc.NewModel(params, tables),
		strategy:       strategy,
		irmaa:          withdrawal.NewIRMAA(tables.IRMAA),
		guards:         withdrawal.NewGuardrails(params.Guardrails, params.WithdrawalRate.InexactFloat64()),
		start:          domain.BalancesFrom(params.EffectiveBuckets()),
		split:          sequencing.SplitFrom(params.EffectiveSavingsSplit()),
		couple:         params.IsCouple(),
		retirementAge:  params.RetirementAge,
		filing:         params.FilingStatus(),
		savings:        params.AnnualSavings.InexactFloat64(),
		savingsGrowth:  params.SavingsGrowthRate.InexactFloat64(),
		expenses:       params.AnnualRetirementExpenses.InexactFloat64(),
		healthcare:     params.AnnualHealthcareExpenses.InexactFloat64(),
		healthcareDiff: params.HealthcareInflationDifferential.InexactFloat64(),
		survivorFactor: params.EffectiveSurvivorSpendingFactor().InexactFloat64(),
		preRetirement:  params.PreRetirementIncome().InexactFloat64(),
	}
	p.ages[0] = params.Household.User.CurrentAge
	p.benefits[0] = newBenefit(tables.SocialSecurity, params.Household.User.SocialSecurity)
	if sp := params.Household.Spouse; sp != nil {
		p.ages[1] = sp.CurrentAge
		p.benefits[1] = newBenefit(tables.SocialSecurity, sp.SocialSecurity)
	}
	if pt := params.PartTimeIncome; pt != nil {
		p.partTime = &partTime{amount: pt.AnnualAmount.InexactFloat64(), startAge: pt.StartAge, endAge: pt.EndAge}
	}
	for _, s := range params.IncomeStreams {
		p.streams = append(p.streams, stream{IncomeStream: s, amount: s.AnnualAmount.InexactFloat64()})
	}
	return p, nil
}

// LTC exposes the care model
func (p *Projector) LTC() *ltc.Model {
	return p.ltc
}

// Horizon returns the number of years until the last member's death age
func (p *Projector) Horizon(s *scenario.Scenario) int {
	h := s.UserDeathAge - p.ages[0] + 1
	if p.couple {
		h = max(h, s.SpouseDeathAge-p.ages[1]+1)
	}
	return max(1, min(h, len(s.PortfolioReturns)))
}

// Project runs one trial. With skipLTC the sampled care event is ignored while everything
// else, including premiums, stays identical.
func (p *Projector) Project(s *scenario.Scenario, skipLTC bool) *domain.Trial {
	w := &walk{
		p:       p,
		s:       s,
		b:       p.start,
		index:   1,
		history: withdrawal.NewMAGIHistory(p.preRetirement, len(s.PortfolioReturns)),
		trial: &domain.Trial{
			Index:              s.Index,
			Regime:             s.Regime,
			UserDeathAge:       s.UserDeathAge,
			SpouseDeathAge:     s.SpouseDeathAge,
			Horizon:            p.Horizon(s),
			MeanRealizedReturn: s.ControlMean,
		},
	}
	w.trial.LTC = p.ltc.Sample(ltc.Draws(s.LTC), [2]int{s.UserDeathAge, s.SpouseDeathAge})
	if !skipLTC {
		w.event = w.trial.LTC
	}
	w.run()
	return w.trial
}

// walk is the mutable state of one trial
type walk struct {
	p       *Projector
	s       *scenario.Scenario
	b       domain.Balances
	index   float64
	history *withdrawal.MAGIHistory
	guard   withdrawal.GuardrailState
	event   *domain.LTCEvent
	trial   *domain.Trial
}

func (w *walk) run() {
	p, s := w.p, w.s
	horizon := w.trial.Horizon
	deathYear := [2]int{s.UserDeathAge - p.ages[0], s.SpouseDeathAge - p.ages[1]}
	w.trial.Years = make([]domain.YearlyCashFlow, 0, horizon)
	if w.event != nil {
		w.event.GrossCosts = w.event.GrossCosts[:0]
		w.event.NetCosts = w.event.NetCosts[:0]
	}

	prevReturn := 0.0
	failed := false
	for t := 0; t < horizon; t++ {
		if t > 0 {
			w.index *= 1 + s.Inflation[t]
		}
		ages := [2]int{p.ages[0] + t, p.ages[1] + t}
		alive := [2]bool{t <= deathYear[0], p.couple && t <= deathYear[1]}

		y := domain.YearlyCashFlow{
			YearIndex:       t,
			Year:            t + 1,
			Age:             ages[0],
			StartBalance:    w.b.Total(),
			PortfolioReturn: s.PortfolioReturns[t],
			Inflation:       s.Inflation[t],
		}
		if p.couple {
			y.SpouseAge = ages[1]
		}

		sequencing.Grow(&w.b, s.PortfolioReturns[t])
		grown := w.b.Total()

		medical := math.Pow(1+p.healthcareDiff, float64(t))
		if w.event.ActiveAt(t) {
			gross := w.event.AnnualGrossCost * w.index * medical
			net := p.ltc.NetCost(t-w.event.OnsetYear, gross, p.ltc.YearsSincePurchase(t))
			w.event.GrossCosts = append(w.event.GrossCosts, gross)
			w.event.NetCosts = append(w.event.NetCosts, net)
			y.LTCNetCost = net
		}
		if alive[0] || alive[1] {
			y.LTCPremium = p.ltc.Premium(t, ages[0], w.event)
		}

		status := p.filing
		if status == domain.FilingMFJ && p.couple && (t > deathYear[0] || t > deathYear[1]) {
			status = domain.FilingSingle
		}
		seniors := p.irmaa.Covered(livingAges(ages, alive)...)

		var out withdrawal.Outcome
		y.Retired = ages[0] >= p.retirementAge || !alive[0]
		if y.Retired {
			out = w.retiredYear(t, &y, ages, alive, deathYear, status, seniors, medical, prevReturn)
		} else {
			out = w.workingYear(t, &y, ages, alive, status, seniors)
		}

		y.Taxes = out.Tax.Total()
		y.RMD = out.RMD
		y.PortfolioDraw = out.PortfolioDraw
		y.Shortfall = out.Shortfall
		y.NetCashFlow = w.b.Total() - grown

		if out.Shortfall > shortfallTolerance {
			w.b = domain.Balances{}
			failed = true
			w.trial.DepletionAge = ages[0]
		}
		y.EndBalance = w.b.Total()
		y.Buckets = w.b

		if !finite(y) {
			w.trial.Corrupted = true
			w.trial.Years = append(w.trial.Years, y)
			break
		}
		w.trial.Years = append(w.trial.Years, y)
		if failed {
			break
		}
		prevReturn = s.PortfolioReturns[t]
	}

	w.trial.GuardrailCuts = w.guard.Cuts
	w.trial.GuardrailRaises = w.guard.Raises
	w.trial.EndingBalance = w.b.Total()
	w.trial.Success = !failed && !w.trial.Corrupted
}

// workingYear deposits contributions net of care costs, drawing on the portfolio when care
// costs exceed them. Guaranteed income already flowing is taxed and the remainder reinvested.
func (w *walk) workingYear(t int, y *domain.YearlyCashFlow, ages [2]int, alive [2]bool, status string, seniors int) withdrawal.Outcome {
	p := w.p
	y.Contributions = p.savings * math.Pow(1+p.savingsGrowth, float64(t))
	in := w.income(ages, alive, status, seniors)
	y.GuaranteedIncome = in.Income()

	net := y.Contributions - y.LTCPremium - y.LTCNetCost
	if net > 0 {
		sequencing.Deposit(&w.b, p.split, net)
	}
	var out withdrawal.Outcome
	if net < 0 || y.GuaranteedIncome > 0 {
		in.Expenses = math.Max(0, -net)
		out = p.strategy.Solve(w.b, in)
		p.strategy.Execute(&w.b, out)
	}
	w.history.Record(p.preRetirement*w.index + out.Tax.AGI)
	return out
}

// income collects Social Security, part-time wages and other streams for the year
func (w *walk) income(ages [2]int, alive [2]bool, status string, seniors int) withdrawal.YearInput {
	p := w.p
	in := withdrawal.YearInput{FilingStatus: status, Seniors: seniors, InflationIndex: w.index}
	in.SocialSecurity = socialSecurity(p.benefits, ages, alive, p.couple) * w.index
	if pt := p.partTime; pt != nil && alive[0] && ages[0] >= pt.startAge && ages[0] <= pt.endAge {
		in.Wages = pt.amount * w.index
	}
	for _, st := range p.streams {
		if !st.ActiveAt(ages[0]) {
			continue
		}
		amount := st.amount
		if st.InflationAdjusted {
			amount *= w.index
		}
		if st.Taxable {
			in.TaxablePensions += amount
		} else {
			in.NontaxableIncome += amount
		}
	}
	return in
}

func (w *walk) retiredYear(t int, y *domain.YearlyCashFlow, ages [2]int, alive [2]bool, deathYear [2]int,
	status string, seniors int, medical, prevReturn float64) withdrawal.Outcome {
	p := w.p

	in := w.income(ages, alive, status, seniors)
	y.GuaranteedIncome = in.Income()

	factor := 1.0
	if p.couple && (t > deathYear[0] || t > deathYear[1]) {
		factor = p.survivorFactor
	}

	action := domain.GuardrailNone
	if !w.guard.Started() {
		p.guards.Start(&w.guard, p.expenses*w.index)
	} else {
		action = p.guards.Inflate(&w.guard, w.s.Inflation[t], prevReturn)
	}
	funded := math.Max(0, w.guard.Spending*factor-y.GuaranteedIncome)
	y.GuardrailAction = p.guards.Adjust(&w.guard, funded, w.b.Total(), action)
	// the survivor factor never takes spending below the household floor
	y.Withdrawal = w.guard.Spending * factor
	if floor := p.guards.Floor(&w.guard); y.Withdrawal < floor {
		y.Withdrawal = floor
		y.GuardrailAction = domain.GuardrailFloor
	}

	y.Healthcare = p.healthcare * w.index * medical
	y.IRMAASurcharge = p.irmaa.Surcharge(w.history.At(t-p.irmaa.Lookback()), status, seniors, w.index)

	in.Expenses = y.Withdrawal + y.Healthcare + y.LTCNetCost + y.LTCPremium + y.IRMAASurcharge

	owner := ages[0]
	if !alive[0] {
		owner = ages[1]
	}
	in.RMD = withdrawal.RequiredDistribution(p.tables.RMD, owner, w.b.TaxDeferred)

	out := p.strategy.Solve(w.b, in)
	p.strategy.Execute(&w.b, out)
	w.history.Record(out.Tax.AGI)
	return out
}

func livingAges(ages [2]int, alive [2]bool) []int {
	out := make([]int, 0, 2)
	for j := range ages {
		if alive[j] {
			out = append(out, ages[j])
		}
	}
	return out
}

func finite(y domain.YearlyCashFlow) bool {
	for _, v := range []float64{y.EndBalance, y.Withdrawal, y.PortfolioDraw, y.Taxes, y.Healthcare, y.LTCNetCost, y.GuaranteedIncome} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
