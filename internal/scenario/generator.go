// Package scenario generates the random inputs of each trial: correlated mean-reverting asset
// returns, stochastic inflation, a market regime, death ages, and the uniforms the
// long-term-care model consumes.
package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/rgehrsitz/viability/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ControlWindow is the number of years, counted from retirement, whose mean portfolio
// return serves as the control variate
const ControlWindow = 10

// fixed dimension layout; per-year dimensions follow
const (
	dimRegime = iota
	dimUserDeath
	dimSpouseDeath
	dimLTCUserOnset
	dimLTCUserDuration
	dimLTCUserCost
	dimLTCSpouseOnset
	dimLTCSpouseDuration
	dimLTCSpouseCost
	fixedDims
)

// LTCDraws are the uniforms reserved for the long-term-care model, indexed user=0, spouse=1
type LTCDraws struct {
	Onset    [2]float64
	Duration [2]float64
	Cost     [2]float64
}

// Scenario is the random input of one trial. Year 0 is the year the user is at the current age.
type Scenario struct {
	Index  int
	Regime string
	// Returns[t][a] is the return of asset class a in year t
	Returns          [][]float64
	PortfolioReturns []float64
	Inflation        []float64
	UserDeathAge     int
	// SpouseDeathAge is in the spouse's own age; zero without a spouse
	SpouseDeathAge int
	LTC            LTCDraws
	// ControlMean is the mean portfolio return over the control window
	ControlMean float64
}

// Options configure a generator batch
type Options struct {
	Seed       uint64
	Iterations int
	Sampling   domain.SamplingOptions
}

// Generator produces the scenarios of one batch. It is immutable after construction and
// safe for concurrent use.
type Generator struct {
	opts    Options
	sampler *Sampler

	weights []float64
	mu      []float64
	sigma   []float64
	phi     []float64
	chol    [][]float64

	inflMean, inflVol, inflPhi float64
	returnFloor, inflFloor     float64

	regimes     []domain.Regime
	regimeShift [][]float64 // [regime][asset]
	cumulative  []float64

	user, spouse   *Mortality
	years          int
	regimeStart    int
	controlStart   int
	controlEnd     int
	expectedReturn float64
}

// NewGenerator validates the request and prepares a batch
func NewGenerator(params *domain.SimulationParameters, tables *domain.Tables, opts Options) (*Generator, error) {
	verr := &domain.ValidationError{}
	if err := params.Validate(); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		verr.Errors = append(verr.Errors, ve.Errors...)
	}
	if opts.Iterations <= 0 {
		verr.Add("iterations", "must be positive, got %d", opts.Iterations)
	}
	maxAge := tables.Mortality.MaxAge
	if params.LifeExpectancy >= maxAge {
		verr.Add("life_expectancy", "must be below the mortality table maximum %d", maxAge)
	}
	if params.Household.Spouse != nil {
		sp := *params.Household.Spouse
		if le := params.LifeExpectancyFor(sp); le <= sp.CurrentAge || le >= maxAge {
			verr.Add("household.spouse.life_expectancy", "must lie between current age %d and %d, got %d", sp.CurrentAge, maxAge, le)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	g := &Generator{
		opts:        opts,
		weights:     params.Allocation.Weights(),
		inflMean:    params.InflationRate.InexactFloat64(),
		inflVol:     tables.Markets.InflationVolatility,
		inflPhi:     tables.Markets.InflationPersistence,
		returnFloor: tables.Markets.ReturnFloor,
		inflFloor:   tables.Markets.InflationFloor,
		regimes:     tables.Markets.Regimes,
	}
	if g.returnFloor == 0 {
		g.returnFloor = -0.95
	}
	if g.inflFloor == 0 {
		g.inflFloor = -0.05
	}
	for _, a := range params.CapitalMarkets.ByClass() {
		g.mu = append(g.mu, a.ExpectedReturn.InexactFloat64())
		g.sigma = append(g.sigma, a.Volatility.InexactFloat64())
		g.phi = append(g.phi, a.MeanReversion.InexactFloat64())
	}

	chol, err := choleskyLower(tables.Markets.Correlation)
	if err != nil {
		return nil, err
	}
	g.chol = chol

	var cum float64
	for _, r := range g.regimes {
		cum += r.Probability
		g.cumulative = append(g.cumulative, cum)
		shift := make([]float64, len(domain.AssetClasses))
		for a, class := range domain.AssetClasses {
			shift[a] = r.Shift[class]
		}
		g.regimeShift = append(g.regimeShift, shift)
	}

	user := params.Household.User
	g.user, err = NewMortality(tables.Mortality.For(user.Sex), user.CurrentAge, params.LifeExpectancyFor(user), maxAge)
	if err != nil {
		return nil, fmt.Errorf("user mortality: %w", err)
	}
	youngest := user.CurrentAge
	if sp := params.Household.Spouse; sp != nil {
		g.spouse, err = NewMortality(tables.Mortality.For(sp.Sex), sp.CurrentAge, params.LifeExpectancyFor(*sp), maxAge)
		if err != nil {
			return nil, fmt.Errorf("spouse mortality: %w", err)
		}
		if sp.CurrentAge < youngest {
			youngest = sp.CurrentAge
		}
	}
	g.years = maxAge - youngest + 1

	g.regimeStart = max(0, params.RetirementAge-user.CurrentAge)
	g.controlStart = min(g.regimeStart, g.years-1)
	g.controlEnd = min(g.controlStart+ControlWindow, g.years)
	g.expectedReturn = g.expectedControlMean()

	dims := fixedDims + g.years*(len(domain.AssetClasses)+1)
	g.sampler = NewSampler(opts.Seed, opts.Iterations, dims, opts.Sampling.Antithetic, opts.Sampling.LatinHypercube)
	return g, nil
}

func choleskyLower(corr [][]float64) ([][]float64, error) {
	n := len(domain.AssetClasses)
	if len(corr) != n {
		return nil, fmt.Errorf("correlation matrix must be %dx%d", n, n)
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, corr[i][j])
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("correlation matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			out[i][j] = l.At(i, j)
		}
	}
	return out, nil
}

// Years returns the length of every generated path
func (g *Generator) Years() int {
	return g.years
}

// Iterations returns the batch size
func (g *Generator) Iterations() int {
	return g.opts.Iterations
}

// Seed returns the master seed
func (g *Generator) Seed() uint64 {
	return g.opts.Seed
}

// ExpectedControlMean is E[X] for the control variate
func (g *Generator) ExpectedControlMean() float64 {
	return g.expectedReturn
}

// Scenario builds the inputs of trial i
func (g *Generator) Scenario(i int) *Scenario {
	u := make([]float64, g.sampler.Dims())
	g.sampler.Uniforms(i, u)

	nAssets := len(domain.AssetClasses)
	s := &Scenario{
		Index:            i,
		Returns:          make([][]float64, g.years),
		PortfolioReturns: make([]float64, g.years),
		Inflation:        make([]float64, g.years),
	}

	regime := g.pickRegime(u[dimRegime])
	s.Regime = g.regimes[regime].Name
	duration := g.regimes[regime].DurationYears

	s.UserDeathAge = g.user.DeathAge(u[dimUserDeath])
	if g.spouse != nil {
		s.SpouseDeathAge = g.spouse.DeathAge(u[dimSpouseDeath])
	}
	s.LTC = LTCDraws{
		Onset:    [2]float64{u[dimLTCUserOnset], u[dimLTCSpouseOnset]},
		Duration: [2]float64{u[dimLTCUserDuration], u[dimLTCSpouseDuration]},
		Cost:     [2]float64{u[dimLTCUserCost], u[dimLTCSpouseCost]},
	}

	dev := make([]float64, nAssets)
	eps := make([]float64, nAssets)
	var inflDev float64
	for t := 0; t < g.years; t++ {
		base := fixedDims + t*(nAssets+1)
		for a := 0; a < nAssets; a++ {
			eps[a] = distuv.UnitNormal.Quantile(u[base+a])
		}
		row := make([]float64, nAssets)
		var port float64
		inRegime := t >= g.regimeStart && t < g.regimeStart+duration
		for a := 0; a < nAssets; a++ {
			var z float64
			for j := 0; j <= a; j++ {
				z += g.chol[a][j] * eps[j]
			}
			if t == 0 {
				dev[a] = g.sigma[a] * z
			} else {
				dev[a] = g.phi[a]*dev[a] + g.sigma[a]*math.Sqrt(1-g.phi[a]*g.phi[a])*z
			}
			r := g.mu[a] + dev[a]
			if inRegime {
				r += g.regimeShift[regime][a]
			}
			row[a] = math.Max(r, g.returnFloor)
			port += g.weights[a] * row[a]
		}
		s.Returns[t] = row
		s.PortfolioReturns[t] = port

		e := distuv.UnitNormal.Quantile(u[base+nAssets])
		if t == 0 {
			inflDev = g.inflVol * e
		} else {
			inflDev = g.inflPhi*inflDev + g.inflVol*math.Sqrt(1-g.inflPhi*g.inflPhi)*e
		}
		s.Inflation[t] = math.Max(g.inflMean+inflDev, g.inflFloor)
	}

	var sum float64
	for t := g.controlStart; t < g.controlEnd; t++ {
		sum += s.PortfolioReturns[t]
	}
	s.ControlMean = sum / float64(g.controlEnd-g.controlStart)
	return s
}

func (g *Generator) pickRegime(u float64) int {
	for k, c := range g.cumulative {
		if u < c {
			return k
		}
	}
	return len(g.regimes) - 1
}

// expectedControlMean is the closed-form mean of ControlMean, ignoring the return floor
func (g *Generator) expectedControlMean() float64 {
	window := float64(g.controlEnd - g.controlStart)
	var total float64
	for a, w := range g.weights {
		m := g.mu[a]
		for k, r := range g.regimes {
			overlap := min(g.controlStart+r.DurationYears, g.controlEnd) - g.controlStart
			if overlap > 0 {
				m += r.Probability * g.regimeShift[k][a] * float64(overlap) / window
			}
		}
		total += w * m
	}
	return total
}

// Expected returns a deterministic scenario at expected returns and mean inflation, with
// death at the life expectancy and no long-term-care event. The regime shift is weighted
// by regime probability.
func (g *Generator) Expected(userDeathAge, spouseDeathAge int) *Scenario {
	nAssets := len(domain.AssetClasses)
	s := &Scenario{
		Index:            -1,
		Regime:           "expected",
		Returns:          make([][]float64, g.years),
		PortfolioReturns: make([]float64, g.years),
		Inflation:        make([]float64, g.years),
		UserDeathAge:     userDeathAge,
		SpouseDeathAge:   spouseDeathAge,
		// onset uniforms of one never trigger care
		LTC: LTCDraws{Onset: [2]float64{1, 1}},
	}
	for t := 0; t < g.years; t++ {
		row := make([]float64, nAssets)
		var port float64
		for a := 0; a < nAssets; a++ {
			r := g.mu[a]
			for k, reg := range g.regimes {
				if t >= g.regimeStart && t < g.regimeStart+reg.DurationYears {
					r += reg.Probability * g.regimeShift[k][a]
				}
			}
			row[a] = r
			port += g.weights[a] * r
		}
		s.Returns[t] = row
		s.PortfolioReturns[t] = port
		s.Inflation[t] = g.inflMean
	}
	s.ControlMean = g.expectedReturn
	return s
}
