// Package glicko implements the Glicko-2 rating period update and the
// inactivity deviation inflation.
//
// Variable names follow the conventions of Professor Mark E. Glickman's
// paper (https://www.glicko.net/glicko/glicko2.pdf):
//   - Mu: the rating converted to the Glicko-2 internal scale.
//   - Phi: the rating deviation converted to the Glicko-2 internal scale.
//   - Sigma: the rating volatility.
//   - Tau: the volatility change constraint.
//   - G: a weighting function that discounts opponents with a high
//     rating deviation.
//   - E: the expected score against a given opponent.
//   - V: the estimated variance of the rating from game outcomes alone.
//   - Delta: the estimated rating improvement.
package glicko

import (
	"math"

	"github.com/ladderhq/ladder/internal/domain/model"
	"github.com/ladderhq/ladder/pkg/metrics"
)

// Scale converts between the public 1500-centered scale and the internal
// mu/phi scale.
const Scale = 173.7178

// Volatility solver constants: the root is searched on [a-bracketRadius,
// a+bracketRadius] where a = ln(sigma^2), with a fixed iteration budget and
// a bracket-width convergence tolerance.
const (
	bracketRadius  = 10.0
	maxIterations  = 30
	convergenceTol = 1e-6
)

// Update computes a player's new state from their prior state and one
// period's opponent samples. It is pure: the caller supplies pre-period
// opponent snapshots and commits the result.
//
// Samples must be non-empty; players without evidence take Inflate. The
// returned error is a computation defect (non-finite value or
// non-convergent volatility solve), never a wrong-but-plausible rating.
func Update(state model.RatingState, samples []model.OpponentSample, p model.Params) (model.RatingState, error) {
	if len(samples) == 0 {
		return model.RatingState{}, ErrNoSamples
	}

	// Step 1: convert to the internal scale.
	mu := toMu(state.Rating)
	phi := toPhi(state.RD)

	// Steps 2-4: estimated variance and rating improvement.
	var vInv, sum float64
	for _, s := range samples {
		muJ := toMu(s.OppRating)
		phiJ := toPhi(s.OppRD)
		gJ := weight(phiJ)
		eJ := expected(mu, muJ, phiJ)
		vInv += s.Weight * gJ * gJ * eJ * (1 - eJ)
		sum += s.Weight * gJ * (s.Score - eJ)
	}
	v := 1 / vInv
	delta := v * sum

	// Step 5: new volatility via root search.
	sigma, err := solveVolatility(delta, phi, v, state.Volatility, p.Tau)
	if err != nil {
		return model.RatingState{}, err
	}

	// Steps 6-7: new deviation and rating.
	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muNew := mu + phiNew*phiNew*sum

	// Step 8: convert back, keeping the deviation under its hard ceiling.
	next := model.RatingState{
		Rating:     fromMu(muNew),
		RD:         math.Min(fromPhi(phiNew), p.DefaultRD),
		Volatility: sigma,
	}
	if !finite(next) {
		metrics.RecordComputationError()
		return model.RatingState{}, ErrNotFinite
	}
	return next, nil
}

// Inflate returns the decayed state for a player with no samples this
// period: rating and volatility are unchanged, the deviation grows by one
// volatility step, capped at the default deviation. elapsedPeriods below one
// is floored at one; a player inactive for less than a full month still
// decays by one unit.
func Inflate(state model.RatingState, elapsedPeriods int, p model.Params) model.RatingState {
	if elapsedPeriods < 1 {
		elapsedPeriods = 1
	}
	// The decay is a single volatility step regardless of the span; the
	// cap at DefaultRD makes repeated application converge there anyway.
	rd := math.Sqrt(state.RD*state.RD + state.Volatility*state.Volatility)
	return model.RatingState{
		Rating:     state.Rating,
		RD:         math.Min(rd, p.DefaultRD),
		Volatility: state.Volatility,
	}
}

func toMu(rating float64) float64 { return (rating - 1500) / Scale }
func fromMu(mu float64) float64   { return mu*Scale + 1500 }
func toPhi(rd float64) float64    { return rd / Scale }
func fromPhi(phi float64) float64 { return phi * Scale }

// weight is g(phi): discounts comparisons against uncertain opponents.
func weight(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// expected is E(mu, muJ, phiJ): the expected score against one opponent.
func expected(mu, muJ, phiJ float64) float64 {
	return 1 / (1 + math.Exp(-weight(phiJ)*(mu-muJ)))
}

// solveVolatility finds sigma' as the root of the paper's f(x) using an
// Illinois-style false position search on the fixed bracket
// [a-bracketRadius, a+bracketRadius], a = ln(sigma^2). A bracket that does
// not shrink below convergenceTol within maxIterations is reported as
// ErrNoConvergence rather than returning the unconverged midpoint.
func solveVolatility(delta, phi, v, sigma, tau float64) (float64, error) {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (delta*delta - phi*phi - v - ex)
		den := 2 * (phi*phi + v + ex) * (phi*phi + v + ex)
		return num/den - (x-a)/(tau*tau)
	}

	lo, hi := a-bracketRadius, a+bracketRadius
	fLo, fHi := f(lo), f(hi)

	for i := 1; i <= maxIterations; i++ {
		x := lo + (lo-hi)*fLo/(fHi-fLo)
		fx := f(x)
		if math.IsNaN(fx) || math.IsInf(fx, 0) {
			metrics.RecordComputationError()
			return 0, ErrNotFinite
		}

		if fx*fHi <= 0 {
			lo, fLo = hi, fHi
		} else {
			// Illinois step: halve the stale endpoint's value so the
			// bracket keeps contracting.
			fLo /= 2
		}
		hi, fHi = x, fx

		if math.Abs(hi-lo) <= convergenceTol {
			metrics.RecordSolverIterations(i)
			return math.Exp(x / 2), nil
		}
	}

	metrics.RecordComputationError()
	return 0, ErrNoConvergence
}

func finite(s model.RatingState) bool {
	for _, v := range []float64{s.Rating, s.RD, s.Volatility} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s.RD > 0 && s.Volatility > 0
}
