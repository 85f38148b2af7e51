// Package pricing wraps the max-loss solver into the single entry
// point the market state machine calls at trade time: given the
// market's current and proposed shapes, the collateral the trader
// must post against the worst-case payout differential.
package pricing

import (
	"distmarket/internal/fp"
	"distmarket/internal/solver"
)

// DefaultMaxIter and DefaultTolerance are the damped-Newton search
// parameters the market uses for every trade; spec scenarios S5-S7
// exercise these exact default values. Hosts may override either at
// startup (see internal/config.SolverConfig) before any trade runs.
var DefaultMaxIter = 20

var DefaultTolerance, _ = fp.ParseUnsigned("0.000001")

// RequiredCollateral returns the non-negative collateral a trade
// moving a market from (muFrom,sigmaFrom) to (muTo,sigmaTo) requires,
// given the market's k and a search hint, along with the number of
// damped-Newton iterations the search actually ran. hint=0 is a
// sentinel that promotes to muTo (the maximum tends to lie near the
// new mean when the caller has no better starting guess).
func RequiredCollateral(from, to solver.Distribution, k fp.Unsigned, hint fp.Signed) (fp.Unsigned, int, error) {
	if hint.IsZero() {
		hint = to.Mu
	}
	result, err := solver.FindMaxLoss(from, to, k, hint, DefaultMaxIter, DefaultTolerance)
	if err != nil {
		return fp.Unsigned{}, 0, err
	}
	return result.MaxLoss, result.Iterations, nil
}
