// Package solver implements the damped-Newton search for the point of
// maximum divergence between two scaled-Gaussian shapes — the
// worst-case payout differential a trade can create, and therefore
// the collateral the trader must post against it.
package solver

import (
	"distmarket/internal/fp"
	"distmarket/internal/gaussian"
)

var (
	dampingFactor, _  = fp.ParseUnsigned("0.875")
	curvatureFloor, _ = fp.ParseUnsigned("0.0000000001") // 1e-10, spec's "|g''| < 1e8 raw"
)

// Distribution is the (mu, sigma) pair for one endpoint of a trade; the
// shared k is passed to the solver separately.
type Distribution struct {
	Mu    fp.Signed
	Sigma fp.Unsigned
}

// Result is the (max_loss, x*) pair find_max_loss returns, plus the
// number of damped-Newton iterations it actually ran (component P).
type Result struct {
	MaxLoss    fp.Unsigned
	XStar      fp.Signed
	Iterations int
}

// gPrime and gSecond evaluate g'(x) = f'(x;to) - f'(x;from) and
// g''(x) = f''(x;to) - f''(x;from).
func gPrime(x fp.Signed, from, to Distribution, k fp.Unsigned) (fp.Signed, error) {
	toVal, err := gaussian.FPrime(x, to.Mu, to.Sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	fromVal, err := gaussian.FPrime(x, from.Mu, from.Sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	return fp.SubSigned(toVal, fromVal)
}

func gSecond(x fp.Signed, from, to Distribution, k fp.Unsigned) (fp.Signed, error) {
	toVal, err := gaussian.FSecond(x, to.Mu, to.Sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	fromVal, err := gaussian.FSecond(x, from.Mu, from.Sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	return fp.SubSigned(toVal, fromVal)
}

func gValue(x fp.Signed, from, to Distribution, k fp.Unsigned) (fp.Signed, error) {
	toVal, err := gaussian.F(x, to.Mu, to.Sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	fromVal, err := gaussian.F(x, from.Mu, from.Sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	return fp.SubSigned(toVal.ToSigned(), fromVal.ToSigned())
}

// seed picks the initial iterate per the side-choice rule: the seed
// must land on the side of mu_to opposite from mu_from, or Newton
// converges to the wrong critical point. Together with clamp below,
// this is the single most subtle part of the kernel.
//
// When mu_from == mu_to neither branch fires and hint passes through
// unchanged; if hint also equals mu_to, the iteration can terminate
// immediately at x* = mu_to with a positive max_loss by symmetry. This
// is intentional, not a bug to paper over.
func seed(hint fp.Signed, from, to Distribution) fp.Signed {
	x := hint
	if from.Mu.Cmp(to.Mu) < 0 && hint.Cmp(to.Mu) <= 0 {
		x, _ = fp.AddSigned(to.Mu, to.Sigma.ToSigned())
	} else if from.Mu.Cmp(to.Mu) > 0 && hint.Cmp(to.Mu) >= 0 {
		x, _ = fp.SubSigned(to.Mu, to.Sigma.ToSigned())
	}
	return x
}

// clamp bounds x_new so the iterate never crosses mu_to, per the
// bound step of the algorithm.
func clamp(xNew fp.Signed, from, to Distribution) fp.Signed {
	if from.Mu.Cmp(to.Mu) < 0 {
		if xNew.Cmp(to.Mu) < 0 {
			return to.Mu
		}
		return xNew
	}
	if xNew.Cmp(to.Mu) > 0 {
		return to.Mu
	}
	return xNew
}

// FindMaxLoss runs the damped-Newton search described above and
// returns the maximum absolute divergence between the "to" and "from"
// shapes, along with the x at which it occurs. MaxIterReached is not
// an error: the best iterate found within maxIter steps is returned.
func FindMaxLoss(from, to Distribution, k fp.Unsigned, hint fp.Signed, maxIter int, tol fp.Unsigned) (Result, error) {
	x := seed(hint, from, to)

	iterations := 0
	for i := 0; i < maxIter; i++ {
		iterations++
		gp, err := gPrime(x, from, to, k)
		if err != nil {
			return Result{}, err
		}
		if gp.Abs().Cmp(tol) < 0 {
			break
		}

		gs, err := gSecond(x, from, to, k)
		if err != nil {
			return Result{}, err
		}
		if gs.Abs().Cmp(curvatureFloor) < 0 {
			break // curvature too flat to trust a Newton step
		}

		delta, err := fp.DivSigned(gp, gs)
		if err != nil {
			return Result{}, err
		}
		dampedDelta, err := fp.MulSignedUnsigned(delta, dampingFactor)
		if err != nil {
			return Result{}, err
		}
		xNew, err := fp.SubSigned(x, dampedDelta)
		if err != nil {
			return Result{}, err
		}
		xNew = clamp(xNew, from, to)

		step, err := fp.SubSigned(xNew, x)
		if err != nil {
			return Result{}, err
		}
		converged := step.Abs().Cmp(tol) < 0
		x = xNew
		if converged {
			break
		}
	}

	g, err := gValue(x, from, to, k)
	if err != nil {
		return Result{}, err
	}
	return Result{MaxLoss: g.Abs(), XStar: x, Iterations: iterations}, nil
}
