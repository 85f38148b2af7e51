// Package gaussian implements the scaled-Gaussian distribution kernel:
// the parameterized shape f(x; D) a market's payout curve is built
// from, its first and second derivatives, the L2-norm scaling factor
// λ, and the σ/k/b boundary relation that keeps f(μ) bounded by the
// market's backing.
//
// =============================================================================
// SCALED-GAUSSIAN KERNEL — Mathematical Foundation
// =============================================================================
//
// A distribution D = (μ, σ, k) defines a payout shape
//
//	f(x; D) = λ(σ, k) · N(x; μ, σ)
//
// where N is the standard Gaussian PDF and λ is chosen so the L2 norm
// of f over all of ℝ equals k:
//
//	λ(σ, k) = k · √(2σ√π)
//
// Expanding N gives the evaluation this package implements directly:
//
//	z      = (x − μ) / σ
//	f(x;D) = λ(σ,k) / (σ·√(2π)) · e^(−z²/2)
//
// f is always non-negative; its derivatives f′, f″ follow from the
// chain rule on the exponent and may be of either sign.
//
// The backing constraint σ ≥ k²/(b²√π) (equivalently k ≤ b·√(σ√π))
// keeps f(μ) — the peak payout — from exceeding the market's total
// backing b. sigma_min and k_max are the two directions of that same
// relation.
package gaussian

import (
	"distmarket/internal/fp"
)

var (
	piVal      fp.Unsigned
	sqrtPiVal  fp.Unsigned
	sqrt2Val   fp.Unsigned
	sqrt2PiVal fp.Unsigned
)

func init() {
	var err error
	piVal, err = fp.ParseUnsigned("3.141592653589793238")
	if err != nil {
		panic("gaussian: invalid pi constant: " + err.Error())
	}
	sqrtPiVal, err = fp.Sqrt(piVal)
	if err != nil {
		panic("gaussian: sqrt(pi): " + err.Error())
	}
	sqrt2Val, err = fp.Sqrt(fp.NewUnsigned(2))
	if err != nil {
		panic("gaussian: sqrt(2): " + err.Error())
	}
	twoPi, err := fp.MulUnsigned(piVal, fp.NewUnsigned(2))
	if err != nil {
		panic("gaussian: 2*pi: " + err.Error())
	}
	sqrt2PiVal, err = fp.Sqrt(twoPi)
	if err != nil {
		panic("gaussian: sqrt(2*pi): " + err.Error())
	}
}

// Pi, SqrtPi, Sqrt2, Sqrt2Pi expose the precomputed constants for
// callers (e.g. tests, the solver) that need them directly.
func Pi() fp.Unsigned      { return piVal }
func SqrtPi() fp.Unsigned  { return sqrtPiVal }
func Sqrt2() fp.Unsigned   { return sqrt2Val }
func Sqrt2Pi() fp.Unsigned { return sqrt2PiVal }

// Lambda computes λ(σ,k) = k·√(2σ√π), the L2-norm scaling factor.
func Lambda(sigma, k fp.Unsigned) (fp.Unsigned, error) {
	twoSigma, err := fp.MulUnsigned(sigma, fp.NewUnsigned(2))
	if err != nil {
		return fp.Unsigned{}, err
	}
	inner, err := fp.MulUnsigned(twoSigma, sqrtPiVal)
	if err != nil {
		return fp.Unsigned{}, err
	}
	sqrtInner, err := fp.Sqrt(inner)
	if err != nil {
		return fp.Unsigned{}, err
	}
	return fp.MulUnsigned(k, sqrtInner)
}

// F evaluates f(x; μ,σ,k). Returns 0 when the Gaussian exponent
// underflows (z²/2 > 41·P), per the underflow guarantee in the shape
// of the curve's tails.
func F(x, mu fp.Signed, sigma, k fp.Unsigned) (fp.Unsigned, error) {
	diff, err := fp.SubSigned(x, mu)
	if err != nil {
		return fp.Unsigned{}, err
	}
	z, err := fp.DivSignedUnsigned(diff, sigma)
	if err != nil {
		return fp.Unsigned{}, err
	}
	zSq, err := fp.MulSigned(z, z)
	if err != nil {
		return fp.Unsigned{}, err
	}
	zSqOverTwo, err := fp.DivSigned(zSq, fp.NewSigned(2))
	if err != nil {
		return fp.Unsigned{}, err
	}
	negExponent, err := fp.NegSigned(zSqOverTwo)
	if err != nil {
		return fp.Unsigned{}, err
	}
	expVal, err := fp.Exp(negExponent)
	if err != nil {
		return fp.Unsigned{}, err
	}

	denom, err := fp.MulUnsigned(sigma, sqrt2PiVal)
	if err != nil {
		return fp.Unsigned{}, err
	}
	normalized, err := fp.DivUnsigned(expVal, denom)
	if err != nil {
		return fp.Unsigned{}, err
	}
	lambda, err := Lambda(sigma, k)
	if err != nil {
		return fp.Unsigned{}, err
	}
	return fp.MulUnsigned(normalized, lambda)
}

// FPrime computes f′(x,μ,σ,k) = −(x−μ)/σ² · f(x,μ,σ,k).
func FPrime(x, mu fp.Signed, sigma, k fp.Unsigned) (fp.Signed, error) {
	diff, err := fp.SubSigned(x, mu)
	if err != nil {
		return fp.Signed{}, err
	}
	sigmaSq, err := fp.MulUnsigned(sigma, sigma)
	if err != nil {
		return fp.Signed{}, err
	}
	ratio, err := fp.DivSignedUnsigned(diff, sigmaSq)
	if err != nil {
		return fp.Signed{}, err
	}
	negRatio, err := fp.NegSigned(ratio)
	if err != nil {
		return fp.Signed{}, err
	}
	fVal, err := F(x, mu, sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	return fp.MulSignedUnsigned(negRatio, fVal)
}

// FSecond computes f″(x,μ,σ,k) = ((x−μ)²/σ⁴ − 1/σ²) · f(x,μ,σ,k).
func FSecond(x, mu fp.Signed, sigma, k fp.Unsigned) (fp.Signed, error) {
	diff, err := fp.SubSigned(x, mu)
	if err != nil {
		return fp.Signed{}, err
	}
	diffSq, err := fp.MulSigned(diff, diff)
	if err != nil {
		return fp.Signed{}, err
	}
	sigmaSq, err := fp.MulUnsigned(sigma, sigma)
	if err != nil {
		return fp.Signed{}, err
	}
	sigma4, err := fp.MulUnsigned(sigmaSq, sigmaSq)
	if err != nil {
		return fp.Signed{}, err
	}
	term1, err := fp.DivSignedUnsigned(diffSq, sigma4)
	if err != nil {
		return fp.Signed{}, err
	}
	invSigmaSq, err := fp.DivUnsigned(fp.NewUnsigned(1), sigmaSq)
	if err != nil {
		return fp.Signed{}, err
	}
	inner, err := fp.SubSigned(term1, invSigmaSq.ToSigned())
	if err != nil {
		return fp.Signed{}, err
	}
	fVal, err := F(x, mu, sigma, k)
	if err != nil {
		return fp.Signed{}, err
	}
	return fp.MulSignedUnsigned(inner, fVal)
}

// SigmaMin returns k²/(b²√π), the minimum σ a market with norm k and
// backing b may carry.
func SigmaMin(k, b fp.Unsigned) (fp.Unsigned, error) {
	kSq, err := fp.MulUnsigned(k, k)
	if err != nil {
		return fp.Unsigned{}, err
	}
	bSq, err := fp.MulUnsigned(b, b)
	if err != nil {
		return fp.Unsigned{}, err
	}
	denom, err := fp.MulUnsigned(bSq, sqrtPiVal)
	if err != nil {
		return fp.Unsigned{}, err
	}
	return fp.DivUnsigned(kSq, denom)
}

// KMax returns b·√(σ√π), the maximum k a market with scale σ and
// backing b may carry. The inverse of SigmaMin.
func KMax(sigma, b fp.Unsigned) (fp.Unsigned, error) {
	inner, err := fp.MulUnsigned(sigma, sqrtPiVal)
	if err != nil {
		return fp.Unsigned{}, err
	}
	sq, err := fp.Sqrt(inner)
	if err != nil {
		return fp.Unsigned{}, err
	}
	return fp.MulUnsigned(b, sq)
}
