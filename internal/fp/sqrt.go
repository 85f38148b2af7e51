package fp

import "math/big"

// maxSqrtIterations bounds the Newton iteration per spec §5: "sqrt ≤
// 64 Newton iterations on a 256-bit integer".
const maxSqrtIterations = 64

// isqrt returns floor(sqrt(x)) for x >= 0 via bounded Newton
// iteration, seeded from the bit length of x so convergence is fast
// regardless of magnitude.
func isqrt(x *big.Int) *big.Int {
	if x.Sign() <= 0 {
		return new(big.Int)
	}
	if x.Cmp(big.NewInt(4)) < 0 {
		// 1, 2, 3 all have integer sqrt floor 1.
		return big.NewInt(1)
	}

	// Seed guess: 2^(ceil(bitlen/2)+1), guaranteed >= true root.
	guess := new(big.Int).Lsh(big.NewInt(1), uint((x.BitLen()+1)/2+1))

	for i := 0; i < maxSqrtIterations; i++ {
		// next = (guess + x/guess) / 2
		q := new(big.Int).Quo(x, guess)
		next := new(big.Int).Add(guess, q)
		next.Rsh(next, 1)
		if next.Cmp(guess) >= 0 {
			// Converged (Newton step stopped decreasing).
			break
		}
		guess = next
	}

	// Newton's method on integer floor-sqrt can overshoot by one ULP;
	// correct downward until guess*guess <= x.
	for {
		sq := new(big.Int).Mul(guess, guess)
		if sq.Cmp(x) <= 0 {
			break
		}
		guess.Sub(guess, big.NewInt(1))
	}
	// And ensure (guess+1)^2 > x, i.e. guess is the floor, not one
	// below it (can happen if the loop above exited early).
	for {
		next := new(big.Int).Add(guess, big.NewInt(1))
		sq := new(big.Int).Mul(next, next)
		if sq.Cmp(x) > 0 {
			break
		}
		guess = next
	}
	return guess
}

// Sqrt returns floor(sqrt(u)·P) such that Sqrt(u)·Sqrt(u)/P ≈ u within
// ±1 ULP of the fixed-point scale, per spec §4.A.
func Sqrt(u Unsigned) (Unsigned, error) {
	if u.IsZero() {
		return ZeroUnsigned(), nil
	}
	// sqrt_fp(x) = floor(sqrt(x_raw * P)), since x_raw/P is the real
	// value and we want floor(sqrt(x_raw/P) * P) = floor(sqrt(x_raw*P)).
	widened := new(big.Int).Mul(u.raw(), P)
	return UnsignedFromRaw(isqrt(widened))
}
