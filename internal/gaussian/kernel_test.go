package gaussian

import (
	"math/big"
	"testing"

	"distmarket/internal/fp"

	"github.com/stretchr/testify/require"
)

func mustU(t *testing.T, s string) fp.Unsigned {
	t.Helper()
	u, err := fp.ParseUnsigned(s)
	require.NoError(t, err)
	return u
}

func mustS(t *testing.T, s string) fp.Signed {
	t.Helper()
	v, err := fp.ParseSigned(s)
	require.NoError(t, err)
	return v
}

func withinRelTol(t *testing.T, got, want *big.Int, tol float64) {
	t.Helper()
	diff := new(big.Int).Sub(got, want)
	diff.Abs(diff)
	tolScaled := big.NewInt(int64(tol * 1e18))
	lhs := new(big.Int).Mul(diff, big.NewInt(1e18))
	rhs := new(big.Int).Mul(want, tolScaled)
	require.True(t, lhs.Cmp(rhs) <= 0, "got=%s want=%s tol=%v", got, want, tol)
}

// S1: lambda(sigma=10, k=100) ~= 595.391274861
func TestS1Lambda(t *testing.T) {
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	got, err := Lambda(sigma, k)
	require.NoError(t, err)
	want := mustU(t, "595.391274861")
	withinRelTol(t, got.Raw(), want.Raw(), 1e-9)
}

// S2: f(x=100, mu=100, sigma=10, k=100) ~= 23.75268
func TestS2F(t *testing.T) {
	x := fp.NewSigned(100)
	mu := fp.NewSigned(100)
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	got, err := F(x, mu, sigma, k)
	require.NoError(t, err)
	want := mustU(t, "23.75268")
	withinRelTol(t, got.Raw(), want.Raw(), 1e-6)
}

// S3: f(x=85, mu=100, sigma=10, k=100) ~= 7.71136
func TestS3F(t *testing.T) {
	x := fp.NewSigned(85)
	mu := fp.NewSigned(100)
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	got, err := F(x, mu, sigma, k)
	require.NoError(t, err)
	want := mustU(t, "7.71136")
	withinRelTol(t, got.Raw(), want.Raw(), 1e-5)
}

// S4: f(x=1000, mu=0, sigma=10, k=100) ~= 0, below 1e-6*P.
func TestS4FTailUnderflow(t *testing.T) {
	x := fp.NewSigned(1000)
	mu := fp.ZeroSigned()
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	got, err := F(x, mu, sigma, k)
	require.NoError(t, err)
	threshold := mustU(t, "0.000001")
	require.True(t, got.Cmp(threshold) < 0)
}

// Invariant 1: k_max(sigma_min(k,b), b) ~= k.
func TestInvariantSigmaMinKMaxRoundTrip(t *testing.T) {
	k := fp.NewUnsigned(100)
	b := fp.NewUnsigned(50)
	sMin, err := SigmaMin(k, b)
	require.NoError(t, err)
	kBack, err := KMax(sMin, b)
	require.NoError(t, err)
	withinRelTol(t, kBack.Raw(), k.Raw(), 1e-9)
}

// Invariant 2: f is always non-negative (Unsigned return type enforces
// this structurally — this test exercises a range of inputs to make
// sure no call panics or errors unexpectedly).
func TestInvariantFNonNegativeAcrossRange(t *testing.T) {
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	mu := fp.NewSigned(100)
	for _, xv := range []int64{-50, 0, 50, 100, 150, 200, 300} {
		x := fp.NewSigned(xv)
		got, err := F(x, mu, sigma, k)
		require.NoError(t, err)
		require.True(t, got.Sign() >= 0 || got.IsZero())
	}
}

// Invariant 3: f(mu,mu,sigma,k) = lambda(sigma,k) / (sigma*sqrt(2*pi)).
func TestInvariantPeakAtMean(t *testing.T) {
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	mu := fp.NewSigned(100)

	peak, err := F(mu, mu, sigma, k)
	require.NoError(t, err)

	lambda, err := Lambda(sigma, k)
	require.NoError(t, err)
	denom, err := fp.MulUnsigned(sigma, sqrt2PiVal)
	require.NoError(t, err)
	want, err := fp.DivUnsigned(lambda, denom)
	require.NoError(t, err)

	withinRelTol(t, peak.Raw(), want.Raw(), 1e-9)
}

// Invariant 4: at |z|=14, f < 1e-12 * f(mu).
func TestInvariantTailDecay(t *testing.T) {
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	mu := fp.NewSigned(100)

	peak, err := F(mu, mu, sigma, k)
	require.NoError(t, err)

	x := mustS(t, "240") // mu + 14*sigma = 100 + 140
	tail, err := F(x, mu, sigma, k)
	require.NoError(t, err)

	bound, err := fp.MulUnsigned(peak, mustU(t, "0.000000000001"))
	require.NoError(t, err)
	require.True(t, tail.Cmp(bound) < 0)
}

func TestFPrimeSignAroundMean(t *testing.T) {
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	mu := fp.NewSigned(100)

	below, err := FPrime(fp.NewSigned(90), mu, sigma, k)
	require.NoError(t, err)
	require.True(t, below.Sign() > 0) // rising into the mean

	above, err := FPrime(fp.NewSigned(110), mu, sigma, k)
	require.NoError(t, err)
	require.True(t, above.Sign() < 0) // falling away from the mean
}

func TestFSecondNegativeAtMean(t *testing.T) {
	sigma := fp.NewUnsigned(10)
	k := fp.NewUnsigned(100)
	mu := fp.NewSigned(100)

	second, err := FSecond(mu, mu, sigma, k)
	require.NoError(t, err)
	require.True(t, second.Sign() < 0) // concave at the peak
}
