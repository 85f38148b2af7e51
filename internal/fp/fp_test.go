package fp

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// absDiff returns |a-b| as a new *big.Int for the tolerance
// comparisons in these tests.
func absDiff(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	return d.Abs(d)
}

// withinRelativeTolerance reports whether |got-want|/want <= tol,
// computed in fixed-point space to avoid float64 entirely.
func withinRelativeTolerance(got, want *big.Int, tol float64) bool {
	diff := absDiff(got, want)
	// diff/want <= tol  <=>  diff*1e18 <= want*tol*1e18
	tolScaled := new(big.Int).SetInt64(int64(tol * 1e18))
	lhs := new(big.Int).Mul(diff, big.NewInt(1e18))
	rhs := new(big.Int).Mul(want, tolScaled)
	return lhs.Cmp(rhs) <= 0
}

func mustUnsigned(t *testing.T, s string) Unsigned {
	t.Helper()
	u, err := ParseUnsigned(s)
	require.NoError(t, err)
	return u
}

func mustSigned(t *testing.T, s string) Signed {
	t.Helper()
	v, err := ParseSigned(s)
	require.NoError(t, err)
	return v
}

func TestParseAndStringRoundTrip(t *testing.T) {
	cases := []string{"0", "1", "100", "23.75268", "0.000000000000000001", "1000000"}
	for _, c := range cases {
		u := mustUnsigned(t, c)
		require.Equal(t, c, u.String())
	}
}

func TestParseSignedNegative(t *testing.T) {
	s := mustSigned(t, "-12.5")
	require.Equal(t, -1, s.Sign())
	require.Equal(t, "-12.5", s.String())
}

func TestAddSubMulDivUnsigned(t *testing.T) {
	a := mustUnsigned(t, "10")
	b := mustUnsigned(t, "4")

	sum, err := AddUnsigned(a, b)
	require.NoError(t, err)
	require.Equal(t, "14", sum.String())

	diff, err := SubUnsigned(a, b)
	require.NoError(t, err)
	require.Equal(t, "6", diff.String())

	prod, err := MulUnsigned(a, b)
	require.NoError(t, err)
	require.Equal(t, "40", prod.String())

	quot, err := DivUnsigned(a, b)
	require.NoError(t, err)
	require.Equal(t, "2.5", quot.String())
}

func TestSubUnsignedOverflow(t *testing.T) {
	a := mustUnsigned(t, "1")
	b := mustUnsigned(t, "2")
	_, err := SubUnsigned(a, b)
	require.Error(t, err)
	var fpErr *Error
	require.True(t, errors.As(err, &fpErr))
	require.Equal(t, Overflow, fpErr.Kind)
}

func TestDivByZero(t *testing.T) {
	a := mustUnsigned(t, "1")
	z := ZeroUnsigned()
	_, err := DivUnsigned(a, z)
	require.Error(t, err)
	var fpErr *Error
	require.True(t, errors.As(err, &fpErr))
	require.Equal(t, DivByZero, fpErr.Kind)
}

func TestSignedArithmetic(t *testing.T) {
	a := mustSigned(t, "-5")
	b := mustSigned(t, "3")

	sum, err := AddSigned(a, b)
	require.NoError(t, err)
	require.Equal(t, "-2", sum.String())

	prod, err := MulSigned(a, b)
	require.NoError(t, err)
	require.Equal(t, "-15", prod.String())

	neg, err := NegSigned(a)
	require.NoError(t, err)
	require.Equal(t, "5", neg.String())

	require.Equal(t, "5", a.Abs().String())
}

func TestSqrtExact(t *testing.T) {
	u := NewUnsigned(16)
	got, err := Sqrt(u)
	require.NoError(t, err)
	require.Equal(t, "4", got.String())
}

func TestSqrtZero(t *testing.T) {
	got, err := Sqrt(ZeroUnsigned())
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestSqrtNonPerfectSquarePrecision(t *testing.T) {
	// sqrt(2) ~= 1.414213562373095...
	got, err := Sqrt(NewUnsigned(2))
	require.NoError(t, err)
	want := mustUnsigned(t, "1.414213562373095048")
	require.True(t, withinRelativeTolerance(got.Raw(), want.Raw(), 1e-15))
}

func TestExpZero(t *testing.T) {
	got, err := Exp(ZeroSigned())
	require.NoError(t, err)
	require.Equal(t, "1", got.String())
}

func TestExpOne(t *testing.T) {
	// e^1 ~= 2.718281828459045235
	got, err := Exp(NewSigned(1))
	require.NoError(t, err)
	want := mustUnsigned(t, "2.718281828459045235")
	require.True(t, withinRelativeTolerance(got.Raw(), want.Raw(), 1e-12))
}

func TestExpNegative(t *testing.T) {
	// e^-1 ~= 0.367879441171442322
	got, err := Exp(NewSigned(-1))
	require.NoError(t, err)
	want := mustUnsigned(t, "0.367879441171442322")
	require.True(t, withinRelativeTolerance(got.Raw(), want.Raw(), 1e-12))
}

func TestExpUnderflowReturnsZero(t *testing.T) {
	s := mustSigned(t, "-42")
	got, err := Exp(s)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestExpOverflowTooLarge(t *testing.T) {
	s := mustSigned(t, "51")
	_, err := Exp(s)
	require.Error(t, err)
	var fpErr *Error
	require.True(t, errors.As(err, &fpErr))
	require.Equal(t, ExpInputTooLarge, fpErr.Kind)
}

func TestExpBoundaryAccepted(t *testing.T) {
	s := mustSigned(t, "50")
	_, err := Exp(s)
	require.NoError(t, err)
}
