package fp

import "math/big"

// fixedMul computes a*b/P with truncation toward zero, using a
// widened (arbitrary-precision) intermediate product — the big.Int
// equivalent of the 512-bit widening spec §4.A calls for.
func fixedMul(a, b *big.Int) *big.Int {
	wide := new(big.Int).Mul(a, b)
	return new(big.Int).Quo(wide, P)
}

// fixedDiv computes a*P/b with truncation toward zero (the explicit
// rounding mode from spec §5(c)).
func fixedDiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, newErr("Div", DivByZero)
	}
	wide := new(big.Int).Mul(a, P)
	return new(big.Int).Quo(wide, b), nil
}

// AddUnsigned returns a+b.
func AddUnsigned(a, b Unsigned) (Unsigned, error) {
	return UnsignedFromRaw(new(big.Int).Add(a.raw(), b.raw()))
}

// SubUnsigned returns a-b. Fails with Overflow if the result would be
// negative (Unsigned cannot represent negative values).
func SubUnsigned(a, b Unsigned) (Unsigned, error) {
	return UnsignedFromRaw(new(big.Int).Sub(a.raw(), b.raw()))
}

// MulUnsigned returns a*b (fixed-point multiply, a*b/P).
func MulUnsigned(a, b Unsigned) (Unsigned, error) {
	return UnsignedFromRaw(fixedMul(a.raw(), b.raw()))
}

// DivUnsigned returns a/b (fixed-point divide, a*P/b).
func DivUnsigned(a, b Unsigned) (Unsigned, error) {
	raw, err := fixedDiv(a.raw(), b.raw())
	if err != nil {
		return Unsigned{}, err
	}
	return UnsignedFromRaw(raw)
}

// AddSigned returns a+b.
func AddSigned(a, b Signed) (Signed, error) {
	return SignedFromRaw(new(big.Int).Add(a.raw(), b.raw()))
}

// SubSigned returns a-b.
func SubSigned(a, b Signed) (Signed, error) {
	return SignedFromRaw(new(big.Int).Sub(a.raw(), b.raw()))
}

// NegSigned returns -a.
func NegSigned(a Signed) (Signed, error) {
	return SignedFromRaw(new(big.Int).Neg(a.raw()))
}

// MulSigned returns a*b (fixed-point multiply).
func MulSigned(a, b Signed) (Signed, error) {
	return SignedFromRaw(fixedMul(a.raw(), b.raw()))
}

// DivSigned returns a/b (fixed-point divide).
func DivSigned(a, b Signed) (Signed, error) {
	raw, err := fixedDiv(a.raw(), b.raw())
	if err != nil {
		return Signed{}, err
	}
	return SignedFromRaw(raw)
}

// MulSignedUnsigned multiplies a signed value by an unsigned one,
// returning a Signed — the common case of scaling a signed coordinate
// by a non-negative parameter.
func MulSignedUnsigned(a Signed, b Unsigned) (Signed, error) {
	return SignedFromRaw(fixedMul(a.raw(), b.raw()))
}

// DivSignedUnsigned divides a signed value by an unsigned one.
func DivSignedUnsigned(a Signed, b Unsigned) (Signed, error) {
	raw, err := fixedDiv(a.raw(), b.raw())
	if err != nil {
		return Signed{}, err
	}
	return SignedFromRaw(raw)
}
