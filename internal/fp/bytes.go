package fp

import "math/big"

// Bytes32 returns u's raw value as a 32-byte big-endian unsigned
// integer, the wire contract of spec §6.
func (u Unsigned) Bytes32() [32]byte {
	return rawTo32(u.raw())
}

// Bytes32 returns s's raw value as a 32-byte big-endian two's
// complement signed integer.
func (s Signed) Bytes32() [32]byte {
	raw := s.raw()
	if raw.Sign() >= 0 {
		return rawTo32(raw)
	}
	// Two's complement: 2^256 + raw (raw is negative).
	wrapped := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 256), raw)
	return rawTo32(wrapped)
}

func rawTo32(v *big.Int) [32]byte {
	var out [32]byte
	b := v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// FromBytes32Unsigned decodes a 32-byte big-endian unsigned integer
// into an Unsigned.
func FromBytes32Unsigned(b [32]byte) (Unsigned, error) {
	raw := new(big.Int).SetBytes(b[:])
	return UnsignedFromRaw(raw)
}

// FromBytes32Signed decodes a 32-byte big-endian two's complement
// signed integer into a Signed.
func FromBytes32Signed(b [32]byte) (Signed, error) {
	raw := new(big.Int).SetBytes(b[:])
	// If the top bit is set, this represents a negative two's
	// complement value: subtract 2^256.
	if raw.Bit(255) == 1 {
		raw.Sub(raw, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return SignedFromRaw(raw)
}
