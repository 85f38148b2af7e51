package fp

import (
	"fmt"
	"math/big"
	"strings"
)

// String renders u as a decimal string with up to ScaleDecimals
// fractional digits, e.g. "23.75268".
func (u Unsigned) String() string {
	return formatRaw(u.raw(), false)
}

// String renders s as a decimal string, with a leading "-" for
// negative values.
func (s Signed) String() string {
	return formatRaw(s.raw(), true)
}

func formatRaw(raw *big.Int, signed bool) string {
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, P, frac)

	fracStr := frac.String()
	fracStr = strings.Repeat("0", ScaleDecimals-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")

	sign := ""
	if neg && signed {
		sign = "-"
	}
	if fracStr == "" {
		return sign + whole.String()
	}
	return sign + whole.String() + "." + fracStr
}

// ParseUnsigned parses a decimal string (e.g. "23.75268" or "100")
// into an Unsigned, rejecting negative inputs. Fractional digits beyond
// ScaleDecimals are truncated toward zero, matching the division
// rounding policy.
func ParseUnsigned(str string) (Unsigned, error) {
	raw, neg, err := parseDecimal(str)
	if err != nil {
		return Unsigned{}, err
	}
	if neg {
		return Unsigned{}, fmt.Errorf("fp: ParseUnsigned: negative value %q", str)
	}
	return UnsignedFromRaw(raw)
}

// ParseSigned parses a decimal string into a Signed.
func ParseSigned(str string) (Signed, error) {
	raw, neg, err := parseDecimal(str)
	if err != nil {
		return Signed{}, err
	}
	if neg {
		raw = new(big.Int).Neg(raw)
	}
	return SignedFromRaw(raw)
}

func parseDecimal(str string) (raw *big.Int, neg bool, err error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, false, fmt.Errorf("fp: empty decimal string")
	}
	if strings.HasPrefix(str, "-") {
		neg = true
		str = str[1:]
	} else if strings.HasPrefix(str, "+") {
		str = str[1:]
	}

	wholePart, fracPart, hasFrac := strings.Cut(str, ".")
	if wholePart == "" {
		wholePart = "0"
	}
	whole, ok := new(big.Int).SetString(wholePart, 10)
	if !ok {
		return nil, false, fmt.Errorf("fp: invalid decimal string %q", str)
	}
	raw = new(big.Int).Mul(whole, P)

	if hasFrac {
		if len(fracPart) > ScaleDecimals {
			fracPart = fracPart[:ScaleDecimals] // truncate excess precision toward zero
		} else {
			fracPart = fracPart + strings.Repeat("0", ScaleDecimals-len(fracPart))
		}
		fracVal, ok := new(big.Int).SetString(fracPart, 10)
		if !ok {
			return nil, false, fmt.Errorf("fp: invalid decimal string %q", str)
		}
		raw.Add(raw, fracVal)
	}
	return raw, neg, nil
}

// MarshalText implements encoding.TextMarshaler for JSON/YAML/text
// boundaries (component F, spec §4.F).
func (u Unsigned) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unsigned) UnmarshalText(text []byte) error {
	parsed, err := ParseUnsigned(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Signed) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signed) UnmarshalText(text []byte) error {
	parsed, err := ParseSigned(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
