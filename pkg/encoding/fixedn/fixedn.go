// Package fixedn converts between arbitrary-precision integers and their
// decimal-string representation at a given number of decimals, used to
// render NEP-17 token amounts (GAS has 8 decimals, NEO has 0).
package fixedn

import (
	"math/big"
	"strings"
)

// ToString renders value (an integer amount scaled by 10^decimals) as a
// decimal string with up to decimals fractional digits.
func ToString(value *big.Int, decimals uint8) string {
	if decimals == 0 {
		return value.String()
	}
	neg := value.Sign() < 0
	abs := new(big.Int).Abs(value)
	s := abs.String()
	for len(s) <= int(decimals) {
		s = "0" + s
	}
	intPart := s[:len(s)-int(decimals)]
	fracPart := strings.TrimRight(s[len(s)-int(decimals):], "0")
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FromString parses a decimal string into an integer amount scaled by
// 10^decimals. Returns nil if s isn't a valid decimal number.
func FromString(s string, decimals uint8) *big.Int {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if len(frac) > int(decimals) {
		return nil // precision loss not allowed
	}
	for len(frac) < int(decimals) {
		frac += "0"
	}
	v, ok := new(big.Int).SetString(intPart+frac, 10)
	if !ok {
		return nil
	}
	if neg {
		v.Neg(v)
	}
	return v
}
