package big

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	base10 = 10
)

// BigIntFromString converts a string to a *big.Int.
func BigIntFromString(s string) (*big.Int, error) {
	// allow common thousands separators (commas, underscores and spaces)
	sanitized := strings.ReplaceAll(s, ",", "")
	sanitized = strings.ReplaceAll(sanitized, "_", "")
	sanitized = strings.ReplaceAll(sanitized, " ", "")

	bigInt, isValid := new(big.Int).SetString(sanitized, base10)
	if !isValid {
		return nil, fmt.Errorf("invalid integer string: %s", s)
	}

	return bigInt, nil
}

// CountFromString parses a unit count as reported by the marketplace API, which encodes
// counts as decimal strings. Blank input is a count of zero.
// Negative values are rejected and values beyond int64 are clamped.
func CountFromString(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}

	bigInt, err := BigIntFromString(s)
	if err != nil {
		return 0, err
	}

	if bigInt.Sign() < 0 {
		return 0, fmt.Errorf("count must not be negative: %s", s)
	}

	if !bigInt.IsInt64() {
		return int64(^uint64(0) >> 1), nil
	}

	return bigInt.Int64(), nil
}
