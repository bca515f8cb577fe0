package contracts

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// RateDecimals is the fixed-point precision of Flow rates (UD21x18).
const RateDecimals = 18

// RatePerSecond converts amount token units streamed every period into the
// UD21x18 per-second rate Flow expects. amount is in the token's base units.
func RatePerSecond(amount *big.Int, tokenDecimals uint8, period time.Duration) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if tokenDecimals > RateDecimals {
		return nil, fmt.Errorf("token decimals %d exceed rate precision %d", tokenDecimals, RateDecimals)
	}
	secs := int64(period / time.Second)
	if secs <= 0 {
		return nil, fmt.Errorf("period must be at least one second")
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(RateDecimals-tokenDecimals)), nil)
	rate := new(big.Int).Mul(amount, scale)
	rate.Quo(rate, big.NewInt(secs))
	if rate.Sign() == 0 {
		return nil, fmt.Errorf("rate rounds down to zero")
	}
	return rate, nil
}

// ParseUnits parses a decimal string such as "1.5" into base units.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount: %s", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", s, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))
	if whole == "" {
		whole = "0"
	}
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	return v, nil
}

// FormatUnits renders base units as a decimal string with all decimals kept.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	s := new(big.Int).Abs(v).String()
	if decimals > 0 {
		if len(s) <= int(decimals) {
			s = strings.Repeat("0", int(decimals)-len(s)+1) + s
		}
		point := len(s) - int(decimals)
		s = s[:point] + "." + s[point:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
