package debtor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a currency amount in minor units (kopecks).
type Money int64

// Rubles builds a Money value from whole and fractional rubles.
func Rubles(v float64) Money {
	return Money(math.Round(v * 100))
}

// Float returns the amount in major units.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// String renders the amount as "12 500,50 ₽".
func (m Money) String() string {
	neg := m < 0
	if neg {
		m = -m
	}
	whole := strconv.FormatInt(int64(m)/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("%s,%02d ₽", b.String(), int64(m)%100)
	if neg {
		return "-" + out
	}
	return out
}

// ParseMoney accepts "20000", "20000.50" or "20 000,50".
func ParseMoney(s string) (Money, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "₽")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" {
		return 0, fmt.Errorf("debtor: empty amount")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("debtor: invalid amount %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("debtor: negative amount %q", s)
	}
	return Rubles(v), nil
}
