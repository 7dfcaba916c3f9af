// Package utils provides formatting and time helpers shared by the views.
package utils

import (
	"fmt"
	"math"
	"strconv"
)

// FormatINR formats an amount in Indian Rupee notation (₹12,34,567.89):
// the last three integer digits, then groups of two.
func FormatINR(amount float64) string {
	paise := int64(math.Round(math.Abs(amount) * 100))
	s := fmt.Sprintf("₹%s.%02d", groupIndian(paise/100), paise%100)
	if amount < 0 && paise != 0 {
		return "-" + s
	}
	return s
}

// FormatINRWhole formats an amount in rupees rounded to the nearest unit (₹2,790).
func FormatINRWhole(amount float64) string {
	units := int64(math.Round(math.Abs(amount)))
	if amount < 0 && units != 0 {
		return "-₹" + groupIndian(units)
	}
	return "₹" + groupIndian(units)
}

// FormatPct formats a percentage with an explicit sign for non-negative values.
// e.g., 2.45 → "+2.45%", 0 → "+0.00%", -1.23 → "-1.23%"
// Negative zero is shown as "+0.00%".
func FormatPct(pct float64) string {
	if pct == 0 {
		pct = 0
	}
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// groupIndian inserts Indian digit-group separators into a non-negative integer.
func groupIndian(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	out := s[len(s)-3:]
	rest := s[:len(s)-3]
	for len(rest) > 2 {
		out = rest[len(rest)-2:] + "," + out
		rest = rest[:len(rest)-2]
	}
	return rest + "," + out
}
