// Package utils holds stateless column helpers shared by the pipeline stages.
package utils

import "strings"

var monthNumbers = map[string]int{
	"January": 1, "February": 2, "March": 3, "April": 4,
	"May": 5, "June": 6, "July": 7, "August": 8,
	"September": 9, "October": 10, "November": 11, "December": 12,
}

// MonthToNumber maps a full English month name to 1..12. Matching is
// case-sensitive after trimming surrounding whitespace; ok is false for
// anything else.
func MonthToNumber(month string) (int, bool) {
	n, ok := monthNumbers[strings.TrimSpace(month)]
	return n, ok
}

// SafeDiv returns a/b, or def when b is zero
func SafeDiv(a, b, def float64) float64 {
	if b == 0 {
		return def
	}
	return a / b
}
