package utils

import (
	"strconv"
	"strings"
)

// FormatRUB formats a whole-ruble amount as a string like "1 750 ₽".
// Uses a space as thousands separator (common in Russia).
func FormatRUB(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 6)
	if neg {
		b.WriteByte('-')
	}

	// Insert separators from the left.
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(' ')
		b.WriteString(s[i : i+3])
	}
	b.WriteString(" ₽")

	return b.String()
}
