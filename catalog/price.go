package catalog

import (
	"strconv"
	"strings"
)

// FormatPrice renders minor units as whole rupees with Indian digit grouping:
// 100000 -> ₹1,000, 100000000 -> ₹10,00,000. Halves round away from zero.
func FormatPrice(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}
	rupees := (cents + 50) / 100

	digits := strconv.FormatInt(rupees, 10)
	var b strings.Builder
	if negative && rupees != 0 {
		b.WriteByte('-')
	}
	b.WriteString("₹")

	if len(digits) <= 3 {
		b.WriteString(digits)
		return b.String()
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	// groups of two above the thousands
	first := len(head) % 2
	if first == 0 {
		first = 2
	}
	b.WriteString(head[:first])
	for i := first; i < len(head); i += 2 {
		b.WriteByte(',')
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
