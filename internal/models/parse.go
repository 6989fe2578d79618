package models

import (
	"strconv"
	"strings"
)

// ParseDecimal converts free-text numeric input to a float. Comma and dot
// are both accepted as decimal separator ("82,5" and "82.5" parse alike);
// any other non-numeric residue is stripped before parsing ("80kg" parses
// as 80). Empty or unparseable input yields nil, never zero and never an
// error.
func ParseDecimal(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseReps converts free-text rep-count input to an int, truncating any
// fractional part toward zero. Same contract as ParseDecimal: nil on empty
// or unparseable input.
func ParseReps(s string) *int {
	f := ParseDecimal(s)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
