// Package core provides the record model and amount parsing utilities.
//
// This file contains the functions that turn user-typed amounts (which may carry
// thousands separators) into decimals and back into display strings.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// thousandsSeparators are stripped before parsing.
var thousandsSeparators = strings.NewReplacer(",", "", "_", "", " ", "", "\u00a0", "")

// groupSeparator and decimalSeparator are the English locale's, as the
// x/text printer renders them.
var groupSeparator, decimalSeparator = localeSeparators(message.NewPrinter(language.English))

// localeSeparators reads both separators off a formatted sample, 1,234.5.
func localeSeparators(p *message.Printer) (group, point string) {
	sample := p.Sprint(number.Decimal(1234.5, number.MaxFractionDigits(1)))
	mid := strings.TrimSuffix(strings.TrimPrefix(sample, "1"), "5")
	group, point, ok := strings.Cut(mid, "234")
	if !ok {
		return ",", "."
	}
	return group, point
}

// ParseAmount converts a typed amount such as "1,200" or "1,200.50" into a decimal.
//
// Thousands separators are removed first. Empty and non-numeric input fail with
// ErrInvalidAmount; it is never coerced to zero. Negative values fail with
// ErrNegativeAmount.
//
// Examples:
//
//	ParseAmount("1,200")    -> 1200, nil
//	ParseAmount("0")        -> 0, nil
//	ParseAmount("")         -> 0, ErrInvalidAmount
//	ParseAmount("12abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = thousandsSeparators.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// decimal.NewFromString also accepts exponents; typed amounts never carry one.
	dots := 0
	for _, r := range s {
		if r == '.' {
			dots++
			continue
		}
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if dots > 1 || s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg && !d.IsZero() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// FormatAmount renders d with thousands separators, e.g. 1200.5 -> "1,200.5".
// The digits come from the decimal itself, so any magnitude renders exactly.
func FormatAmount(d decimal.Decimal) string {
	digits := d.String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	whole, frac, hasFrac := strings.Cut(digits, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(groupSeparator)
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString(decimalSeparator)
		b.WriteString(frac)
	}
	return b.String()
}

// FormatPercent renders a saving percentage as shown in the grid, e.g. "12.5%".
func FormatPercent(d decimal.Decimal) string {
	return d.String() + "%"
}
