package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"savings/internal/core"
)

// Form field names, shared with the HTML form.
const (
	FieldName          = "name"
	FieldTotalIncomes  = "total_incomes"
	FieldTotalExpenses = "total_expenses"
)

// NumberField keeps what the user typed next to its parsed value. Value is
// invalid whenever Text does not parse, so a bad entry is never read as zero.
type NumberField struct {
	Text  string
	Value decimal.NullDecimal
	Err   error
}

// NumberFieldOf returns a valid field holding d.
func NumberFieldOf(d decimal.Decimal) NumberField {
	return NumberField{
		Text:  core.FormatAmount(d),
		Value: decimal.NewNullDecimal(d),
	}
}

// ParseNumberField parses user input into a field.
func ParseNumberField(text string) NumberField {
	d, err := core.ParseAmount(text)
	if err != nil {
		return NumberField{Text: text, Err: err}
	}
	return NumberField{Text: text, Value: decimal.NewNullDecimal(d)}
}

// Valid reports whether the field holds a usable amount.
func (f NumberField) Valid() bool {
	return f.Value.Valid && f.Err == nil
}

// FieldError is one problem with one form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field problem found before a submit.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the problems as display strings, in field order.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Message
	}
	return out
}

// For returns the message for field, or "".
func (e *ValidationError) For(field string) string {
	for _, p := range e.Problems {
		if p.Field == field {
			return p.Message
		}
	}
	return ""
}

// amountProblem describes what is wrong with f, or "" when it can be sent.
// Loaded records are checked too, since they never went through parsing.
func amountProblem(label string, f NumberField) string {
	switch {
	case !f.Valid():
		return amountMessage(label, f.Err)
	case f.Value.Decimal.IsNegative():
		return amountMessage(label, core.ErrNegativeAmount)
	}
	return ""
}

func amountMessage(label string, err error) string {
	switch {
	case errors.Is(err, core.ErrNegativeAmount):
		return fmt.Sprintf("%s must not be negative", label)
	case err == nil:
		return fmt.Sprintf("%s is required", label)
	default:
		return fmt.Sprintf("%s must be a number", label)
	}
}
