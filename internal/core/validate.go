package core

import "fmt"

// ValidationError reports a local input problem that blocks submission
// before any network call is attempted.
type ValidationError struct {
	Field   string
	Line    int // 1-based line index, 0 for header-level problems
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateLines checks every line and returns all problems found, not just
// the first. Quantities and prices must be non-negative; negative values are
// reported, never clamped.
func ValidateLines(lines []Line) []error {
	var errs []error
	for i, l := range lines {
		n := i + 1
		if l.ItemCode == "" {
			errs = append(errs, &ValidationError{Field: "itemCode", Line: n, Message: "must not be empty"})
		}
		if l.Quantity.IsNegative() {
			errs = append(errs, &ValidationError{Field: "quantity", Line: n, Message: "must not be negative"})
		}
		if l.UnitPrice.IsNegative() {
			errs = append(errs, &ValidationError{Field: "unitPrice", Line: n, Message: "must not be negative"})
		}
	}
	return errs
}

// ValidateDraft checks a new order before it is shaped for the Service Layer.
func ValidateDraft(d DraftOrder) []error {
	var errs []error
	if d.CardCode == "" {
		errs = append(errs, &ValidationError{Field: "cardCode", Message: "customer is required"})
	}
	if len(d.Lines) == 0 {
		errs = append(errs, &ValidationError{Field: "lines", Message: "order must have at least one line"})
	}
	errs = append(errs, ValidateLines(d.Lines)...)
	return errs
}
