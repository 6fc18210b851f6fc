package transaction

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	maxLookbackYears  = 10
	maxLookaheadYears = 1
)

var (
	validate = validator.New()
	timeNow  = time.Now
)

// Validate checks the query invariants against the current time
func (q Query) Validate() error {
	return q.ValidateAt(timeNow())
}

// ValidateAt checks the query invariants relative to now:
// from <= to, from no more than 10 years back, to no more than 1 year ahead,
// page >= 1 and 1 <= pageSize <= 100.
func (q Query) ValidateAt(now time.Time) error {
	if q.From.IsZero() {
		return &ValidationError{Field: "from", Message: "from date is required"}
	}
	if q.To.IsZero() {
		return &ValidationError{Field: "to", Message: "to date is required"}
	}
	if q.From.After(q.To) {
		return &ValidationError{Field: "from", Message: "from must not be after to"}
	}
	if q.From.Before(now.AddDate(-maxLookbackYears, 0, 0)) {
		return &ValidationError{Field: "from", Message: "from cannot be more than 10 years in the past"}
	}
	if q.To.After(now.AddDate(maxLookaheadYears, 0, 0)) {
		return &ValidationError{Field: "to", Message: "to cannot be more than 1 year in the future"}
	}

	if err := validate.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return &ValidationError{Field: "query", Message: err.Error()}
	}

	return nil
}

func fieldError(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case "Page":
		return &ValidationError{Field: "page", Message: "page must be greater than or equal to 1"}
	case "PageSize":
		return &ValidationError{Field: "pageSize", Message: "pageSize must be between 1 and 100"}
	default:
		return &ValidationError{Field: fe.Field(), Message: "invalid value"}
	}
}
