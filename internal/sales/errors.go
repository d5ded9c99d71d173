package sales

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("sale not found")

// ErrEmptyID is returned when trying to read or cancel a sale with an empty ID.
var ErrEmptyID = errors.New("empty sale ID")

// ErrDomainRule marks an invariant breach inside the aggregate. It points at a
// defect upstream and is not something the caller can correct.
var ErrDomainRule = errors.New("domain rule violation")

// ErrAlreadyCancelled is returned when cancelling a sale twice.
var ErrAlreadyCancelled = fmt.Errorf("%w: sale is already cancelled", ErrDomainRule)

// ErrQuantityOutOfRange is returned when a discount is computed for a quantity
// outside 1..20.
var ErrQuantityOutOfRange = fmt.Errorf("%w: item quantity must be between %d and %d", ErrDomainRule, MinItemQuantity, MaxItemQuantity)

// FieldError is a single violated rule, keyed by field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field violation found on a command.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidationError reports whether err wraps a *ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
