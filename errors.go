package folio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSellExceedsPosition is returned when a SELL would leave a negative share balance.
	ErrSellExceedsPosition = errors.New("sell exceeds position")
	// ErrInsufficientCash is returned when a cash mirror would overdraw the cash balance.
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrNotConverged is returned when the XIRR iteration budget is exhausted.
	ErrNotConverged = errors.New("xirr did not converge")
	// ErrNoSolution is returned when the XIRR iteration hits a non-finite value or a flat derivative.
	ErrNoSolution = errors.New("xirr has no solution")
	// ErrInsufficientData is returned when there is not enough data to produce a value.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoScope is returned when a signal without scope is encoded or stored.
	ErrNoScope = errors.New("signal has no scope")
)

// ValidationError reports a malformed input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError lists identifiers that do not exist.
type NotFoundError struct {
	Kind string
	IDs  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Kind, strings.Join(e.IDs, ", "))
}

// InvariantError reports an operation that would break a ledger invariant.
type InvariantError struct {
	Code string
	Err  error
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Code, e.Err, e.Msg)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// IsRejection reports whether err is an expected business rejection rather than a fault.
func IsRejection(err error) bool {
	var (
		v *ValidationError
		n *NotFoundError
		i *InvariantError
	)
	return errors.As(err, &v) || errors.As(err, &n) || errors.As(err, &i)
}
