package shopping

import (
	"errors"
	"fmt"
)

var (
	ErrNoRecipesSelected = errors.New("select at least one recipe")
	ErrEmptyList         = errors.New("cannot save an empty shopping list")
	ErrItemNotFound      = errors.New("shopping list item not found")
	ErrSuperseded        = errors.New("a newer generate request replaced this one")
	ErrNothingToImport   = errors.New("no checklist items found")
)

// TransportError reports a failed call to the backend: the network was
// unreachable or the response status was not 2xx.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ShapeError reports a backend response that does not have the expected
// fields or types.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Field == "" {
		return "invalid response: " + e.Reason
	}
	return fmt.Sprintf("invalid response: %s %s", e.Field, e.Reason)
}

func transportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	var se *ShapeError
	if errors.As(err, &te) || errors.As(err, &se) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is a backend transport failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsShape reports whether err is a malformed backend response
func IsShape(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}
