package symbol

import (
	"errors"
	"fmt"
)

// ErrNoExpiration is returned by ExpirationDate for futures-option symbols, whose
// expiration must be taken from the record that carries the symbol.
var ErrNoExpiration = errors.New("futures option symbol carries no expiration date")

// DecodeError reports a missing or malformed field in an option symbol.
type DecodeError struct {
	Symbol string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s of option symbol %q: %v", e.Field, e.Symbol, e.Err)
	}
	return fmt.Sprintf("decode %s of option symbol %q: missing or malformed", e.Field, e.Symbol)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnresolvedExchangeError is returned when a futures root has no exchange mapping.
type UnresolvedExchangeError struct {
	Symbol string
	Root   string
}

func (e *UnresolvedExchangeError) Error() string {
	return fmt.Sprintf("no exchange for futures root %q (symbol %q)", e.Root, e.Symbol)
}
