package shop

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedRecordError marks a source record missing mandatory fields or
// carrying an unparseable price. Callers skip the record and keep the
// batch alive.
type MalformedRecordError struct {
	ShopID string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("shop %s: malformed record: field %q %s", e.ShopID, e.Field, e.Reason)
}

// RateLimitedError is returned only in non-blocking mode, when a shop's
// token bucket has no token available.
type RateLimitedError struct {
	ShopID string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("shop %s: rate limited", e.ShopID)
}

// ShopUnavailableError wraps a timeout or connection failure for one
// shop. The fan-out proceeds with the remaining shops.
type ShopUnavailableError struct {
	ShopID string
	Err    error
}

func (e *ShopUnavailableError) Error() string {
	return fmt.Sprintf("shop %s unavailable: %v", e.ShopID, e.Err)
}

func (e *ShopUnavailableError) Unwrap() error { return e.Err }

// UnknownCurrencyError marks a listing whose currency has no exchange
// rate. The listing is excluded from cost ranking but may still be shown.
type UnknownCurrencyError struct {
	Currency string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("no exchange rate for currency %q", e.Currency)
}

// InfeasibleAssemblyError names the categories that have no viable
// candidate, blocking every assembly kind.
type InfeasibleAssemblyError struct {
	Categories []string
}

func (e *InfeasibleAssemblyError) Error() string {
	return fmt.Sprintf("no in-stock candidates for: %s", strings.Join(e.Categories, ", "))
}

// IsMalformed reports whether err is a MalformedRecordError.
func IsMalformed(err error) bool {
	var m *MalformedRecordError
	return errors.As(err, &m)
}
