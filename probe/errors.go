package probe

import (
	"errors"
	"fmt"
)

// ErrURLRequired is returned when the request carries no URL. No network
// activity happens in that case.
var ErrURLRequired = errors.New("URL is required")

// ReasonNoTools is the NotReady reason used when the remote catalog has no
// tools collection.
const ReasonNoTools = "No tools available"

// URLError reports a URL that is not an absolute http(s) URL.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *URLError) Unwrap() error { return e.Err }

// ConnectError is the failure of the last transport attempt. Earlier attempts
// that failed were absorbed by the fallback.
type ConnectError struct {
	Transport TransportKind
	Err       error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect via %s: %v", e.Transport, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// CatalogError is a tools/list failure on an established session.
type CatalogError struct {
	Transport TransportKind
	Err       error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("list tools via %s: %v", e.Transport, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// CloseError is a failure releasing a session after the catalog was read.
type CloseError struct {
	Transport TransportKind
	Err       error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close %s session: %v", e.Transport, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }

// Outcome classifies a finished probe for logs and metrics.
type Outcome string

const (
	OutcomeReady        Outcome = "ready"
	OutcomeNotReady     Outcome = "not_ready"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeConnectError Outcome = "connect_error"
	OutcomeCatalogError Outcome = "catalog_error"
	OutcomeCloseError   Outcome = "close_error"
	OutcomeError        Outcome = "error"
)

// OutcomeOf classifies a probe result and error.
func OutcomeOf(res Result, err error) Outcome {
	var (
		urlErr     *URLError
		connectErr *ConnectError
		catalogErr *CatalogError
		closeErr   *CloseError
	)
	switch {
	case err == nil && res.Ready:
		return OutcomeReady
	case err == nil:
		return OutcomeNotReady
	case errors.Is(err, ErrURLRequired), errors.As(err, &urlErr):
		return OutcomeInvalid
	case errors.As(err, &connectErr):
		return OutcomeConnectError
	case errors.As(err, &catalogErr):
		return OutcomeCatalogError
	case errors.As(err, &closeErr):
		return OutcomeCloseError
	default:
		return OutcomeError
	}
}
