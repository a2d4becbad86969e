package utils

import (
	"errors"
	"fmt"
)

// Input problems abort a contact before any network I/O happens.
var (
	ErrInsufficientInput = errors.New("insufficient input")
	ErrDomainExtraction  = errors.New("domain extraction failed")
	ErrURLParse          = errors.New("invalid URL")
)

// NoMailServerError means the domain has neither MX nor A records: it accepts
// no mail at all. Hint carries an optional whois-derived explanation.
type NoMailServerError struct {
	Domain string
	Hint   string
}

func (e *NoMailServerError) Error() string {
	msg := fmt.Sprintf("no mail server found for %s (no MX or A records)", e.Domain)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// ResolutionError means the resolver itself failed (timeout, SERVFAIL); it is
// deliberately distinct from NoMailServerError so callers can tell "domain
// accepts no mail" from "resolver was unreachable".
type ResolutionError struct {
	Domain string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("DNS resolution failed for %s: %v", e.Domain, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
