package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrOriginUnreachable   = errors.New("origin unreachable")
	ErrIdentityNotResolved = errors.New("identity not resolved")
	ErrRecordUnavailable   = errors.New("record unavailable")
	ErrDataIntegrity       = errors.New("data integrity violation")
)

// OriginConnectionError is a network-level failure reaching an origin endpoint.
// StatusCode is zero when the request never produced a response.
type OriginConnectionError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *OriginConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("origin %s unreachable: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("origin %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *OriginConnectionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrOriginUnreachable
}

func (e *OriginConnectionError) Is(target error) bool {
	return target == ErrOriginUnreachable
}

// Reasons an identity failed to resolve to an origin endpoint.
const (
	IdentityReasonInvalidFormat     = "invalid_format"
	IdentityReasonUnsupportedScheme = "unsupported_scheme"
	IdentityReasonNotFound          = "not_found"
	IdentityReasonNetwork           = "network_error"
	IdentityReasonNoOriginService   = "no_origin_service"
)

type IdentityResolutionError struct {
	Identity string
	Reason   string
	Err      error
}

func (e *IdentityResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.Identity, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.Identity, e.Reason)
}

func (e *IdentityResolutionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrIdentityNotResolved
}

func (e *IdentityResolutionError) Is(target error) bool {
	return target == ErrIdentityNotResolved
}

// Reasons a record could not be fetched from its origin.
const (
	RecordReasonNotFound    = "not_found"
	RecordReasonOriginError = "origin_error"
	RecordReasonNetwork     = "network_error"
	RecordReasonMalformed   = "malformed_response"
)

type RecordFetchError struct {
	URI    string
	Reason string
	Err    error
}

func (e *RecordFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URI, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URI, e.Reason)
}

func (e *RecordFetchError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrRecordUnavailable
}

func (e *RecordFetchError) Is(target error) bool {
	return target == ErrRecordUnavailable
}

// DataIntegrityError reports a broken internal invariant, such as a version
// chain that cycles past its traversal cap or a record missing from its own
// resolved chain. These indicate index corruption and are never swallowed.
type DataIntegrityError struct {
	URI    string
	Detail string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s: %s", e.URI, e.Detail)
}

func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}
