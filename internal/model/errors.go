// Package model defines the engine's domain types and the sentinel
// error taxonomy shared by the booking services, repositories and
// HTTP handlers.  Handlers translate these values into stable HTTP
// codes so clients can tell "retry" apart from "never retry":
// capacity and terminal-state conflicts map to 409, authorization
// failures to 403, validation failures to 400 and missing resources
// to 404.
package model

import "errors"

// ErrInvalidInterval is returned for malformed or past-dated
// reservation intervals (end <= start, or start before today).
var ErrInvalidInterval = errors.New("invalid interval")

// ErrUnitNotFound is returned when the inventory unit does not
// exist, is inactive, or belongs to a suspended vendor.
var ErrUnitNotFound = errors.New("inventory unit not found")

// ErrCapacityExceeded is the contention-loss error: the requested
// quantity no longer fits once overlapping active reservations are
// counted.  Callers may retry with a fresh availability search.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrAlreadyTerminal guards terminal reservations against further
// transitions.  The expiry sweeper treats it as benign; external
// callers see it as a 409 conflict.
var ErrAlreadyTerminal = errors.New("reservation already in terminal state")

// ErrReservationNotFound is returned when no reservation exists for
// the given identifier.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNoGrant is returned by context issuance when the user holds no
// role grant for the requested vendor.
var ErrNoGrant = errors.New("no role grant for vendor")

// ErrVendorNotActive is returned when switching context into, or
// reserving from, a vendor that is not in ACTIVE status.
var ErrVendorNotActive = errors.New("vendor is not active")

// ErrForbidden is returned when a context token lacks the required
// capability or targets a different vendor.  Never retried.
var ErrForbidden = errors.New("forbidden")

// ErrValidation covers request-shape failures such as a blank
// rejection reason or a missing price entry for a covered day.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when a mutation cannot proceed because of
// dependent state, e.g. deleting a unit that still has non-terminal
// reservations.
var ErrConflict = errors.New("conflict")
