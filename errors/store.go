/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// StoreKind tags a store client failure by its broad class. The agent tags
// but never reinterprets: the original error stays reachable via Unwrap.
type StoreKind string

const (
	// KindThrottled marks throughput or request-rate rejections.
	KindThrottled StoreKind = "throttled"
	// KindValidation marks requests the store rejected as malformed.
	KindValidation StoreKind = "validation"
	// KindNotFound marks missing table or resource errors.
	KindNotFound StoreKind = "not_found"
	// KindResourceInUse marks create/modify races on a resource.
	KindResourceInUse StoreKind = "resource_in_use"
	// KindConnectivity marks transport-level failures.
	KindConnectivity StoreKind = "connectivity"
	// KindUnknown marks everything else.
	KindUnknown StoreKind = "unknown"
)

// StoreError wraps a store client failure with the operation and table it
// occurred on.
type StoreError struct {
	// Op is the agent operation ("put", "query", ...).
	Op string
	// Table is the table the request targeted.
	Table string
	// Kind classifies the failure.
	Kind StoreKind
	// Err is the store client's original error.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError creates a new StoreError
func NewStoreError(op, table string, kind StoreKind, err error) error {
	return &StoreError{Op: op, Table: table, Kind: kind, Err: err}
}

// IsStore checks if an error originated in the store client
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// StoreKindOf extracts the classification of a store error, if any
func StoreKindOf(err error) (StoreKind, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// IsStoreKind checks if an error is a store error of the given kind
func IsStoreKind(err error, kind StoreKind) bool {
	k, ok := StoreKindOf(err)
	return ok && k == kind
}
