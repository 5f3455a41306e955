/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotConnected is returned when an operation is attempted on an
	// agent that is not in the Ready state
	ErrNotConnected = errors.New("agent not connected")

	// ErrItemNotFound is returned when a targeted update finds no item
	ErrItemNotFound = errors.New("item not found")

	// ErrUnsupportedType is returned when a record field has no attribute
	// value mapping
	ErrUnsupportedType = errors.New("unsupported field type")

	// ErrMissingField is returned when a required attribute is absent from
	// stored data
	ErrMissingField = errors.New("missing field")

	// ErrTypeMismatch is returned when a stored attribute variant disagrees
	// with the expected field type
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidKey is returned when a key is malformed for its table schema
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvisioningTimeout is returned when a created table does not reach
	// ACTIVE status within the provisioning budget
	ErrProvisioningTimeout = errors.New("table provisioning timed out")

	// ErrStore is the class of all errors passed through from the store client
	ErrStore = errors.New("store error")
)

// EncodeError reports that a record could not be serialized to an attribute
// mapping.
type EncodeError struct {
	// Type is the Go type of the record being encoded.
	Type string
	// Cause is the underlying serialization failure.
	Cause error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Type, e.Cause)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

func (e *EncodeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// DecodeError reports that stored data does not match the expected record
// shape.
type DecodeError struct {
	// Field is the attribute name, when known.
	Field string
	// Expected is the expected Go type.
	Expected string
	// Actual describes the stored attribute variant.
	Actual string
	// Missing is true when a required attribute was absent.
	Missing bool
	// Cause is the underlying deserialization failure, if any.
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Missing {
		return fmt.Sprintf("decode: required attribute %q is absent", e.Field)
	}
	if e.Expected != "" || e.Actual != "" {
		return fmt.Sprintf("decode %q: stored %s does not match expected %s", e.Field, e.Actual, e.Expected)
	}
	return fmt.Sprintf("decode %q: %v", e.Field, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func (e *DecodeError) Is(target error) bool {
	if e.Missing {
		return target == ErrMissingField
	}
	return target == ErrTypeMismatch
}

// Helper functions for creating errors

// NewEncodeError creates a new EncodeError
func NewEncodeError(goType string, cause error) error {
	return &EncodeError{Type: goType, Cause: cause}
}

// NewMissingFieldError creates a DecodeError for an absent required attribute
func NewMissingFieldError(field string) error {
	return &DecodeError{Field: field, Missing: true}
}

// NewTypeMismatchError creates a DecodeError for a variant disagreement
func NewTypeMismatchError(field, expected, actual string, cause error) error {
	return &DecodeError{Field: field, Expected: expected, Actual: actual, Cause: cause}
}

// IsItemNotFound checks if an error reports a missing target item
func IsItemNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsDecodeError checks if an error is any decode failure
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrMissingField) || errors.Is(err, ErrTypeMismatch)
}

// IsEncodeError checks if an error is an encode failure
func IsEncodeError(err error) bool {
	return errors.Is(err, ErrUnsupportedType)
}

// IsNotConnected checks if an error reports a non-Ready agent
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsProvisioningTimeout checks if an error reports an exhausted table wait
func IsProvisioningTimeout(err error) bool {
	return errors.Is(err, ErrProvisioningTimeout)
}
