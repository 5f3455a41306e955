/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package codec

import (
	"bytes"
	"encoding/base64"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Constructors for the key-legal scalar variants. Numbers are rendered in
// their canonical decimal text form, the same form the attribute value
// encoder produces, so values built here compare equal to encoded fields.

// String returns an S attribute value.
func String(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

// Int returns an N attribute value holding a decimal integer.
func Int(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

// Float returns an N attribute value holding the shortest decimal text that
// round-trips the exact float64 input.
func Float(f float64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Binary returns a B attribute value.
func Binary(b []byte) types.AttributeValue {
	return &types.AttributeValueMemberB{Value: b}
}

// Bool returns a BOOL attribute value.
func Bool(v bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: v}
}

// Null returns the NULL attribute value.
func Null() types.AttributeValue {
	return &types.AttributeValueMemberNULL{Value: true}
}

// IsKeyScalar reports whether an attribute value is one of the variants the
// store accepts in a primary key: S, N or B.
func IsKeyScalar(av types.AttributeValue) bool {
	switch av.(type) {
	case *types.AttributeValueMemberS, *types.AttributeValueMemberN, *types.AttributeValueMemberB:
		return true
	}
	return false
}

// ScalarEqual reports value equality for key-legal scalars. Numbers compare
// by their canonical decimal text, binaries byte-wise. Non-scalar or
// mixed-variant operands are never equal.
func ScalarEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberB:
		bv, ok := b.(*types.AttributeValueMemberB)
		return ok && bytes.Equal(av.Value, bv.Value)
	}
	return false
}

// ScalarString returns the canonical text form of a key-legal scalar and
// whether the value was one. Binary values render as base64.
func ScalarString(av types.AttributeValue) (string, bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, true
	case *types.AttributeValueMemberN:
		return v.Value, true
	case *types.AttributeValueMemberB:
		return base64.StdEncoding.EncodeToString(v.Value), true
	}
	return "", false
}
