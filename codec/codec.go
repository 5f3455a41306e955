/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package codec

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamode/dynamode/errors"
)

// Marshaler is the per-type encode hook. A model implementing it takes full
// control of its attribute mapping (enums, timestamps, renamed fields).
type Marshaler interface {
	MarshalRecord() (map[string]types.AttributeValue, error)
}

// Unmarshaler is the per-type decode hook, the counterpart of Marshaler.
// UnmarshalRecord is called with the stored item and must populate the
// receiver.
type Unmarshaler interface {
	UnmarshalRecord(item map[string]types.AttributeValue) error
}

// Encode converts a typed record into the store's attribute mapping. A
// Marshaler hook takes precedence; otherwise exported fields are mapped by
// reflection, honoring `dynamodbav` struct tags. Numbers travel as canonical
// decimal text and empty collections as absence, so Decode(Encode(r)) == r
// for every supported field type.
//
// A field whose runtime type has no attribute mapping fails with an
// errors.EncodeError wrapping errors.ErrUnsupportedType.
func Encode(rec any) (map[string]types.AttributeValue, error) {
	if m, ok := rec.(Marshaler); ok {
		item, err := m.MarshalRecord()
		if err != nil {
			return nil, errors.NewEncodeError(fmt.Sprintf("%T", rec), err)
		}
		return item, nil
	}

	// The attributevalue encoder silently drops fields it cannot map,
	// which would make encoding lossy instead of total.
	if field, ok := unsupportedField(reflect.TypeOf(rec)); ok {
		return nil, errors.NewEncodeError(fmt.Sprintf("%T", rec),
			fmt.Errorf("field %s: %w", field, errors.ErrUnsupportedType))
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, errors.NewEncodeError(fmt.Sprintf("%T", rec), err)
	}
	return item, nil
}

// Decode converts a stored attribute mapping back into a typed record. An
// Unmarshaler hook takes precedence; otherwise fields are populated by
// reflection. out must be a non-nil pointer.
//
// A stored variant that disagrees with the expected field type fails with an
// errors.DecodeError wrapping errors.ErrTypeMismatch.
func Decode(item map[string]types.AttributeValue, out any) error {
	if u, ok := out.(Unmarshaler); ok {
		if err := u.UnmarshalRecord(item); err != nil {
			return classifyDecode(err)
		}
		return nil
	}

	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return classifyDecode(err)
	}
	return nil
}

// DecodeRequired is Decode with presence checks: each named attribute must
// exist in the item, else the decode fails with errors.ErrMissingField.
// Callers pass the key attribute names of the model's descriptor.
func DecodeRequired(item map[string]types.AttributeValue, out any, required ...string) error {
	for _, name := range required {
		if _, ok := item[name]; !ok {
			return errors.NewMissingFieldError(name)
		}
	}
	return Decode(item, out)
}

// unsupportedField walks a record type and reports the first field whose
// type has no attribute mapping (channels, functions, complex numbers,
// unsafe pointers), by its attribute name.
func unsupportedField(t reflect.Type) (string, bool) {
	return findUnsupported(t, "", map[reflect.Type]bool{})
}

func findUnsupported(t reflect.Type, path string, seen map[reflect.Type]bool) (string, bool) {
	if t == nil {
		return "", false
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return path, true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return findUnsupported(t.Elem(), path, seen)
	case reflect.Map:
		if p, ok := findUnsupported(t.Key(), path, seen); ok {
			return p, true
		}
		return findUnsupported(t.Elem(), path, seen)
	case reflect.Struct:
		if seen[t] {
			return "", false
		}
		seen[t] = true
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, skip := attributeName(f)
			if skip {
				continue
			}
			if path != "" {
				name = path + "." + name
			}
			if p, ok := findUnsupported(f.Type, name, seen); ok {
				return p, true
			}
		}
	}
	return "", false
}

func attributeName(f reflect.StructField) (name string, skip bool) {
	tag := f.Tag.Get("dynamodbav")
	if tag == "-" {
		return "", true
	}
	if tag != "" {
		if n, _, _ := strings.Cut(tag, ","); n != "" {
			return n, false
		}
	}
	return f.Name, false
}

func classifyDecode(err error) error {
	var ute *attributevalue.UnmarshalTypeError
	if stderrors.As(err, &ute) {
		expected := ""
		if ute.Type != nil {
			expected = ute.Type.String()
		}
		return errors.NewTypeMismatchError("", expected, ute.Value, err)
	}
	if stderrors.Is(err, errors.ErrMissingField) || stderrors.Is(err, errors.ErrTypeMismatch) {
		return err
	}
	return errors.NewTypeMismatchError("", "", "", err)
}
