/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package dynamode

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamode/dynamode/codec"
	"github.com/dynamode/dynamode/errors"
)

// Key is a composite primary key: a partition value and an optional sort
// value. Both components must be key-legal scalars (string, number or
// binary). Keys are the identity for single-item get/update/delete.
type Key struct {
	// Partition is the partition key value. Always present.
	Partition types.AttributeValue

	// Sort is the sort key value, nil iff the table has no sort key.
	Sort types.AttributeValue
}

// NewKey builds a Key from raw attribute values. Pass nil sort for
// partition-only tables.
func NewKey(partition, sort types.AttributeValue) Key {
	return Key{Partition: partition, Sort: sort}
}

// StringKey builds a Key from string components, the common case for
// "pk"/"sk" style tables. At most one sort component is used.
func StringKey(partition string, sort ...string) Key {
	k := Key{Partition: codec.String(partition)}
	if len(sort) > 0 {
		k.Sort = codec.String(sort[0])
	}
	return k
}

// HasSort reports whether the key carries a sort component.
func (k Key) HasSort() bool { return k.Sort != nil }

// Equal reports whether two keys identify the same item. Keys are equal iff
// both components compare equal as scalars.
func (k Key) Equal(other Key) bool {
	if !codec.ScalarEqual(k.Partition, other.Partition) {
		return false
	}
	if (k.Sort == nil) != (other.Sort == nil) {
		return false
	}
	if k.Sort == nil {
		return true
	}
	return codec.ScalarEqual(k.Sort, other.Sort)
}

// String returns a diagnostic text form of the key for log fields and error
// messages: the components' canonical text joined by a unit separator. It is
// not an injective encoding; component values containing the separator can
// collide. Use Equal for identity comparisons.
func (k Key) String() string {
	p, _ := codec.ScalarString(k.Partition)
	if k.Sort == nil {
		return p
	}
	s, _ := codec.ScalarString(k.Sort)
	return p + "\x1f" + s
}

// AttributeMap builds the key payload of a get/update/delete request against
// the given descriptor. It fails with errors.ErrInvalidKey when the
// partition value is absent or not a key-legal scalar, or when the presence
// of the sort component disagrees with the table schema.
func (k Key) AttributeMap(d Descriptor) (map[string]types.AttributeValue, error) {
	if k.Partition == nil {
		return nil, fmt.Errorf("table %s: missing partition value: %w", d.Table, errors.ErrInvalidKey)
	}
	if !codec.IsKeyScalar(k.Partition) {
		return nil, fmt.Errorf("table %s: partition value must be S, N or B: %w", d.Table, errors.ErrInvalidKey)
	}
	if d.HasSortKey() != k.HasSort() {
		if d.HasSortKey() {
			return nil, fmt.Errorf("table %s: schema defines sort key %q but key has no sort value: %w", d.Table, d.SortKey, errors.ErrInvalidKey)
		}
		return nil, fmt.Errorf("table %s: key has sort value but schema defines none: %w", d.Table, errors.ErrInvalidKey)
	}

	m := map[string]types.AttributeValue{d.PartitionKey: k.Partition}
	if k.HasSort() {
		if !codec.IsKeyScalar(k.Sort) {
			return nil, fmt.Errorf("table %s: sort value must be S, N or B: %w", d.Table, errors.ErrInvalidKey)
		}
		m[d.SortKey] = k.Sort
	}
	return m, nil
}
