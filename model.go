/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package dynamode

// Default attribute names for the composite primary key. Models that use
// different names implement KeySchemer.
const (
	DefaultPartitionKey = "pk"
	DefaultSortKey      = "sk"
)

// Model is the contract a record type must satisfy to be persisted.
//
// TableName must be constant for the type. PrimaryKey must be pure and
// deterministic: derived only from the designated key fields, so identical
// record state always yields an identical Key.
type Model interface {
	// TableName returns the store table for this model type.
	TableName() string

	// PrimaryKey returns the composite primary key of this record.
	PrimaryKey() Key
}

// KeySchemer is implemented by models whose key attributes are not named
// "pk"/"sk". An empty sort name declares a partition-only table.
type KeySchemer interface {
	KeySchema() (partition, sort string)
}

// Descriptor captures where and how a model type is keyed. It is resolved
// once per type (see the registry package) and consulted on every operation.
type Descriptor struct {
	// Table is the store table name.
	Table string

	// PartitionKey is the partition key attribute name.
	PartitionKey string

	// SortKey is the sort key attribute name, empty if the table has no
	// sort key.
	SortKey string
}

// HasSortKey reports whether the table schema defines a sort key.
func (d Descriptor) HasSortKey() bool { return d.SortKey != "" }

// KeyAttributeNames returns the attribute names that make up the primary key.
func (d Descriptor) KeyAttributeNames() []string {
	if d.SortKey == "" {
		return []string{d.PartitionKey}
	}
	return []string{d.PartitionKey, d.SortKey}
}
