/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/dynamode/dynamode"
	"github.com/dynamode/dynamode/errors"
)

var (
	descriptors = make(map[reflect.Type]dynamode.Descriptor)
	mu          sync.RWMutex
)

// Register associates model type M with an explicit descriptor, overriding
// derivation. Needed only for types whose zero value cannot answer
// TableName/PrimaryKey (pointer-receiver models, interface-typed fields).
func Register[M dynamode.Model](d dynamode.Descriptor) {
	var zero M
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	descriptors[t] = d
}

// DescriptorFor resolves the table descriptor for model type M, deriving and
// caching it on first use. Derivation calls TableName, KeySchema (when
// implemented) and PrimaryKey on M's zero value; the sort key is considered
// present iff the zero value's key carries a sort component.
//
// Resolution is safe for concurrent callers. A race that derives two
// descriptors for the same type is harmless since they are value-equal.
func DescriptorFor[M dynamode.Model]() (dynamode.Descriptor, error) {
	var zero M
	t := reflect.TypeOf(zero)

	mu.RLock()
	d, ok := descriptors[t]
	mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := derive(zero)
	if err != nil {
		return dynamode.Descriptor{}, err
	}

	mu.Lock()
	// First writer wins so every caller observes one descriptor value.
	if existing, ok := descriptors[t]; ok {
		d = existing
	} else {
		descriptors[t] = d
	}
	mu.Unlock()

	return d, nil
}

func derive(m dynamode.Model) (dynamode.Descriptor, error) {
	table := m.TableName()
	if table == "" {
		return dynamode.Descriptor{}, fmt.Errorf("model %T has empty table name: %w", m, errors.ErrInvalidInput)
	}

	partition, sort := dynamode.DefaultPartitionKey, dynamode.DefaultSortKey
	if ks, ok := m.(dynamode.KeySchemer); ok {
		partition, sort = ks.KeySchema()
		if partition == "" {
			return dynamode.Descriptor{}, fmt.Errorf("model %T declares empty partition key name: %w", m, errors.ErrInvalidInput)
		}
	}
	if !m.PrimaryKey().HasSort() {
		sort = ""
	}

	return dynamode.Descriptor{Table: table, PartitionKey: partition, SortKey: sort}, nil
}
