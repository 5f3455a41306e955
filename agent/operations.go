/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamode/dynamode"
	"github.com/dynamode/dynamode/codec"
	"github.com/dynamode/dynamode/errors"
	"github.com/dynamode/dynamode/registry"
)

// Put encodes a record and writes it with unconditional overwrite semantics:
// any existing item with the same key is replaced wholesale. When the agent
// carries a validator, `validate` struct tags are checked first.
func Put[M dynamode.Model](ctx context.Context, a *Agent, rec M) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.validate != nil {
		if err := a.validate.StructCtx(ctx, rec); err != nil {
			return fmt.Errorf("validate %T: %w: %w", rec, errors.ErrInvalidInput, err)
		}
	}

	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return err
	}
	item, err := codec.Encode(rec)
	if err != nil {
		return err
	}
	// Key attributes come from the model's key, not from whatever the
	// encoder produced, so renamed or hook-encoded fields cannot desync
	// the item from its identity.
	keyAttrs, err := rec.PrimaryKey().AttributeMap(d)
	if err != nil {
		return err
	}
	for name, av := range keyAttrs {
		item[name] = av
	}

	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.Table),
		Item:      item,
	})
	if err != nil {
		return wrapStore("put", d.Table, err)
	}

	a.log.Debug().Str("table", d.Table).Str("key", rec.PrimaryKey().String()).Msg("put")
	return nil
}

// Get fetches the item identified by key. An absent item is a normal empty
// result: (nil, nil), not an error. Stored data that does not decode to M
// surfaces as a DecodeError.
//
// Reads are strongly consistent so a caller observes its own prior Put.
func Get[M dynamode.Model](ctx context.Context, a *Agent, key dynamode.Key) (*M, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return nil, err
	}
	keyAttrs, err := key.AttributeMap(d)
	if err != nil {
		return nil, err
	}

	out, err := a.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.Table),
		Key:            keyAttrs,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, wrapStore("get", d.Table, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec M
	if err := codec.DecodeRequired(out.Item, &rec, d.KeyAttributeNames()...); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update applies a set of attribute assignments to the item identified by
// key. The operation requires the item to exist: updating a missing key
// fails with errors.ErrItemNotFound rather than creating the item. Callers
// that want upsert semantics use Put.
//
// Key attributes cannot be reassigned; naming one fails with
// errors.ErrInvalidInput.
func Update[M dynamode.Model](ctx context.Context, a *Agent, key dynamode.Key, updates map[string]any) error {
	if err := a.ready(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return fmt.Errorf("update: empty assignment set: %w", errors.ErrInvalidInput)
	}
	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return err
	}
	keyAttrs, err := key.AttributeMap(d)
	if err != nil {
		return err
	}

	var upd expression.UpdateBuilder
	for name, value := range updates {
		if name == d.PartitionKey || name == d.SortKey {
			return fmt.Errorf("update: key attribute %q cannot be assigned: %w", name, errors.ErrInvalidInput)
		}
		upd = upd.Set(expression.Name(name), expression.Value(value))
	}
	cond := expression.AttributeExists(expression.Name(d.PartitionKey))

	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("update: build expression: %w", err)
	}

	_, err = a.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.Table),
		Key:                       keyAttrs,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condErr) {
			return fmt.Errorf("update %s %s: %w", d.Table, key.String(), errors.ErrItemNotFound)
		}
		return wrapStore("update", d.Table, err)
	}

	a.log.Debug().Str("table", d.Table).Str("key", key.String()).Int("fields", len(updates)).Msg("update")
	return nil
}

// Delete removes the item identified by key. Deleting a non-existent key is
// a no-op success.
func Delete[M dynamode.Model](ctx context.Context, a *Agent, key dynamode.Key) error {
	if err := a.ready(); err != nil {
		return err
	}
	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return err
	}
	keyAttrs, err := key.AttributeMap(d)
	if err != nil {
		return err
	}

	_, err = a.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.Table),
		Key:       keyAttrs,
	})
	if err != nil {
		return wrapStore("delete", d.Table, err)
	}

	a.log.Debug().Str("table", d.Table).Str("key", key.String()).Msg("delete")
	return nil
}
