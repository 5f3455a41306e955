/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamode/dynamode"
	"github.com/dynamode/dynamode/errors"
	"github.com/dynamode/dynamode/registry"
)

// EnsureTable verifies that M's table exists, creating it on demand and
// waiting until it is active. The result is cached per table name on the
// agent, so repeated calls after the first are cheap. Concurrent callers for
// the same table all succeed: a creation race surfaces as ResourceInUse and
// is folded into the wait.
func EnsureTable[M dynamode.Model](ctx context.Context, a *Agent) error {
	if err := a.ready(); err != nil {
		return err
	}
	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return err
	}
	if _, ok := a.tables.Load(d.Table); ok {
		return nil
	}

	out, err := a.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.Table),
	})
	switch {
	case err == nil:
		// The table may exist without being usable yet: another caller,
		// another process or a prior interrupted provisioning attempt can
		// leave it in CREATING.
		if out.Table == nil || out.Table.TableStatus != types.TableStatusActive {
			if err := a.waitTableActive(ctx, d.Table); err != nil {
				return err
			}
		}
		a.tables.Store(d.Table, struct{}{})
		return nil
	case classifyStore(err) != errors.KindNotFound:
		return wrapStore("ensure-table", d.Table, err)
	}

	if err := createTable[M](ctx, a, d); err != nil {
		return err
	}
	if err := a.waitTableActive(ctx, d.Table); err != nil {
		return err
	}

	a.tables.Store(d.Table, struct{}{})
	a.log.Debug().Str("table", d.Table).Msg("table provisioned")
	return nil
}

func createTable[M dynamode.Model](ctx context.Context, a *Agent, d dynamode.Descriptor) error {
	var zero M
	key := zero.PrimaryKey()

	schema := []types.KeySchemaElement{{
		AttributeName: aws.String(d.PartitionKey),
		KeyType:       types.KeyTypeHash,
	}}
	defs := []types.AttributeDefinition{{
		AttributeName: aws.String(d.PartitionKey),
		AttributeType: scalarTypeOf(key.Partition),
	}}
	if d.HasSortKey() {
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(d.SortKey),
			KeyType:       types.KeyTypeRange,
		})
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(d.SortKey),
			AttributeType: scalarTypeOf(key.Sort),
		})
	}

	_, err := a.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(d.Table),
		KeySchema:            schema,
		AttributeDefinitions: defs,
		BillingMode:          types.BillingModePayPerRequest,
	})
	if err != nil {
		// A concurrent creator got there first; the wait below settles it.
		if classifyStore(err) == errors.KindResourceInUse {
			return nil
		}
		return wrapStore("create-table", d.Table, err)
	}
	return nil
}

// scalarTypeOf maps a key attribute value to its schema scalar type. A nil
// member (zero-value models with no meaningful key yet) defaults to string,
// the dominant key shape.
func scalarTypeOf(av types.AttributeValue) types.ScalarAttributeType {
	switch av.(type) {
	case *types.AttributeValueMemberN:
		return types.ScalarAttributeTypeN
	case *types.AttributeValueMemberB:
		return types.ScalarAttributeTypeB
	default:
		return types.ScalarAttributeTypeS
	}
}

// waitTableActive polls until the table reports active, bounded by the
// configured timeout.
func (a *Agent) waitTableActive(ctx context.Context, table string) error {
	deadline := time.Now().Add(a.cfg.TableWaitTimeout)
	ticker := time.NewTicker(a.cfg.TableWaitInterval)
	defer ticker.Stop()

	for {
		out, err := a.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})
		if err == nil && out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}
		if err != nil && classifyStore(err) != errors.KindNotFound {
			return wrapStore("ensure-table", table, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("table %s not active after %s: %w",
				table, a.cfg.TableWaitTimeout, errors.ErrProvisioningTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("table %s wait: %w", table, ctx.Err())
		case <-ticker.C:
		}
	}
}
