/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/dynamode/dynamode/errors"
)

// StoreClient is the subset of the store's API the agent consumes. It
// mirrors the method signatures of the AWS SDK v2 DynamoDB client, so the
// real client satisfies it directly and tests substitute in-memory fakes.
//
// The transport behind this interface owns connection management, credential
// resolution and retry policy; the agent passes its failures through tagged
// (see errors.StoreError) but never reinterprets or retries them.
type StoreClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ StoreClient = (*dynamodb.Client)(nil)

// classifyStore maps a store client failure to its broad kind.
func classifyStore(err error) errors.StoreKind {
	var (
		notFound   *types.ResourceNotFoundException
		inUse      *types.ResourceInUseException
		throughput *types.ProvisionedThroughputExceededException
		reqLimit   *types.RequestLimitExceeded
	)
	switch {
	case stderrors.As(err, &notFound):
		return errors.KindNotFound
	case stderrors.As(err, &inUse):
		return errors.KindResourceInUse
	case stderrors.As(err, &throughput), stderrors.As(err, &reqLimit):
		return errors.KindThrottled
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException":
			return errors.KindThrottled
		case "ValidationException":
			return errors.KindValidation
		default:
			return errors.KindUnknown
		}
	}

	// No service-level envelope: the request never completed.
	return errors.KindConnectivity
}

// wrapStore tags a store client error with operation and table. nil passes
// through.
func wrapStore(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return errors.NewStoreError(op, table, classifyStore(err), err)
}
