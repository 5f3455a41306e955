/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamode/dynamode"
	"github.com/dynamode/dynamode/codec"
	"github.com/dynamode/dynamode/registry"
)

// Result carries one streamed record or the error that ended the stream.
// After an error result the channel closes; items already delivered stand.
type Result[M dynamode.Model] struct {
	Item M
	Err  error
}

// Stream is an incremental read: a background worker follows pagination
// tokens and delivers decoded records over a buffered channel. Consumers
// range over Results or use Collect; Close releases the worker early.
type Stream[M dynamode.Model] struct {
	results chan Result[M]
	cancel  context.CancelFunc
	once    sync.Once
}

// Results returns the receive channel. It closes when the stream is
// exhausted, fails or is closed.
func (s *Stream[M]) Results() <-chan Result[M] { return s.results }

// Collect drains the stream into a slice. On failure it returns the records
// received before the error together with that error.
func (s *Stream[M]) Collect() ([]M, error) {
	var items []M
	for r := range s.results {
		if r.Err != nil {
			return items, r.Err
		}
		items = append(items, r.Item)
	}
	return items, nil
}

// Close stops the background worker and drains the channel. Safe to call
// multiple times and concurrently with consumption.
func (s *Stream[M]) Close() {
	s.once.Do(func() {
		s.cancel()
		go func() {
			for range s.results {
			}
		}()
	})
}

// streamSettings collects per-stream knobs.
type streamSettings struct {
	pageSize   int32
	buffer     int
	filter     *expression.ConditionBuilder
	sorts      []SortCondition
	descending bool
}

// StreamOption customizes a Query or Scan stream.
type StreamOption func(*streamSettings)

// WithPageSize bounds how many items one page request may return.
func WithPageSize(n int32) StreamOption {
	return func(s *streamSettings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithBuffer sets the result channel capacity.
func WithBuffer(n int) StreamOption {
	return func(s *streamSettings) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithFilter applies a server-side filter expression to each page. Filtered
// rows still consume read capacity but never reach the stream.
func WithFilter(cond expression.ConditionBuilder) StreamOption {
	return func(s *streamSettings) { s.filter = &cond }
}

// WithDescending reverses sort key order on Query streams. Scan ignores it.
func WithDescending() StreamOption {
	return func(s *streamSettings) { s.descending = true }
}

// WithSort narrows a Query to part of the partition's sort range. Multiple
// conditions combine with AND. Scan ignores it.
func WithSort(sc SortCondition) StreamOption {
	return func(s *streamSettings) { s.sorts = append(s.sorts, sc) }
}

func newStreamSettings(opts []StreamOption) streamSettings {
	s := streamSettings{
		pageSize: defaultStreamPageCap,
		buffer:   defaultStreamBuffer,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// SortCondition narrows a query to part of a partition's sort range. The
// function receives the model's sort key attribute name.
type SortCondition func(sortName string) expression.KeyConditionBuilder

// SortEqual matches exactly one sort key value.
func SortEqual(v any) SortCondition {
	return func(name string) expression.KeyConditionBuilder {
		return expression.Key(name).Equal(expression.Value(v))
	}
}

// SortBeginsWith matches sort keys with the given string prefix.
func SortBeginsWith(prefix string) SortCondition {
	return func(name string) expression.KeyConditionBuilder {
		return expression.Key(name).BeginsWith(prefix)
	}
}

// SortBetween matches sort keys in the inclusive range [lo, hi].
func SortBetween(lo, hi any) SortCondition {
	return func(name string) expression.KeyConditionBuilder {
		return expression.Key(name).Between(expression.Value(lo), expression.Value(hi))
	}
}

// SortLessThan matches sort keys strictly below v.
func SortLessThan(v any) SortCondition {
	return func(name string) expression.KeyConditionBuilder {
		return expression.Key(name).LessThan(expression.Value(v))
	}
}

// SortGreaterThan matches sort keys strictly above v.
func SortGreaterThan(v any) SortCondition {
	return func(name string) expression.KeyConditionBuilder {
		return expression.Key(name).GreaterThan(expression.Value(v))
	}
}

// Query streams every record of M whose partition key equals partition, in
// sort key order. WithSort narrows the sort range; other options tune
// paging, filtering and direction. The worker follows pagination tokens
// until the result set is exhausted, so a matching set larger than one page
// is delivered completely.
func Query[M dynamode.Model](ctx context.Context, a *Agent, partition any, opts ...StreamOption) *Stream[M] {
	settings := newStreamSettings(opts)

	if err := a.ready(); err != nil {
		return failedStream[M](err, settings.buffer)
	}
	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return failedStream[M](err, settings.buffer)
	}

	keyCond := expression.Key(d.PartitionKey).Equal(expression.Value(partition))
	for _, sc := range settings.sorts {
		keyCond = keyCond.And(sc(d.SortKey))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if settings.filter != nil {
		builder = builder.WithFilter(*settings.filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return failedStream[M](err, settings.buffer)
	}

	fetch := func(ctx context.Context, start map[string]types.AttributeValue) (page, error) {
		out, err := a.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(d.Table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(settings.pageSize),
			ScanIndexForward:          aws.Bool(!settings.descending),
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return page{}, wrapStore("query", d.Table, err)
		}
		return page{items: out.Items, next: out.LastEvaluatedKey}, nil
	}

	return runStream[M](ctx, d, settings, fetch)
}

// Scan streams every record of M across all partitions. Order is undefined.
func Scan[M dynamode.Model](ctx context.Context, a *Agent, opts ...StreamOption) *Stream[M] {
	settings := newStreamSettings(opts)

	if err := a.ready(); err != nil {
		return failedStream[M](err, settings.buffer)
	}
	d, err := registry.DescriptorFor[M]()
	if err != nil {
		return failedStream[M](err, settings.buffer)
	}

	var expr expression.Expression
	if settings.filter != nil {
		expr, err = expression.NewBuilder().WithFilter(*settings.filter).Build()
		if err != nil {
			return failedStream[M](err, settings.buffer)
		}
	}

	fetch := func(ctx context.Context, start map[string]types.AttributeValue) (page, error) {
		out, err := a.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(d.Table),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(settings.pageSize),
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return page{}, wrapStore("scan", d.Table, err)
		}
		return page{items: out.Items, next: out.LastEvaluatedKey}, nil
	}

	return runStream[M](ctx, d, settings, fetch)
}

type page struct {
	items []map[string]types.AttributeValue
	next  map[string]types.AttributeValue
}

type fetchPage func(ctx context.Context, start map[string]types.AttributeValue) (page, error)

// runStream launches the pagination worker. The stream aborts on the first
// fetch or decode error; records already delivered remain valid.
func runStream[M dynamode.Model](ctx context.Context, d dynamode.Descriptor, settings streamSettings, fetch fetchPage) *Stream[M] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[M]{
		results: make(chan Result[M], settings.buffer),
		cancel:  cancel,
	}

	go func() {
		defer close(s.results)
		defer cancel()

		var start map[string]types.AttributeValue
		for {
			p, err := fetch(ctx, start)
			if err != nil {
				s.emit(ctx, Result[M]{Err: err})
				return
			}
			for _, item := range p.items {
				var rec M
				if err := codec.DecodeRequired(item, &rec, d.KeyAttributeNames()...); err != nil {
					s.emit(ctx, Result[M]{Err: err})
					return
				}
				if !s.emit(ctx, Result[M]{Item: rec}) {
					return
				}
			}
			if len(p.next) == 0 {
				return
			}
			start = p.next
		}
	}()

	return s
}

// emit delivers one result unless the stream context is gone. Reports
// whether delivery happened.
func (s *Stream[M]) emit(ctx context.Context, r Result[M]) bool {
	select {
	case s.results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// failedStream returns an already-terminated stream carrying one error. It
// lets Query and Scan keep a non-error signature while still reporting
// pre-flight failures through the normal consumption path.
func failedStream[M dynamode.Model](err error, buffer int) *Stream[M] {
	if buffer < 1 {
		buffer = 1
	}
	s := &Stream[M]{
		results: make(chan Result[M], buffer),
		cancel:  func() {},
	}
	s.results <- Result[M]{Err: err}
	close(s.results)
	return s
}
