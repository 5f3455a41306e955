/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamode/dynamode"
	"github.com/dynamode/dynamode/agent"
	"github.com/dynamode/dynamode/codec"
)

// Test models shared across the agent tests.

type Car struct {
	Fleet string  `dynamodbav:"pk"`
	VIN   string  `dynamodbav:"sk"`
	Make  string  `dynamodbav:"make"`
	Year  int     `dynamodbav:"year"`
	Miles float64 `dynamodbav:"miles"`
}

func (Car) TableName() string { return "cars" }
func (c Car) PrimaryKey() dynamode.Key {
	return dynamode.StringKey(c.Fleet, c.VIN)
}

type Counter struct {
	Name  string `dynamodbav:"name"`
	Value int    `dynamodbav:"value"`
}

func (Counter) TableName() string           { return "counters" }
func (Counter) KeySchema() (string, string) { return "name", "" }
func (c Counter) PrimaryKey() dynamode.Key {
	return dynamode.StringKey(c.Name)
}

type ValidatedCar struct {
	Fleet string `dynamodbav:"pk" validate:"required"`
	VIN   string `dynamodbav:"sk" validate:"required,min=11"`
}

func (ValidatedCar) TableName() string { return "validated-cars" }
func (c ValidatedCar) PrimaryKey() dynamode.Key {
	return dynamode.StringKey(c.Fleet, c.VIN)
}

// memClient is an in-memory StoreClient with real pagination and a small
// evaluator for the expression grammar the agent emits. One instance backs
// one test.
type memClient struct {
	mu     sync.Mutex
	tables map[string]*memTable

	// activateAfter delays table activation: a created table reports
	// CREATING for this many DescribeTable calls.
	activateAfter int

	// queryFailAfter injects a throttling failure once this many Query or
	// Scan pages have been served. Zero disables injection.
	queryFailAfter int

	pagesServed   int
	describeCalls int
	createCalls   int
}

type memTable struct {
	partitionKey string
	sortKey      string
	describes    int
	active       bool
	items        []map[string]types.AttributeValue
}

func newMemClient() *memClient {
	return &memClient{tables: make(map[string]*memTable)}
}

// seedTable creates an active table directly, bypassing CreateTable.
func (c *memClient) seedTable(name, partitionKey, sortKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = &memTable{partitionKey: partitionKey, sortKey: sortKey, active: true}
}

// seedCreatingTable creates a table that reports CREATING until
// activateAfter describe calls have been made against it.
func (c *memClient) seedCreatingTable(name, partitionKey, sortKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = &memTable{partitionKey: partitionKey, sortKey: sortKey}
}

func (c *memClient) itemCount(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tables[table]; ok {
		return len(t.items)
	}
	return 0
}

func (t *memTable) keyOf(item map[string]types.AttributeValue) string {
	p, _ := codec.ScalarString(item[t.partitionKey])
	if t.sortKey == "" {
		return p
	}
	s, _ := codec.ScalarString(item[t.sortKey])
	return p + "\x1f" + s
}

func (t *memTable) find(key map[string]types.AttributeValue) int {
	want := t.keyOf(key)
	for i, item := range t.items {
		if t.keyOf(item) == want {
			return i
		}
	}
	return -1
}

func (t *memTable) keyAttrs(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	k := map[string]types.AttributeValue{t.partitionKey: item[t.partitionKey]}
	if t.sortKey != "" {
		k[t.sortKey] = item[t.sortKey]
	}
	return k
}

func (c *memClient) table(name *string) (*memTable, error) {
	t, ok := c.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return t, nil
}

func (c *memClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if i := t.find(params.Item); i >= 0 {
		t.items[i] = params.Item
	} else {
		t.items = append(t.items, params.Item)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (c *memClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if i := t.find(params.Key); i >= 0 {
		return &dynamodb.GetItemOutput{Item: t.items[i]}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (c *memClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}

	i := t.find(params.Key)
	if params.ConditionExpression != nil {
		var current map[string]types.AttributeValue
		if i >= 0 {
			current = t.items[i]
		}
		ok := evalCond(aws.ToString(params.ConditionExpression),
			params.ExpressionAttributeNames, params.ExpressionAttributeValues, current)
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	assignments := parseUpdate(aws.ToString(params.UpdateExpression),
		params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if i < 0 {
		item := map[string]types.AttributeValue{}
		for k, v := range params.Key {
			item[k] = v
		}
		t.items = append(t.items, item)
		i = len(t.items) - 1
	}
	for name, value := range assignments {
		t.items[i][name] = value
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (c *memClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if i := t.find(params.Key); i >= 0 {
		t.items = append(t.items[:i], t.items[i+1:]...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (c *memClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.maybeFail(); err != nil {
		return nil, err
	}
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}

	var matches []map[string]types.AttributeValue
	for _, item := range t.items {
		if !evalCond(aws.ToString(params.KeyConditionExpression),
			params.ExpressionAttributeNames, params.ExpressionAttributeValues, item) {
			continue
		}
		if params.FilterExpression != nil && !evalCond(aws.ToString(params.FilterExpression),
			params.ExpressionAttributeNames, params.ExpressionAttributeValues, item) {
			continue
		}
		matches = append(matches, item)
	}

	if t.sortKey != "" {
		sortItems(matches, t.sortKey)
	}
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for l, r := 0, len(matches)-1; l < r; l, r = l+1, r-1 {
			matches[l], matches[r] = matches[r], matches[l]
		}
	}

	pageItems, next := paginate(t, matches, params.ExclusiveStartKey, params.Limit)
	return &dynamodb.QueryOutput{Items: pageItems, LastEvaluatedKey: next}, nil
}

func (c *memClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.maybeFail(); err != nil {
		return nil, err
	}
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}

	var matches []map[string]types.AttributeValue
	for _, item := range t.items {
		if params.FilterExpression != nil && !evalCond(aws.ToString(params.FilterExpression),
			params.ExpressionAttributeNames, params.ExpressionAttributeValues, item) {
			continue
		}
		matches = append(matches, item)
	}

	pageItems, next := paginate(t, matches, params.ExclusiveStartKey, params.Limit)
	return &dynamodb.ScanOutput{Items: pageItems, LastEvaluatedKey: next}, nil
}

func (c *memClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.describeCalls++
	t, err := c.table(params.TableName)
	if err != nil {
		return nil, err
	}

	status := types.TableStatusActive
	if !t.active {
		t.describes++
		if t.describes > c.activateAfter {
			t.active = true
		} else {
			status = types.TableStatusCreating
		}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: status,
		},
	}, nil
}

func (c *memClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := aws.ToString(params.TableName)
	if _, ok := c.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}

	t := &memTable{}
	for _, ks := range params.KeySchema {
		switch ks.KeyType {
		case types.KeyTypeHash:
			t.partitionKey = aws.ToString(ks.AttributeName)
		case types.KeyTypeRange:
			t.sortKey = aws.ToString(ks.AttributeName)
		}
	}
	c.tables[name] = t
	c.createCalls++
	return &dynamodb.CreateTableOutput{}, nil
}

func (c *memClient) maybeFail() error {
	if c.queryFailAfter == 0 {
		return nil
	}
	c.pagesServed++
	if c.pagesServed > c.queryFailAfter {
		return &types.ProvisionedThroughputExceededException{Message: aws.String("throttled")}
	}
	return nil
}

func paginate(t *memTable, matches []map[string]types.AttributeValue, start map[string]types.AttributeValue, limit *int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	from := 0
	if start != nil {
		want := t.keyOf(start)
		for i, item := range matches {
			if t.keyOf(item) == want {
				from = i + 1
				break
			}
		}
	}

	end := len(matches)
	if limit != nil && from+int(*limit) < end {
		end = from + int(*limit)
	}
	page := matches[from:end]
	if end < len(matches) && len(page) > 0 {
		return page, t.keyAttrs(page[len(page)-1])
	}
	return page, nil
}

func sortItems(items []map[string]types.AttributeValue, sortKey string) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			c, ok := compareScalar(items[j][sortKey], items[j-1][sortKey])
			if !ok || c >= 0 {
				break
			}
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// compareScalar orders two attribute values of the same variant. N compares
// numerically, S lexically, B byte-wise.
func compareScalar(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Value, bv.Value), true
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		af, err1 := strconv.ParseFloat(av.Value, 64)
		bf, err2 := strconv.ParseFloat(bv.Value, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	case *types.AttributeValueMemberB:
		bv, ok := b.(*types.AttributeValueMemberB)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av.Value, bv.Value), true
	}
	return 0, false
}

// The expression evaluator. It covers the subset the agent's builders emit:
// #n/:n placeholders, =, <, <=, >, >=, <>, BETWEEN, begins_with,
// attribute_exists, AND and parentheses.

func evalCond(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) bool {
	p := &condParser{
		toks:   tokenizeCond(expr),
		names:  names,
		values: values,
		item:   item,
	}
	return p.parseAnd()
}

type condParser struct {
	toks   []string
	pos    int
	names  map[string]string
	values map[string]types.AttributeValue
	item   map[string]types.AttributeValue
}

func tokenizeCond(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		switch ch := s[i]; {
		case ch == ' ' || ch == '\n' || ch == '\t':
			i++
		case ch == '(' || ch == ')' || ch == ',':
			toks = append(toks, string(ch))
			i++
		case ch == '=':
			toks = append(toks, "=")
			i++
		case ch == '<' || ch == '>':
			if i+1 < len(s) && (s[i+1] == '=' || s[i+1] == '>') {
				toks = append(toks, s[i:i+2])
				i += 2
			} else {
				toks = append(toks, string(ch))
				i++
			}
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \n\t(),=<>", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

func (p *condParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *condParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *condParser) expect(tok string) {
	if p.next() != tok {
		panic("unexpected token in expression: want " + tok)
	}
}

func (p *condParser) parseAnd() bool {
	result := p.parsePrimary()
	for p.peek() == "AND" {
		p.next()
		right := p.parsePrimary()
		result = result && right
	}
	return result
}

func (p *condParser) parsePrimary() bool {
	switch tok := p.peek(); tok {
	case "(":
		p.next()
		v := p.parseAnd()
		p.expect(")")
		return v
	case "begins_with":
		p.next()
		p.expect("(")
		a := p.operand(p.next())
		p.expect(",")
		b := p.operand(p.next())
		p.expect(")")
		as, aok := asString(a)
		bs, bok := asString(b)
		return aok && bok && strings.HasPrefix(as, bs)
	case "attribute_exists":
		p.next()
		p.expect("(")
		name := p.names[p.next()]
		p.expect(")")
		_, ok := p.item[name]
		return ok
	default:
		left := p.operand(p.next())
		op := p.next()
		if op == "BETWEEN" {
			lo := p.operand(p.next())
			p.expect("AND")
			hi := p.operand(p.next())
			cl, ok1 := compareScalar(left, lo)
			ch, ok2 := compareScalar(left, hi)
			return ok1 && ok2 && cl >= 0 && ch <= 0
		}
		c, ok := compareScalar(left, p.operand(p.next()))
		if !ok {
			return false
		}
		switch op {
		case "=":
			return c == 0
		case "<>":
			return c != 0
		case "<":
			return c < 0
		case "<=":
			return c <= 0
		case ">":
			return c > 0
		case ">=":
			return c >= 0
		}
		return false
	}
}

func (p *condParser) operand(tok string) types.AttributeValue {
	if strings.HasPrefix(tok, "#") {
		return p.item[p.names[tok]]
	}
	if strings.HasPrefix(tok, ":") {
		return p.values[tok]
	}
	return nil
}

func asString(av types.AttributeValue) (string, bool) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// parseUpdate handles "SET #0 = :0, #1 = :1" style update expressions.
func parseUpdate(expr string, names map[string]string, values map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue)
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "SET")
	for _, clause := range strings.Split(expr, ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := names[strings.TrimSpace(parts[0])]
		out[name] = values[strings.TrimSpace(parts[1])]
	}
	return out
}

// newTestAgent wires a memClient into a ready agent with fast provisioning
// waits.
func newTestAgent(mc *memClient, opts ...agent.Option) *agent.Agent {
	cfg := agent.DefaultConfig()
	cfg.TableWaitTimeout = 500 * time.Millisecond
	cfg.TableWaitInterval = time.Millisecond
	opts = append([]agent.Option{agent.WithConfig(cfg)}, opts...)
	return agent.NewWithClient(mc, opts...)
}
