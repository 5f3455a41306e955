/*
Package dynamode is a typed object-document mapping layer over DynamoDB-style
table stores with composite (partition + sort) primary keys.

Application code defines model types, and the agent turns typed calls into
store requests and typed results, with no hand-written attribute-map
marshaling or key construction.

A model is any type satisfying the Model interface:

	type Model interface {
	    TableName() string
	    PrimaryKey() Key
	}

Models keep their key components in ordinary struct fields; PrimaryKey just
points at them:

	type Car struct {
	    PK         string `dynamodbav:"pk"`
	    SK         string `dynamodbav:"sk"`
	    Brand      string `dynamodbav:"brand"`
	    Model      string `dynamodbav:"model"`
	    Horsepower int    `dynamodbav:"horsepower"`
	}

	func (c Car) TableName() string        { return "Cars" }
	func (c Car) PrimaryKey() dynamode.Key { return dynamode.StringKey(c.PK, c.SK) }

Operations are package-level generic functions on an agent session:

	a, err := agent.ConnectLocal(ctx)
	err = agent.EnsureTable[Car](ctx, a)
	err = agent.Put(ctx, a, car)
	got, err := agent.Get[Car](ctx, a, dynamode.StringKey("tesla", "model-y"))

Key attribute names default to "pk" and "sk"; a model overrides them by
implementing KeySchemer. Per-type serialization hooks live in the codec
package, the error taxonomy in the errors package.
*/
package dynamode
