/*
Package agent dispatches typed operations against a DynamoDB-compatible
store.

An Agent owns one authenticated session and its configuration. Operations are
package-level generic functions parameterized on the model type:

	a, err := agent.ConnectLocal(ctx)
	if err != nil {
	    return err
	}
	defer a.Close()

	if err := agent.EnsureTable[Car](ctx, a); err != nil {
	    return err
	}
	if err := agent.Put(ctx, a, car); err != nil {
	    return err
	}
	got, err := agent.Get[Car](ctx, a, car.PrimaryKey())

Query and Scan return a Stream that pages through the result set in the
background:

	stream := agent.Query[Car](ctx, a, "fleet-7",
	    agent.WithSort(agent.SortBeginsWith("2024#")))
	cars, err := stream.Collect()

Transport failures carry an errors.StoreError tag with the operation, table
and a broad failure kind. The agent never retries; the SDK client behind it
owns retry policy.
*/
package agent
