/*
Package registry resolves and caches table descriptors per model type.

A descriptor (table name, partition key attribute and optional sort key
attribute) is logically constant for a model type's lifetime. The registry
derives it once from the type's zero value and serves it from a
reflect.Type-keyed cache on every subsequent operation:

	d, err := registry.DescriptorFor[Car]()
	// d.Table == "Cars", d.PartitionKey == "pk", d.SortKey == "sk"

Types whose zero value cannot be interrogated register explicitly, typically
in init():

	registry.Register[Event](dynamode.Descriptor{
	    Table:        "events",
	    PartitionKey: "stream",
	    SortKey:      "seq",
	})

The cache is thread-safe; concurrent first-use derivation of the same type
is benign because descriptors are value-equal.
*/
package registry
