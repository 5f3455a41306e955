/*
Package codec converts typed records to and from the store's native
attribute representation.

The store's value space is a closed tagged union (string, number, binary,
boolean, null, list, map, string-set, number-set), surfaced by the AWS SDK
as types.AttributeValue members. This package owns the conversion contract
on top of it:

	item, err := codec.Encode(record)          // record -> attribute mapping
	err = codec.Decode(item, &record)          // attribute mapping -> record

Encoding is total for any record whose fields have an attribute mapping;
decoding is partial and fails with the errors package's MissingField and
TypeMismatch taxonomy. The round-trip law holds for every supported field
type: strings, integers and floats (exact, via canonical decimal text),
booleans, binary blobs, nested maps and lists, and optional fields via
pointers.

Types that need custom field treatment implement the Marshaler and
Unmarshaler hooks instead of relying on reflection:

	func (r Reading) MarshalRecord() (map[string]types.AttributeValue, error) { ... }
	func (r *Reading) UnmarshalRecord(item map[string]types.AttributeValue) error { ... }

The scalar helpers (String, Int, Float, Binary, ScalarEqual, ScalarString)
cover the variants the store accepts in primary keys and back the Key type's
equality and canonical text form.
*/
package codec
