/*
Package errors provides semantic error types for the dynamode library.

The package defines the failure taxonomy of the mapping layer with specific
types that can be checked using the standard errors.Is() function or the
provided helper functions.

Common Errors:

	var (
	    ErrNotConnected        = errors.New("agent not connected")
	    ErrItemNotFound        = errors.New("item not found")
	    ErrUnsupportedType     = errors.New("unsupported field type")
	    ErrMissingField        = errors.New("missing field")
	    ErrTypeMismatch        = errors.New("type mismatch")
	    ErrInvalidKey          = errors.New("invalid key")
	    ErrInvalidInput        = errors.New("invalid input")
	    ErrProvisioningTimeout = errors.New("table provisioning timed out")
	    ErrStore               = errors.New("store error")
	)

Usage:

	car, err := agent.Get[Car](ctx, a, key)
	if err != nil {
	    if errors.IsDecodeError(err) {
	        // stored data does not match the Car shape
	    }
	    return err
	}

Store client failures pass through tagged, never masked:

	if kind, ok := errors.StoreKindOf(err); ok && kind == errors.KindThrottled {
	    // back off at the call site; the agent never retries
	}

Absence is not failure: Get returns (nil, nil) for a missing item, and
deleting a missing key succeeds.
*/
package errors
