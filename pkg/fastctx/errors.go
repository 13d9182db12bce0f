package fastctx

import (
	ferrors "github.com/vango-dev/fastctx/internal/errors"
)

// Sentinel errors. Errors returned by this package match them under
// errors.Is and carry extra detail (definition name, field name, cause).
var (
	// ErrNoActiveScope is returned when a lookup or binding is attempted
	// without an enclosing active scope for the definition. It indicates a
	// wiring mistake and is never recovered from by falling back to a
	// default store.
	ErrNoActiveScope = ferrors.New("F001")

	// ErrStaleBinding is returned when a binding is used after Close or after
	// its scope was torn down.
	ErrStaleBinding = ferrors.New("F002")

	// ErrNotStruct is returned when a field-name operation is applied to a
	// state type that is not a struct.
	ErrNotStruct = ferrors.New("F010")

	// ErrUnknownField is returned when a field name does not resolve.
	ErrUnknownField = ferrors.New("F011")

	// ErrFieldType is returned when a value cannot be stored in a field.
	ErrFieldType = ferrors.New("F012")
)
