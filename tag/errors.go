package tag

import "errors"

// Error kinds surfaced by tag and value operations. Callers match them with
// errors.Is; every returned error wraps exactly one of these.
var (
	// ErrType indicates a value or index of the wrong Go type.
	ErrType = errors.New("invalid type")

	// ErrRange indicates a numeric value or index outside its allowed bounds.
	ErrRange = errors.New("out of range")

	// ErrDomain indicates input outside the value domain: non-finite floats,
	// unknown data types, malformed stored text, or a bad tag-kind combination.
	ErrDomain = errors.New("invalid value")

	// ErrNotApplicable indicates an operation the target does not support,
	// such as indexing an alias tag or commenting a subarray.
	ErrNotApplicable = errors.New("operation not applicable")

	// ErrNotFound indicates a missing tag, member, or array element.
	ErrNotFound = errors.New("not found")

	// ErrReadOnly indicates an attempted write to a derived attribute.
	ErrReadOnly = errors.New("read-only attribute")
)
