package value

import (
	"errors"
	"fmt"
)

// UnsupportedValueTypeError is returned when a value cannot be represented
// as JSON text.
type UnsupportedValueTypeError struct {
	Kind string
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("unsupported value type: %s", e.Kind)
}

// IsUnsupportedValueType reports whether err is or wraps an
// *UnsupportedValueTypeError.
func IsUnsupportedValueType(err error) bool {
	var ue *UnsupportedValueTypeError
	return errors.As(err, &ue)
}
