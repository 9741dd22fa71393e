package properties

import "errors"

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrUnsupportedKind  = errors.New("unsupported property kind")
	ErrKindMismatch     = errors.New("property kind mismatch")
)
