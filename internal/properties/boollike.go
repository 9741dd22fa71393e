package properties

import (
	"fmt"
	"strings"
)

// ParseBoolLike normalizes the loose truthy/falsy lexical forms accepted on
// the wire ("True", "1", "yes", "off", ...) to a strict boolean.
func ParseBoolLike(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, nil
	case "false", "f", "0", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("value %q is not boolean-like", s)
	}
}
