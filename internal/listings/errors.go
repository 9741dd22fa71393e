package listings

import "errors"

var ErrInvalidFilter = errors.New("invalid filter payload")
