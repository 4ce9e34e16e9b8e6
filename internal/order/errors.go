package order

import "errors"

var ErrDuplicateOrder = errors.New("order already exists")
