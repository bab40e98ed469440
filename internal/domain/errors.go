package domain

import "errors"

var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("duplicate product id")
)
