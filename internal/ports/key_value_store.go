package ports

import "context"

// KeyValueStore is a durable single-value slot per key. Get returns
// domain.ErrKeyNotFound when nothing is stored under key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
