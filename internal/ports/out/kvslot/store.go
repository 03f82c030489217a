package kvslot

import "context"

// Store is a persistent key/value area holding opaque byte values under named slots.
// A slot that was never written reads back as ok=false with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
