package kvslot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store is a Redis implementation of kvslot.Store. Slots are plain string keys without expiry.
type Store struct {
	client *redis.Client
}

// Connect dials Redis and verifies it answers a ping.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	const op = "kvslot.Connect"
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{client: client}, nil
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "kvslot.Get"
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "kvslot.Set"
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
