package domain

import "context"

type PropertyRepository interface {
	// ListProperties yields the full catalog, or ErrNotFound when the backing
	// collection is absent.
	ListProperties(ctx context.Context) ([]Property, error)
}

// ReviewRepository persists the review collection as a whole: load everything,
// mutate in memory, write everything back. Implementations own the
// serialization of read-modify-write cycles; services above never coordinate
// concurrent writers themselves.
type ReviewRepository interface {
	ListReviews(ctx context.Context) ([]Review, error)
	// MutateReviews loads the collection, applies fn, and persists fn's result.
	// The whole cycle runs under the store's write lock. An error from fn
	// aborts the cycle and leaves the collection untouched.
	MutateReviews(ctx context.Context, fn func([]Review) ([]Review, error)) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ChannelClient pulls raw review payloads from an external booking channel.
type ChannelClient interface {
	ListReviews(ctx context.Context, limit, offset int) ([]map[string]any, error)
}
