package tfe

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Tagged pairs an item with the tenant it was listed under.
type Tagged[T any] struct {
	Tenant string `json:"tenant"`
	Item   T      `json:"item"`
}

// Batch collects the outcome of a fan-out. Items from one tenant are
// contiguous; tenant order follows completion order.
type Batch[T any] struct {
	Operation string
	Items     []Tagged[T]
	Succeeded []string
	Errors    map[string]error
}

// Err returns a *PartialBatchError when any tenant failed.
func (b *Batch[T]) Err() error {
	if len(b.Errors) == 0 {
		return nil
	}
	return &PartialBatchError{Operation: b.Operation, Succeeded: b.Succeeded, Failed: b.Errors}
}

// Values drops the tenant tags.
func (b *Batch[T]) Values() []T {
	out := make([]T, 0, len(b.Items))
	for _, it := range b.Items {
		out = append(out, it.Item)
	}
	return out
}

// FetchFromMany runs fetch for every distinct tenant with at most
// parallelism calls in flight. A tenant's failure never cancels its
// siblings; it is recorded in Batch.Errors instead.
func FetchFromMany[T any](ctx context.Context, operation string, tenants []string, parallelism int, fetch func(context.Context, string) ([]T, error)) *Batch[T] {
	batch := &Batch[T]{Operation: operation, Items: []Tagged[T]{}, Errors: map[string]error{}}
	if parallelism <= 0 {
		parallelism = 1
	}

	var (
		mu   sync.Mutex
		g    errgroup.Group
		seen = make(map[string]struct{}, len(tenants))
	)
	g.SetLimit(parallelism)
	for _, tenant := range tenants {
		if _, dup := seen[tenant]; dup {
			continue
		}
		seen[tenant] = struct{}{}
		g.Go(func() error {
			items, err := fetch(ctx, tenant)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Errors[tenant] = err
				return nil
			}
			batch.Succeeded = append(batch.Succeeded, tenant)
			for _, item := range items {
				batch.Items = append(batch.Items, Tagged[T]{Tenant: tenant, Item: item})
			}
			return nil
		})
	}
	_ = g.Wait()
	return batch
}
