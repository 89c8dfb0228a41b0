package notification

import (
	"context"
	"fmt"
	"sync"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

// PayableResolver loads the host object behind a weak payable reference.
// A nil result with a nil error means the payable no longer exists.
type PayableResolver interface {
	Resolve(ctx context.Context, ref vo.PayableRef) (any, error)
}

// ResolverFunc adapts a function to PayableResolver
type ResolverFunc func(ctx context.Context, ref vo.PayableRef) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, ref vo.PayableRef) (any, error) {
	return f(ctx, ref)
}

// ResolverRegistry dispatches resolution on the payable type tag
type ResolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[string]PayableResolver
}

func NewResolverRegistry() *ResolverRegistry {
	return &ResolverRegistry{resolvers: make(map[string]PayableResolver)}
}

// Register binds payableType to r, replacing any earlier binding
func (r *ResolverRegistry) Register(payableType string, resolver PayableResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[payableType] = resolver
}

func (r *ResolverRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.resolvers))
	for t := range r.resolvers {
		types = append(types, t)
	}
	return types
}

func (r *ResolverRegistry) Resolve(ctx context.Context, ref vo.PayableRef) (any, error) {
	r.mu.RLock()
	resolver, ok := r.resolvers[ref.Type()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no resolver registered for payable type %q", ref.Type())
	}
	return resolver.Resolve(ctx, ref)
}
