package cache

import (
	"context"

	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

type prefixed struct {
	prefix string
	next   shopping.Cache
}

// WithPrefix namespaces every key of c, so several users can share one store
func WithPrefix(c shopping.Cache, prefix string) shopping.Cache {
	return &prefixed{prefix: prefix, next: c}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.next.Remove(ctx, p.prefix+key)
}
