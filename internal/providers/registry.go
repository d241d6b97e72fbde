package providers

import (
	"errors"
	"fmt"

	"github.com/amaumene/listarr/internal/models"
)

// ErrNoFetcher means a list references a provider kind no fetcher handles.
// This is a programming error (a kind was added without an implementation),
// not a user-facing condition.
var ErrNoFetcher = errors.New("no fetcher registered for provider")

// Registry is a read-only registry of fetchers keyed by provider kind
type Registry struct {
	byKind map[models.ProviderKind]Fetcher
}

// NewRegistry builds a registry from the given fetchers
func NewRegistry(fetchers ...Fetcher) (*Registry, error) {
	byKind := make(map[models.ProviderKind]Fetcher, len(fetchers))
	for _, f := range fetchers {
		if f == nil {
			return nil, fmt.Errorf("fetcher must not be nil")
		}
		if _, ok := byKind[f.Kind()]; ok {
			return nil, fmt.Errorf("duplicate fetcher for provider %q", f.Kind())
		}
		byKind[f.Kind()] = f
	}
	return &Registry{byKind: byKind}, nil
}

// Get returns the fetcher handling the given provider kind
func (r *Registry) Get(kind models.ProviderKind) (Fetcher, error) {
	f, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoFetcher, kind)
	}
	return f, nil
}
