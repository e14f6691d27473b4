package sources

import (
	"context"
	"fmt"

	"github.com/poiesic/cortexsync/core"
)

// Fetcher retrieves the items of one source that changed within a run window.
// Implementations must return items with IDs that are stable for the window
// and should return them in a deterministic order.
type Fetcher interface {
	// Name identifies the source. It names the index collection the source's
	// items are written to.
	Name() string

	// Fetch returns items with UpdatedAt in [window.Since, window.TriggeredAt).
	// Errors marked with activity.AcceptableEmpty declare that the source has
	// nothing to offer and are treated as an empty result.
	Fetch(ctx context.Context, window core.RunWindow) ([]core.Item, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, window core.RunWindow) ([]core.Item, error)

type funcFetcher struct {
	name string
	fn   FetchFunc
}

// NewFunc creates a Fetcher named name backed by fn.
func NewFunc(name string, fn FetchFunc) Fetcher {
	return &funcFetcher{name: name, fn: fn}
}

func (f *funcFetcher) Name() string { return f.name }

func (f *funcFetcher) Fetch(ctx context.Context, window core.RunWindow) ([]core.Item, error) {
	return f.fn(ctx, window)
}

// Registry is an ordered set of fetchers with unique names.
// Registration order is the order batches are processed in.
type Registry struct {
	fetchers []Fetcher
}

// NewRegistry creates a Registry from fetchers in registration order.
func NewRegistry(fetchers ...Fetcher) (*Registry, error) {
	seen := make(map[string]struct{}, len(fetchers))
	for _, f := range fetchers {
		if f == nil {
			return nil, ErrNilFetcher
		}
		name := f.Name()
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, name)
		}
		seen[name] = struct{}{}
	}
	return &Registry{fetchers: append([]Fetcher(nil), fetchers...)}, nil
}

// Fetchers returns the registered fetchers in registration order.
func (r *Registry) Fetchers() []Fetcher {
	return append([]Fetcher(nil), r.fetchers...)
}

// Names returns the source names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.fetchers))
	for i, f := range r.fetchers {
		names[i] = f.Name()
	}
	return names
}

// Len returns the number of registered fetchers.
func (r *Registry) Len() int {
	return len(r.fetchers)
}

// Select returns a registry holding only the named sources, keeping
// registration order. An empty selection keeps every source.
func (r *Registry) Select(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = false
	}
	var selected []Fetcher
	for _, f := range r.fetchers {
		if _, ok := wanted[f.Name()]; ok {
			wanted[f.Name()] = true
			selected = append(selected, f)
		}
	}
	for _, name := range names {
		if !wanted[name] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
		}
	}
	return &Registry{fetchers: selected}, nil
}
