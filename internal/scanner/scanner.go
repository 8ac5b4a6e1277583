package scanner

import (
	"context"
	"fmt"

	"NewsDigest/internal/domain"
)

// Query carries the parameters of one provider lookup. An empty Term asks for
// the latest headlines.
type Query struct {
	Term  string
	Limit int
}

// Latest reports whether the query asks for headlines rather than a search.
func (q Query) Latest() bool {
	return q.Term == ""
}

// Source captures a single news provider implementation (NewsAPI, RSS, etc.).
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]domain.CandidateArticle, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}
