package rcache

import "context"

// Source supplies raw records to a Runner. Each Source is a specific
// supplier of records: a database query, a remote endpoint, a file scan.
// The runner depends only on this interface.
type Source interface {
	// Fetch returns one batch of raw records. Each item must be a
	// map[string]any or provide a ToJSON() map[string]any conversion. The
	// context carries the fetch-timeout deadline when one is configured.
	Fetch(ctx context.Context) ([]any, error)
	// String returns a description of the source.
	String() string
}

// SourceFunc adapts a plain fetch function to the Source interface.
func SourceFunc(name string, fn func(context.Context) ([]any, error)) Source {
	return &funcSource{name: name, fn: fn}
}

type funcSource struct {
	name string
	fn   func(context.Context) ([]any, error)
}

func (s *funcSource) Fetch(ctx context.Context) ([]any, error) {
	return s.fn(ctx)
}

func (s *funcSource) String() string {
	return s.name
}
