package rcache

// Kind classifies a fetch cycle failure.
type Kind string

const (
	// KindFetch means a source itself failed.
	KindFetch Kind = "fetch"
	// KindTimeout means the cycle exceeded the configured fetch timeout.
	KindTimeout Kind = "timeout"
	// KindSchema means the fetched result could not be coerced to a batch
	// of canonical objects.
	KindSchema Kind = "schema"
)

// CycleError is the tagged failure of a single fetch cycle. Cycle errors
// never propagate past the cycle boundary; the runner records the error
// text in its status and keeps the previous snapshot.
type CycleError struct {
	Kind Kind
	Err  error
}

func (e *CycleError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *CycleError) Unwrap() error {
	return e.Err
}
