package recognition

import "context"

// Provider is one recognition backend. Recognize reads the recording at
// path and returns its best identification; an unsuccessful Result with a
// nil error means the provider ran but found nothing it trusts.
type Provider interface {
	Name() string
	Available() bool
	Recognize(ctx context.Context, path string) (Result, error)
}
