// Package provider defines the port for the text-completion capability.
package provider

import "context"

// Completion is the provider's structured answer for one prompt.
type Completion struct {
	Category string
	Summary  string
}

// Completer executes a single completion request. Implementations must honor
// the context deadline; callers supply the per-variant timeout through ctx.
// Implementations never retry — retry policy belongs to the caller.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (Completion, error)
}
