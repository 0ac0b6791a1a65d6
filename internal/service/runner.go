package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promptarena/promptarena/internal/domain/run"
	"github.com/promptarena/promptarena/internal/port/provider"
)

// Runner executes one variant against the completion provider under a hard
// deadline. It never retries: one failure is terminal for that variant.
type Runner struct {
	completer provider.Completer
	labels    []string
	timeout   time.Duration
	now       func() time.Time
}

// NewRunner creates a Runner calling the given provider with the per-variant
// timeout.
func NewRunner(completer provider.Completer, labels []string, timeout time.Duration) *Runner {
	return &Runner{
		completer: completer,
		labels:    labels,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Run executes the spec for the given input and returns the finished Variant.
// On timeout the error text is exactly "Timeout" and latency is unset; on any
// other provider failure the error message is recorded with the latency
// elapsed up to the failure.
func (r *Runner) Run(ctx context.Context, variantID string, spec VariantSpec, inputText string) run.Variant {
	v := run.Variant{
		VariantID:  variantID,
		PromptSpec: spec.PromptSpec(),
	}

	prompt := buildPrompt(r.labels, spec, inputText)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	out, err := r.completer.Complete(ctx, prompt, spec.Temperature)
	elapsed := r.now().Sub(start).Milliseconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			v.Error = "Timeout"
			return v
		}
		v.Error = err.Error()
		v.LatencyMS = &elapsed
		return v
	}

	v.Output = &run.VariantOutput{
		Category: strings.TrimSpace(out.Category),
		Summary:  strings.TrimSpace(out.Summary),
	}
	v.LatencyMS = &elapsed
	return v
}

// buildPrompt assembles the prompt context deterministically:
// labels, then worked examples, then the instruction, then the input text.
func buildPrompt(labels []string, spec VariantSpec, inputText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Available categories: %s\n\n", strings.Join(labels, ", "))

	if len(spec.Examples) > 0 {
		b.WriteString("Examples:\n")
		for _, ex := range spec.Examples {
			fmt.Fprintf(&b, "Text: %s\nCategory: %s\nSummary: %s\n\n", ex.Text, ex.Category, ex.Summary)
		}
	}

	fmt.Fprintf(&b, "Instructions: %s\n\n", spec.Instruction)
	fmt.Fprintf(&b, "Text to classify: %s", inputText)

	return b.String()
}
