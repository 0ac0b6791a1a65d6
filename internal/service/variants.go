package service

import (
	"fmt"
	"strings"
)

// Example is one worked example embedded in a variant's prompt context.
type Example struct {
	Text     string
	Category string
	Summary  string
}

// VariantSpec is a fixed prompt specification: instruction, style, worked
// examples, and sampling temperature.
type VariantSpec struct {
	Instruction string
	Style       string
	Temperature float64
	Examples    []Example
}

// PromptSpec is the human-readable identity of the spec, shown in events and
// run snapshots.
func (s VariantSpec) PromptSpec() string {
	style := s.Style
	if style != "" {
		style = strings.ToUpper(style[:1]) + style[1:]
	}
	return fmt.Sprintf("%s approach: %s", style, s.Instruction)
}

// builtinSpecs are the three competing prompt strategies. Temperatures are
// filled in from configuration at service construction.
var builtinSpecs = []VariantSpec{
	{
		Instruction: "Classify the text into one of the provided categories and write a concise summary.",
		Style:       "formal",
		Examples: []Example{
			{"I can't log into my account", "technical", "User experiencing login difficulties"},
			{"Please cancel my subscription", "cancellation", "Customer requesting subscription cancellation"},
		},
	},
	{
		Instruction: "Help classify this customer message and summarize what they need.",
		Style:       "conversational",
		Examples: []Example{
			{"My bill seems wrong this month", "billing", "Customer questioning billing accuracy"},
			{"This is really urgent!", "urgent", "Customer expressing urgency"},
		},
	},
	{
		Instruction: "Analyze the text to determine the primary intent category and provide a factual summary.",
		Style:       "analytical",
		Examples: []Example{
			{"The app keeps crashing", "technical", "Application experiencing stability issues"},
			{"I need help with billing", "billing", "Customer seeking billing assistance"},
		},
	},
}

// buildVariantSpecs returns the first variantCount builtin specs with
// temperatures assigned positionally. temperatures is assumed normalized to
// variantCount entries by config validation.
func buildVariantSpecs(variantCount int, temperatures []float64) []VariantSpec {
	n := min(variantCount, len(builtinSpecs))
	specs := make([]VariantSpec, n)
	for i := 0; i < n; i++ {
		specs[i] = builtinSpecs[i]
		if i < len(temperatures) {
			specs[i].Temperature = temperatures[i]
		}
	}
	return specs
}
