package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/promptarena/promptarena/internal/config"
	"github.com/promptarena/promptarena/internal/domain/run"
)

// intentGroup is one category's vocabulary: any regex hit counts toward the
// category's intent score.
type intentGroup struct {
	category string
	patterns []*regexp.Regexp
}

// Scorer evaluates variant outputs with deterministic rules. It is pure and
// stateless after construction and never calls the provider.
type Scorer struct {
	weights config.Weights
	labels  map[string]struct{}
	intents []intentGroup
	hedging []*regexp.Regexp
}

// NewScorer compiles the detection tables for the given labels and weights.
func NewScorer(labels []string, weights config.Weights) *Scorer {
	labelSet := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		labelSet[strings.ToLower(l)] = struct{}{}
	}

	compile := func(exprs ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(exprs))
		for i, e := range exprs {
			out[i] = regexp.MustCompile("(?i)" + e)
		}
		return out
	}

	return &Scorer{
		weights: weights,
		labels:  labelSet,
		// Order matters: ties on match count go to the earliest group.
		intents: []intentGroup{
			{"billing", compile(
				`\b(bill|billing|charge|payment|invoice|refund|double.?charged?|cost|price|fee)\b`,
				`\b(money|dollar|amount|subscription|plan)\b`,
			)},
			{"technical", compile(
				`\b(bug|error|crash|broken|not.?work|issue|problem|login|app|website|connection)\b`,
				`\b(technical|tech|system|server|down|slow)\b`,
			)},
			{"cancellation", compile(
				`\b(cancel|stop|end|terminate|quit|unsubscribe|delete.?account)\b`,
				`\b(don.?t.?want|no.?longer|remove)\b`,
			)},
			{"urgent", compile(
				`\b(urgent|emergency|asap|immediately|now|critical|important)\b`,
				`\b(help.?me|need.?help|stuck|locked.?out)\b`,
			)},
		},
		hedging: compile(
			`\b(i think|i believe|maybe|perhaps|possibly|might be|could be|seems like)\b`,
			`\b(as an ai|i'm an ai|i cannot|i don't know|uncertain)\b`,
			`\b(probably|likely|appears to|suggests)\b`,
		),
	}
}

// Score evaluates one variant against the original input text. A variant
// without output scores zero across the board.
func (s *Scorer) Score(v run.Variant, inputText string) run.Score {
	if v.Output == nil {
		return run.Score{VariantID: v.VariantID}
	}

	c := run.Components{
		LabelValid:   s.labelValid(v.Output.Category),
		LabelMatch:   s.labelMatch(v.Output.Category, inputText),
		SummaryLenOK: summaryLength(v.Output.Summary),
		NoHedging:    s.noHedging(v.Output.Summary),
		FormatOK:     formatOK(v.Output),
	}

	total := c.LabelValid*s.weights.LabelValid +
		c.LabelMatch*s.weights.LabelMatch +
		c.SummaryLenOK*s.weights.SummaryLenOK +
		c.NoHedging*s.weights.NoHedging +
		c.FormatOK*s.weights.FormatOK

	return run.Score{VariantID: v.VariantID, Total: total, Components: c}
}

func (s *Scorer) labelValid(category string) float64 {
	if _, ok := s.labels[strings.ToLower(category)]; ok {
		return 1.0
	}
	return 0.0
}

func (s *Scorer) labelMatch(category, inputText string) float64 {
	intent := s.detectIntent(inputText)
	if intent == "other" {
		// Ambiguous input: partial credit either way.
		return 0.5
	}
	if strings.EqualFold(category, intent) {
		return 1.0
	}
	return 0.0
}

// detectIntent scores each category by total regex hits over the input and
// returns the highest scorer, or "other" when nothing matches. Equal counts
// resolve to the earliest group.
func (s *Scorer) detectIntent(inputText string) string {
	best := "other"
	bestCount := 0
	for _, g := range s.intents {
		count := 0
		for _, p := range g.patterns {
			count += len(p.FindAllString(inputText, -1))
		}
		if count > bestCount {
			best = g.category
			bestCount = count
		}
	}
	return best
}

// summaryLength is 1 up to 20 words, then decays by 0.1 per excess word,
// floored at 0.
func summaryLength(summary string) float64 {
	words := len(strings.Fields(summary))
	if words <= 20 {
		return 1.0
	}
	score := 1.0 - float64(words-20)*0.1
	if score < 0 {
		return 0.0
	}
	return score
}

// noHedging is 0 as soon as any hedging phrase matches.
func (s *Scorer) noHedging(summary string) float64 {
	for _, p := range s.hedging {
		if p.MatchString(summary) {
			return 0.0
		}
	}
	return 1.0
}

func formatOK(out *run.VariantOutput) float64 {
	if strings.TrimSpace(out.Category) == "" || strings.TrimSpace(out.Summary) == "" {
		return 0.0
	}
	return 1.0
}

// Explanation is a human-readable score breakdown.
type Explanation struct {
	TotalScore     float64  `json:"total_score"`
	Explanations   []string `json:"explanations"`
	DetectedIntent string   `json:"detected_intent"`
	WordCount      int      `json:"word_count"`
}

// Explain reproduces each component's verdict from the same detection logic
// that produced the score, so explanations can never contradict totals.
// A nil-output variant yields a single failure line.
func (s *Scorer) Explain(score run.Score, v run.Variant, inputText string) Explanation {
	if v.Output == nil {
		return Explanation{Explanations: []string{"Variant failed to produce output"}}
	}

	var lines []string

	if score.Components.LabelValid == 1.0 {
		lines = append(lines, "✓ Category is valid")
	} else {
		lines = append(lines, fmt.Sprintf("✗ Invalid category '%s'", v.Output.Category))
	}

	intent := s.detectIntent(inputText)
	switch score.Components.LabelMatch {
	case 1.0:
		lines = append(lines, fmt.Sprintf("✓ Category matches detected intent (%s)", intent))
	case 0.5:
		lines = append(lines, "~ No clear intent detected")
	default:
		lines = append(lines, fmt.Sprintf("✗ Category doesn't match detected intent (%s)", intent))
	}

	words := len(strings.Fields(v.Output.Summary))
	if score.Components.SummaryLenOK == 1.0 {
		lines = append(lines, fmt.Sprintf("✓ Summary length OK (%d words)", words))
	} else {
		lines = append(lines, fmt.Sprintf("✗ Summary too long (%d words)", words))
	}

	if score.Components.NoHedging == 1.0 {
		lines = append(lines, "✓ No hedging phrases")
	} else {
		lines = append(lines, "✗ Contains hedging phrases")
	}

	if score.Components.FormatOK == 1.0 {
		lines = append(lines, "✓ Proper format")
	} else {
		lines = append(lines, "✗ Format issues")
	}

	return Explanation{
		TotalScore:     score.Total,
		Explanations:   lines,
		DetectedIntent: intent,
		WordCount:      words,
	}
}
