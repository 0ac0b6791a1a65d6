package service

import (
	"strings"
	"testing"

	"github.com/promptarena/promptarena/internal/config"
	"github.com/promptarena/promptarena/internal/domain/run"
)

func testScorer() *Scorer {
	return NewScorer(
		[]string{"billing", "technical", "cancellation", "urgent", "other"},
		config.Defaults().Arena.Weights,
	)
}

func scoredVariant(category, summary string) run.Variant {
	return run.Variant{
		VariantID: "v1",
		Output:    &run.VariantOutput{Category: category, Summary: summary},
	}
}

func TestScoreNoOutputIsZero(t *testing.T) {
	s := testScorer()

	score := s.Score(run.Variant{VariantID: "v2", Error: "Timeout"}, "any input")
	if score.Total != 0 {
		t.Errorf("expected total 0, got %v", score.Total)
	}
	c := score.Components
	if c.LabelValid != 0 || c.LabelMatch != 0 || c.SummaryLenOK != 0 || c.NoHedging != 0 || c.FormatOK != 0 {
		t.Errorf("expected all components 0, got %+v", c)
	}
	if score.VariantID != "v2" {
		t.Errorf("expected variant id preserved, got %s", score.VariantID)
	}
}

func TestLabelValid(t *testing.T) {
	s := testScorer()

	if got := s.Score(scoredVariant("Billing", "short"), "x").Components.LabelValid; got != 1.0 {
		t.Errorf("case-insensitive valid label scored %v", got)
	}
	if got := s.Score(scoredVariant("sales", "short"), "x").Components.LabelValid; got != 0.0 {
		t.Errorf("unknown label scored %v", got)
	}
}

func TestDetectIntentBilling(t *testing.T) {
	s := testScorer()

	input := "I was charged twice for my subscription"
	if got := s.detectIntent(input); got != "billing" {
		t.Fatalf("expected billing intent, got %s", got)
	}

	if got := s.Score(scoredVariant("billing", "double charge reported"), input).Components.LabelMatch; got != 1.0 {
		t.Errorf("matching category scored label_match %v", got)
	}
	if got := s.Score(scoredVariant("cancellation", "double charge reported"), input).Components.LabelMatch; got != 0.0 {
		t.Errorf("mismatching category scored label_match %v", got)
	}
}

func TestDetectIntentTable(t *testing.T) {
	s := testScorer()

	tests := []struct {
		input string
		want  string
	}{
		{"the app keeps crashing when I open it", "technical"},
		{"I want to cancel and unsubscribe from everything", "cancellation"},
		{"I need help right now, this is urgent!", "urgent"},
		{"the weather is nice today", "other"},
		{"I can't log into the website", "technical"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := s.detectIntent(tt.input); got != tt.want {
				t.Errorf("detectIntent(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelMatchAmbiguousInput(t *testing.T) {
	s := testScorer()

	got := s.Score(scoredVariant("billing", "short summary"), "the weather is nice today").Components.LabelMatch
	if got != 0.5 {
		t.Errorf("expected partial credit 0.5 for undetected intent, got %v", got)
	}
}

func TestSummaryLength(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  float64
	}{
		{"short", 5, 1.0},
		{"at limit", 20, 1.0},
		{"five over", 25, 0.5},
		{"ten over", 30, 0.0},
		{"far over", 50, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := strings.TrimSpace(strings.Repeat("word ", tt.words))
			if got := summaryLength(summary); got != tt.want {
				t.Errorf("summaryLength(%d words) = %v, want %v", tt.words, got, tt.want)
			}
		})
	}
}

func TestNoHedging(t *testing.T) {
	s := testScorer()

	hedged := []string{
		"I think this might be billing",
		"This is probably a technical issue",
		"As an AI, I cannot be sure",
		"It seems like a cancellation request",
	}
	for _, summary := range hedged {
		if got := s.noHedging(summary); got != 0.0 {
			t.Errorf("noHedging(%q) = %v, want 0", summary, got)
		}
	}

	if got := s.noHedging("Customer reports a duplicate subscription charge"); got != 1.0 {
		t.Errorf("clean summary scored %v", got)
	}
}

func TestFormatOK(t *testing.T) {
	if got := formatOK(&run.VariantOutput{Category: "billing", Summary: "s"}); got != 1.0 {
		t.Errorf("complete output scored %v", got)
	}
	if got := formatOK(&run.VariantOutput{Category: "", Summary: "s"}); got != 0.0 {
		t.Errorf("empty category scored %v", got)
	}
	if got := formatOK(&run.VariantOutput{Category: "billing", Summary: "   "}); got != 0.0 {
		t.Errorf("whitespace summary scored %v", got)
	}
}

func TestTotalIsWeightedSum(t *testing.T) {
	s := testScorer()
	input := "I was charged twice for my subscription"

	score := s.Score(scoredVariant("billing", "Customer reports duplicate subscription charge"), input)
	w := config.Defaults().Arena.Weights
	c := score.Components
	want := c.LabelValid*w.LabelValid + c.LabelMatch*w.LabelMatch +
		c.SummaryLenOK*w.SummaryLenOK + c.NoHedging*w.NoHedging + c.FormatOK*w.FormatOK
	if score.Total != want {
		t.Errorf("total %v != weighted sum %v", score.Total, want)
	}
	if diff := score.Total - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("perfect output should score 1.0, got %v", score.Total)
	}
}

func TestExplainMatchesScore(t *testing.T) {
	s := testScorer()
	input := "I was charged twice for my subscription"
	v := scoredVariant("cancellation", "I think this might be billing related and the summary also runs quite long for a twenty word limit here")

	score := s.Score(v, input)
	exp := s.Explain(score, v, input)

	if exp.TotalScore != score.Total {
		t.Errorf("explanation total %v != score total %v", exp.TotalScore, score.Total)
	}
	if exp.DetectedIntent != "billing" {
		t.Errorf("expected detected intent billing, got %s", exp.DetectedIntent)
	}
	if len(exp.Explanations) != 5 {
		t.Fatalf("expected 5 explanation lines, got %d", len(exp.Explanations))
	}

	joined := strings.Join(exp.Explanations, "\n")
	for _, want := range []string{
		"✗ Category doesn't match detected intent (billing)",
		"✗ Contains hedging phrases",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected explanation %q in:\n%s", want, joined)
		}
	}
}

func TestExplainNoOutput(t *testing.T) {
	s := testScorer()

	exp := s.Explain(run.Score{}, run.Variant{VariantID: "v1", Error: "Timeout"}, "input")
	if len(exp.Explanations) != 1 || exp.Explanations[0] != "Variant failed to produce output" {
		t.Errorf("unexpected explanation %+v", exp.Explanations)
	}
}
