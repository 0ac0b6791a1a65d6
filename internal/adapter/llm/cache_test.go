package llm_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/promptarena/promptarena/internal/adapter/llm"
	"github.com/promptarena/promptarena/internal/port/provider"
)

type countingCompleter struct {
	calls atomic.Int64
	out   provider.Completion
	err   error
}

func (c *countingCompleter) Complete(context.Context, string, float64) (provider.Completion, error) {
	c.calls.Add(1)
	if c.err != nil {
		return provider.Completion{}, c.err
	}
	return c.out, nil
}

func TestCachedCompleterHit(t *testing.T) {
	inner := &countingCompleter{out: provider.Completion{Category: "billing", Summary: "s"}}
	cached, err := llm.NewCachedCompleter(inner, 8, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	out, err := cached.Complete(context.Background(), "prompt", 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if out.Category != "billing" {
		t.Errorf("unexpected completion %+v", out)
	}
	cached.Wait()

	out, err = cached.Complete(context.Background(), "prompt", 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if out.Category != "billing" {
		t.Errorf("unexpected cached completion %+v", out)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("expected 1 provider call, got %d", got)
	}
}

func TestCachedCompleterKeyIncludesTemperature(t *testing.T) {
	inner := &countingCompleter{out: provider.Completion{Category: "other"}}
	cached, err := llm.NewCachedCompleter(inner, 8, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	_, _ = cached.Complete(context.Background(), "prompt", 0.2)
	cached.Wait()
	_, _ = cached.Complete(context.Background(), "prompt", 0.7)

	if got := inner.calls.Load(); got != 2 {
		t.Errorf("expected 2 provider calls for distinct temperatures, got %d", got)
	}
}

func TestCachedCompleterDoesNotCacheErrors(t *testing.T) {
	inner := &countingCompleter{err: errors.New("provider down")}
	cached, err := llm.NewCachedCompleter(inner, 8, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer cached.Close()

	for i := 0; i < 2; i++ {
		if _, err := cached.Complete(context.Background(), "prompt", 0.2); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("expected both calls to reach the provider, got %d", got)
	}
}
