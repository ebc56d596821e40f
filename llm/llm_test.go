package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrying_RecoversAfterFailures(t *testing.T) {
	calls := 0
	r := &Retrying{
		Next: CompleterFunc(func(context.Context, Request) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("rate limited")
			}
			return "fine", nil
		}),
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
	}

	got, err := r.Complete(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "fine" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestRetrying_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	r := &Retrying{
		Next: CompleterFunc(func(context.Context, Request) (string, error) {
			calls++
			return "", boom
		}),
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
	}

	_, err := r.Complete(context.Background(), Request{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetrying_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := &Retrying{
		Next: CompleterFunc(func(ctx context.Context, _ Request) (string, error) {
			calls++
			cancel()
			return "", ctx.Err()
		}),
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
	}

	if _, err := r.Complete(ctx, Request{}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "", "gpt-3.5-turbo-instruct", 0); err == nil {
		t.Error("expected error without API key")
	}
}
