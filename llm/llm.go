// Package llm wraps the single-turn text completion service the story
// generator talks to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	log "github.com/sirupsen/logrus"
)

// Request is one completion call
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
	Stop        string
}

// Completer returns the model's continuation of a prompt
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// OpenAI calls the legacy completions endpoint, the one that accepts a raw
// prompt and a stop sequence.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates a client. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}, nil
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(o.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(req.Prompt)},
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
	if req.Stop != "" {
		params.Stop = openai.CompletionNewParamsStopUnion{OfString: openai.String(req.Stop)}
	}

	completion, err := o.client.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return completion.Choices[0].Text, nil
}

// Retrying retries a Completer with exponential backoff
type Retrying struct {
	Next        Completer
	MaxAttempts int
	// InitialInterval defaults to one second.
	InitialInterval time.Duration
}

func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	if r.InitialInterval > 0 {
		b.InitialInterval = r.InitialInterval
	}

	var text string
	attempt := 0
	op := func() error {
		attempt++
		var err error
		text, err = r.Next.Complete(ctx, req)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.WithField("stage", "story").Warnf("completion attempt %d failed: %v (retrying in %s)", attempt, err, wait)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", err
	}
	return text, nil
}
