package story

import (
	"context"
	"fmt"
	"os"

	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/llm"
	"github.com/lwneal/cinematic-generator/types"

	log "github.com/sirupsen/logrus"
)

// Story is the outcome of one generation run
type Story struct {
	// Raw is the final call's output: the model's attempt at a JSON scene list.
	Raw        string
	Transcript string
	Calls      int
}

// Generator elicits scenes one at a time and then asks for them back as JSON
type Generator struct {
	llm     llm.Completer
	premise Premise
	cfg     config.StoryConfig
}

// New creates a new story Generator
func New(c llm.Completer, premise Premise, cfg config.StoryConfig) *Generator {
	return &Generator{llm: c, premise: premise, cfg: cfg}
}

// Generate runs the full protocol for n scenes: n scene calls plus one
// structured re-serialization call.
func (g *Generator) Generate(ctx context.Context, n int) (*Story, error) {
	if n < 1 {
		return nil, fmt.Errorf("scene count must be at least 1, got %d", n)
	}
	logger := log.WithField("stage", "story")
	logger.Infof("Generating %d scenes with %s...", n, g.cfg.Model)

	t := NewTranscript(InitialPrompt(g.premise, n))
	var out string
	for step := 1; step <= n+1; step++ {
		next, text, err := g.Step(ctx, t.Snapshot(), step, n)
		if err != nil {
			return nil, err
		}
		// next extends the snapshot by the step's fragment and reply
		t.Append(next[t.Len():])
		out = text

		if step <= n {
			logger.Debugf("Scene %d/%d done, transcript is %d bytes", step, n, t.Len())
		}
	}

	logger.Infof("✅ Story ready: %d bytes of structured output", len(out))
	return &Story{Raw: out, Transcript: t.Snapshot(), Calls: n + 1}, nil
}

// Step advances a transcript by one call. Step 1 continues the seed as is,
// steps 2..n open a new scene block and step n+1 asks for the JSON.
func (g *Generator) Step(ctx context.Context, transcript string, step, n int) (next, text string, err error) {
	prompt := transcript + g.fragment(step, n)
	text, err = g.complete(ctx, prompt, step, n)
	if err != nil {
		return transcript, "", err
	}
	return prompt + text, text, nil
}

func (g *Generator) fragment(step, n int) string {
	switch {
	case step == 1:
		return ""
	case step <= n:
		return NextScenePrompt(step)
	default:
		return FinalPrompt()
	}
}

func (g *Generator) complete(ctx context.Context, prompt string, step, n int) (string, error) {
	req := llm.Request{
		Prompt:      prompt,
		Temperature: g.cfg.SceneTemperature,
		MaxTokens:   g.cfg.SceneMaxTokens,
		Stop:        g.cfg.StopSequence,
	}
	switch {
	case step == 1:
		req.Temperature = g.cfg.FirstTemperature
	case step > n:
		req.Temperature = g.cfg.FinalTemperature
		req.MaxTokens = g.cfg.FinalMaxTokens
	}

	text, err := g.llm.Complete(ctx, req)
	if err != nil {
		return "", &types.GenerationFailedError{Step: step, Err: err}
	}
	return text, nil
}

// WriteRaw saves the structured output verbatim. Nothing is validated here.
func WriteRaw(path string, s *Story) error {
	return os.WriteFile(path, []byte(s.Raw), 0644)
}
