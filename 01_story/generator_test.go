package story

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/llm"
	"github.com/lwneal/cinematic-generator/types"
)

type fakeCompleter struct {
	reqs  []llm.Request
	reply func(call int, req llm.Request) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if f.reply != nil {
		return f.reply(len(f.reqs), req)
	}
	return fmt.Sprintf(" line %d\nVisual Art Prompt: art %d", len(f.reqs), len(f.reqs)), nil
}

func testConfig() config.StoryConfig {
	return config.Default().Story
}

func TestGenerate_IssuesNPlusOneCalls(t *testing.T) {
	for _, n := range []int{1, 2, 12} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			fc := &fakeCompleter{}
			g := New(fc, DefaultPremise, testConfig())

			s, err := g.Generate(context.Background(), n)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if len(fc.reqs) != n+1 {
				t.Fatalf("calls = %d, want %d", len(fc.reqs), n+1)
			}
			if s.Calls != n+1 {
				t.Errorf("Story.Calls = %d, want %d", s.Calls, n+1)
			}
		})
	}
}

func TestGenerate_TranscriptOnlyGrows(t *testing.T) {
	fc := &fakeCompleter{}
	g := New(fc, DefaultPremise, testConfig())
	if _, err := g.Generate(context.Background(), 5); err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(fc.reqs); i++ {
		prev, cur := fc.reqs[i-1].Prompt, fc.reqs[i].Prompt
		if len(cur) < len(prev) {
			t.Fatalf("prompt %d shorter than prompt %d", i+1, i)
		}
		if !strings.HasPrefix(cur, prev) {
			t.Fatalf("prompt %d does not resend prompt %d verbatim", i+1, i)
		}
	}
}

func TestGenerate_ProtocolShape(t *testing.T) {
	fc := &fakeCompleter{
		reply: func(call int, req llm.Request) (string, error) {
			if call == 4 {
				return `[{"dialogue":"a","visualArtPrompt":"b"}]`, nil
			}
			return fmt.Sprintf(" scene-%d-text", call), nil
		},
	}
	cfg := testConfig()
	g := New(fc, DefaultPremise, cfg)

	s, err := g.Generate(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}

	first := fc.reqs[0]
	if !strings.HasSuffix(first.Prompt, "Scene 1:\n```\nDialogue:") {
		t.Errorf("seed does not end inside scene 1 block: %q", first.Prompt[len(first.Prompt)-40:])
	}
	if !strings.Contains(first.Prompt, "consists of 3 scenes") {
		t.Error("seed does not name the scene count")
	}
	if !strings.HasSuffix(fc.reqs[1].Prompt, " scene-1-text\n```\nScene 2:\n```") {
		t.Errorf("scene 2 prompt = ...%q", tail(fc.reqs[1].Prompt))
	}
	if !strings.HasSuffix(fc.reqs[2].Prompt, "\n```\nScene 3:\n```") {
		t.Errorf("scene 3 prompt = ...%q", tail(fc.reqs[2].Prompt))
	}
	final := fc.reqs[3]
	if !strings.HasSuffix(final.Prompt, "JSON:\n```") || !strings.Contains(final.Prompt, `"visualArtPrompt"`) {
		t.Errorf("final prompt = ...%q", tail(final.Prompt))
	}

	for i, r := range fc.reqs {
		if r.Stop != "```" {
			t.Errorf("call %d stop = %q", i+1, r.Stop)
		}
	}
	if fc.reqs[0].Temperature != cfg.FirstTemperature {
		t.Errorf("first temperature = %v", fc.reqs[0].Temperature)
	}
	if fc.reqs[1].Temperature != cfg.SceneTemperature {
		t.Errorf("scene temperature = %v", fc.reqs[1].Temperature)
	}
	if final.Temperature != cfg.FinalTemperature || final.MaxTokens != cfg.FinalMaxTokens {
		t.Errorf("final request = %+v", final)
	}
	if fc.reqs[1].MaxTokens != cfg.SceneMaxTokens {
		t.Errorf("scene max tokens = %d", fc.reqs[1].MaxTokens)
	}

	if s.Raw != `[{"dialogue":"a","visualArtPrompt":"b"}]` {
		t.Errorf("Raw = %q", s.Raw)
	}
	if !strings.HasSuffix(s.Transcript, s.Raw) {
		t.Error("transcript does not end with the final output")
	}
}

func TestGenerate_FailureReportsStep(t *testing.T) {
	boom := errors.New("boom")
	fc := &fakeCompleter{
		reply: func(call int, _ llm.Request) (string, error) {
			if call == 3 {
				return "", boom
			}
			return "ok", nil
		},
	}
	g := New(fc, DefaultPremise, testConfig())

	_, err := g.Generate(context.Background(), 4)
	var gf *types.GenerationFailedError
	if !errors.As(err, &gf) {
		t.Fatalf("err = %v, want GenerationFailedError", err)
	}
	if gf.Step != 3 || !errors.Is(err, boom) {
		t.Errorf("step = %d, err = %v", gf.Step, err)
	}
}

func TestStep_IsPure(t *testing.T) {
	fc := &fakeCompleter{reply: func(int, llm.Request) (string, error) { return " more", nil }}
	g := New(fc, DefaultPremise, testConfig())

	next, text, err := g.Step(context.Background(), "seed", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if text != " more" {
		t.Errorf("text = %q", text)
	}
	if next != "seed"+NextScenePrompt(2)+" more" {
		t.Errorf("next = %q", next)
	}

	next, _, _ = g.Step(context.Background(), "seed", 4, 3)
	if next != "seed"+FinalPrompt()+" more" {
		t.Errorf("final step next = %q", next)
	}
}

func TestWriteRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.json")
	if err := WriteRaw(path, &Story{Raw: "not even json"}); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "not even json" {
		t.Errorf("file = %q", got)
	}
}

func TestLoadPremise(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "premise.yaml")
	os.WriteFile(path, []byte("title: The Long Winter\nbackground: Snow.\n"), 0644)

	p, err := LoadPremise(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Topic != "The Long Winter" {
		t.Errorf("Topic = %q, want title fallback", p.Topic)
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("topic: x\n"), 0644)
	if _, err := LoadPremise(empty); err == nil {
		t.Error("expected error for premise without title")
	}
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript("a")
	tr.Append("bc")
	if tr.Snapshot() != "abc" || tr.Len() != 3 {
		t.Errorf("transcript = %q (%d)", tr.Snapshot(), tr.Len())
	}
}

func TestGenerate_ChainsSteps(t *testing.T) {
	reply := func(call int, _ llm.Request) (string, error) { return fmt.Sprintf(" reply %d", call), nil }
	g := New(&fakeCompleter{reply: reply}, DefaultPremise, testConfig())
	s, err := g.Generate(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}

	stepper := New(&fakeCompleter{reply: reply}, DefaultPremise, testConfig())
	want := InitialPrompt(DefaultPremise, 3)
	for step := 1; step <= 4; step++ {
		want, _, err = stepper.Step(context.Background(), want, step, 3)
		if err != nil {
			t.Fatal(err)
		}
	}
	if s.Transcript != want {
		t.Errorf("transcript differs from chained steps:\n got ...%q\nwant ...%q", tail(s.Transcript), tail(want))
	}
	if s.Raw != " reply 4" {
		t.Errorf("Raw = %q", s.Raw)
	}
}

func tail(s string) string {
	if len(s) > 40 {
		return s[len(s)-40:]
	}
	return s
}
