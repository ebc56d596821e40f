package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// AudioRenderer turns a line of dialogue into an audio file
type AudioRenderer interface {
	RenderAudio(ctx context.Context, outPath, text string) error
}

// ImageRenderer turns an art prompt into a still image
type ImageRenderer interface {
	RenderImage(ctx context.Context, outPath, text string) error
}

// CommandRenderer runs an external renderer as `<command> <outPath> <text>`.
// It serves both as the "tts" and the "art" executable.
type CommandRenderer struct {
	Command string
	Timeout time.Duration
}

func (c *CommandRenderer) RenderAudio(ctx context.Context, outPath, text string) error {
	return c.run(ctx, outPath, text)
}

func (c *CommandRenderer) RenderImage(ctx context.Context, outPath, text string) error {
	return c.run(ctx, outPath, text)
}

func (c *CommandRenderer) run(ctx context.Context, outPath, text string) error {
	command := strings.TrimSpace(c.Command)
	if command == "" {
		return fmt.Errorf("no renderer command configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if strings.HasSuffix(command, ".py") {
		// Custom Python renderer script
		cmd = exec.CommandContext(ctx, "python3", command, outPath, text)
	} else {
		cmd = exec.CommandContext(ctx, command, outPath, text)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// A stale file from an earlier attempt must not pass the output check.
	_ = os.Remove(outPath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(stderr.String()))
	}
	return checkOutput(outPath)
}

// checkOutput rejects a missing or empty output file
func checkOutput(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("renderer produced no output: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("renderer produced an empty file: %s", path)
	}
	return nil
}
