// Package media runs the ffmpeg and ffprobe binaries.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Processor is the media-processing service the composer and assembler drive
type Processor interface {
	// Run invokes ffmpeg with args.
	Run(ctx context.Context, args ...string) error
	// Probe returns the container duration of a media file.
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// FFmpeg shells out to the ffmpeg and ffprobe binaries
type FFmpeg struct {
	Binary      string
	ProbeBinary string
	// Timeout bounds each invocation; zero means no limit.
	Timeout time.Duration
}

// NewFFmpeg creates a Processor backed by local binaries
func NewFFmpeg(binary, probeBinary string, timeout time.Duration) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if probeBinary == "" {
		probeBinary = "ffprobe"
	}
	return &FFmpeg{Binary: binary, ProbeBinary: probeBinary, Timeout: timeout}
}

func (f *FFmpeg) Run(ctx context.Context, args ...string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	log.WithField("stage", "media").Debugf("%s %s", f.Binary, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", f.Binary, err, lastLines(stderr.String(), 5))
	}
	return nil
}

// Probe uses ffprobe to get accurate duration
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	out, err := exec.CommandContext(ctx, f.ProbeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", f.ProbeBinary, path, err)
	}
	return ParseDuration(string(out))
}

// ParseDuration converts ffprobe's seconds output into a Duration
func ParseDuration(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout > 0 {
		return context.WithTimeout(ctx, f.Timeout)
	}
	return context.WithCancel(ctx)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
