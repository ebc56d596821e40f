package assemble

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lwneal/cinematic-generator/media"
	"github.com/lwneal/cinematic-generator/types"
)

// Cue is one subtitle entry
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Cues times each scene's dialogue to its clip. Clips play back to back, so
// each cue starts where the previous clip ended.
func Cues(ctx context.Context, p media.Processor, scenes []types.SceneRecord, clips []string, maxChars int) ([]Cue, error) {
	if len(scenes) != len(clips) {
		return nil, fmt.Errorf("%d scenes but %d clips", len(scenes), len(clips))
	}
	var cues []Cue
	var at time.Duration
	for i, clip := range clips {
		d, err := p.Probe(ctx, clip)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", clip, err)
		}
		if text := wrap(scenes[i].Dialogue, maxChars); text != "" {
			cues = append(cues, Cue{Start: at, End: at + d, Text: text})
		}
		at += d
	}
	return cues, nil
}

// WriteSRT writes cues in SubRip format
func WriteSRT(path string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i, c := range cues {
		fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(c.Start), srtTimestamp(c.End), c.Text)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ValidateSRT checks that the SRT file holds at least one full cue
func ValidateSRT(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if lineCount < 3 {
		return fmt.Errorf("SRT file appears empty or malformed (%d lines)", lineCount)
	}
	return nil
}

func srtTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// wrap breaks text into lines of at most maxChars, never splitting a word
func wrap(text string, maxChars int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if maxChars <= 0 {
		return strings.Join(words, " ")
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > maxChars {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return strings.Join(append(lines, line), "\n")
}

// escapeSubtitlePath quotes a path for the subtitles filter, which treats
// backslashes, colons and quotes as syntax
func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "\\'")
	return path
}
