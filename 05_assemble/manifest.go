package assemble

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteManifest writes one `file '<path>'` line per clip, in order, in the
// concat demuxer's list format. Paths inside the manifest's directory are
// written relative to it, since the demuxer resolves them that way.
func WriteManifest(path string, clips []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, clip := range clips {
		fmt.Fprintf(w, "file '%s'\n", escapeQuote(manifestPath(filepath.Dir(path), clip)))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadManifest returns the clip entries of a manifest, in order
func ReadManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var clips []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "file '") || !strings.HasSuffix(line, "'") {
			return nil, fmt.Errorf("malformed manifest line %q", line)
		}
		clips = append(clips, unescapeQuote(line[len("file '"):len(line)-1]))
	}
	return clips, nil
}

func manifestPath(dir, clip string) string {
	if rel, err := filepath.Rel(dir, clip); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	if abs, err := filepath.Abs(clip); err == nil {
		return abs
	}
	return clip
}

// The demuxer reads ' inside a quoted path as '\''
func escapeQuote(s string) string { return strings.ReplaceAll(s, "'", `'\''`) }

func unescapeQuote(s string) string { return strings.ReplaceAll(s, `'\''`, "'") }
