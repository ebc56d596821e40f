package upload

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/types"
)

// YouTube rejects snippets past these limits
const (
	TitleMaxChars       = 100
	DescriptionMaxBytes = 5000
	tagsMaxChars        = 500
)

// BuildMetadata derives upload metadata from the premise and parsed scenes.
// The description lists each scene's dialogue in order.
func BuildMetadata(title, topic string, scenes []types.SceneRecord, cfg config.UploadConfig) *types.VideoMetadata {
	var sb strings.Builder
	if topic != "" && topic != title {
		sb.WriteString(topic)
		sb.WriteString("\n\n")
	}
	for i, s := range scenes {
		line := strings.Join(strings.Fields(s.Dialogue), " ")
		if line == "" {
			continue
		}
		fmt.Fprintf(&sb, "Scene %d: %s\n", i+1, line)
	}

	return &types.VideoMetadata{
		Title:       truncateRunes(strings.TrimSpace(title), TitleMaxChars),
		Description: truncateBytes(strings.TrimSpace(sb.String()), DescriptionMaxBytes),
		Tags:        limitTags(cfg.Tags, tagsMaxChars),
		CategoryID:  cfg.CategoryID,
		Visibility:  cfg.Visibility,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n-3]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// limitTags keeps tags in order until their combined length would pass max
func limitTags(tags []string, max int) []string {
	var out []string
	total := 0
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if total+len(t) > max {
			break
		}
		total += len(t)
		out = append(out, t)
	}
	return out
}
