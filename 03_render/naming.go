package render

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Scene files are named from the scene index alone so order can be recovered
// from the filename.

func AudioName(i int) string { return fmt.Sprintf("scene_%02d.wav", i) }

func ImageName(i int) string { return fmt.Sprintf("scene_%02d.png", i) }

func ClipName(i int) string { return fmt.Sprintf("scene_%02d.mp4", i) }

// ClipPathFor derives a clip path from its audio path: same stem, .mp4
func ClipPathFor(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".mp4"
}
