package assemble

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MusicSource picks the background track for a video
type MusicSource interface {
	Pick(ctx context.Context) (string, error)
}

// StaticMusicSource always returns the same track
type StaticMusicSource string

func (s StaticMusicSource) Pick(context.Context) (string, error) {
	if _, err := os.Stat(string(s)); err != nil {
		return "", err
	}
	return string(s), nil
}

// DirMusicSource picks uniformly at random among the tracks in a directory
type DirMusicSource struct {
	Dir string
	Ext string // ".mp3" when empty

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDirMusicSource creates a source over dir. A zero seed uses the clock.
func NewDirMusicSource(dir string, seed int64) *DirMusicSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DirMusicSource{Dir: dir, rng: rand.New(rand.NewSource(seed))}
}

func (d *DirMusicSource) Pick(context.Context) (string, error) {
	tracks, err := d.Tracks()
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("no music tracks found in %s", d.Dir)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return tracks[d.rng.Intn(len(tracks))], nil
}

// Tracks lists candidate tracks in name order
func (d *DirMusicSource) Tracks() ([]string, error) {
	ext := d.Ext
	if ext == "" {
		ext = ".mp3"
	}
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("read music dir: %w", err)
	}

	var tracks []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		tracks = append(tracks, filepath.Join(d.Dir, e.Name()))
	}
	sort.Strings(tracks)
	return tracks, nil
}
