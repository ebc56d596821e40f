// Package compose turns one scene's audio and still image into a video clip.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	render "github.com/lwneal/cinematic-generator/03_render"
	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/media"
	"github.com/lwneal/cinematic-generator/types"
)

// AnimationFPS is zoompan's default output rate
const AnimationFPS = 25

// Composer applies a slow Ken Burns zoom to a still image and muxes in the dialogue
type Composer struct {
	media media.Processor
	cfg   config.ComposeConfig
}

// New creates a new Composer
func New(p media.Processor, cfg config.ComposeConfig) *Composer {
	return &Composer{media: p, cfg: cfg}
}

// Compose writes a clip next to the audio file, named after its stem.
// The clip is as long as the shorter of the audio and the zoom window.
func (c *Composer) Compose(ctx context.Context, audioPath, imagePath string) (string, error) {
	index := sceneIndex(audioPath)
	logger := log.WithFields(log.Fields{"stage": "compose", "scene": index})

	for _, in := range []string{audioPath, imagePath} {
		if _, err := os.Stat(in); err != nil {
			return "", &types.RenderFailedError{Scene: index, Kind: types.KindClip, Err: fmt.Errorf("missing input: %w", err)}
		}
	}

	out := render.ClipPathFor(audioPath)
	logger.Infof("Composing %s...", filepath.Base(out))

	if err := c.media.Run(ctx, c.Args(audioPath, imagePath, out)...); err != nil {
		return "", &types.RenderFailedError{Scene: index, Kind: types.KindClip, Err: err}
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		return "", &types.RenderFailedError{Scene: index, Kind: types.KindClip, Err: fmt.Errorf("ffmpeg wrote no clip at %s", out)}
	}
	return out, nil
}

// Args builds the ffmpeg invocation for one clip
func (c *Composer) Args(audioPath, imagePath, out string) []string {
	return []string{"-y",
		"-i", imagePath,
		"-i", audioPath,
		"-movflags", "+faststart", // moov atom up front so the clip previews while written
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", c.cfg.AudioBitrate,
		"-ar", fmt.Sprintf("%d", c.cfg.SampleRate),
		"-ac", "1",
		"-filter_complex", c.KenBurnsFilter(),
		"-shortest",
		out,
	}
}

// KenBurnsFilter zooms in monotonically up to ZoomMax over ZoomFrames frames,
// recentring on the image each frame.
func (c *Composer) KenBurnsFilter() string {
	return fmt.Sprintf(
		"scale=%d:%d, zoompan=z='min(zoom+%g,%g)':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d",
		c.cfg.ScaleWidth, c.cfg.ScaleHeight,
		c.cfg.ZoomStep, c.cfg.ZoomMax,
		c.cfg.ZoomFrames,
		c.cfg.OutputWidth, c.cfg.OutputHeight,
	)
}

// AnimationWindow is how long the zoom runs before the still runs out
func (c *Composer) AnimationWindow() time.Duration {
	return time.Duration(c.cfg.ZoomFrames) * time.Second / AnimationFPS
}

// ExpectedDuration is the upper bound on a clip's length for a given audio length
func (c *Composer) ExpectedDuration(audio time.Duration) time.Duration {
	if w := c.AnimationWindow(); w < audio {
		return w
	}
	return audio
}

// Verify probes a finished clip and checks it is no longer than its audio
// or the zoom window allows, give or take one frame.
func (c *Composer) Verify(ctx context.Context, audioPath, clipPath string) error {
	audio, err := c.media.Probe(ctx, audioPath)
	if err != nil {
		return err
	}
	clip, err := c.media.Probe(ctx, clipPath)
	if err != nil {
		return err
	}
	if limit := c.ExpectedDuration(audio) + time.Second/AnimationFPS; clip > limit {
		return fmt.Errorf("clip %s runs %s, longer than %s", filepath.Base(clipPath), clip, limit)
	}
	return nil
}

// sceneIndex recovers the index from a scene_NN file name, or -1
func sceneIndex(path string) int {
	var i int
	if _, err := fmt.Sscanf(filepath.Base(path), "scene_%d.", &i); err != nil {
		return -1
	}
	return i
}
