// Package render produces the audio and image assets of each scene.
package render

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/lwneal/cinematic-generator/types"
)

// Renderer turns scene records into audio and image files inside Dir
type Renderer struct {
	Audio AudioRenderer
	Image ImageRenderer
	Dir   string
	// MaxAttempts bounds tries per asset; values below 1 mean one try.
	MaxAttempts int
	// RetryInterval is the first backoff wait, one second by default.
	RetryInterval time.Duration
}

// New creates a Renderer writing into dir
func New(audio AudioRenderer, image ImageRenderer, dir string, maxAttempts int) *Renderer {
	return &Renderer{Audio: audio, Image: image, Dir: dir, MaxAttempts: maxAttempts}
}

// Render produces the dialogue audio, then the art image, for scene index.
// Failures are reported as *types.RenderFailedError.
func (r *Renderer) Render(ctx context.Context, rec types.SceneRecord, index int) (types.SceneAssets, error) {
	logger := log.WithFields(log.Fields{"stage": "render", "scene": index})
	assets := types.SceneAssets{
		Index:     index,
		AudioFile: filepath.Join(r.Dir, AudioName(index)),
		ImageFile: filepath.Join(r.Dir, ImageName(index)),
	}
	assets.ClipFile = ClipPathFor(assets.AudioFile)

	logger.Info("Rendering dialogue audio...")
	err := r.retry(ctx, logger, func() error {
		if err := r.Audio.RenderAudio(ctx, assets.AudioFile, rec.Dialogue); err != nil {
			return err
		}
		return checkOutput(assets.AudioFile)
	})
	if err != nil {
		return assets, &types.RenderFailedError{Scene: index, Kind: types.KindAudio, Err: err}
	}

	logger.Info("Rendering art...")
	err = r.retry(ctx, logger, func() error {
		if err := r.Image.RenderImage(ctx, assets.ImageFile, rec.VisualArtPrompt); err != nil {
			return err
		}
		return checkOutput(assets.ImageFile)
	})
	if err != nil {
		return assets, &types.RenderFailedError{Scene: index, Kind: types.KindImage, Err: err}
	}

	logger.Infof("✅ Assets ready: %s, %s", filepath.Base(assets.AudioFile), filepath.Base(assets.ImageFile))
	return assets, nil
}

func (r *Renderer) retry(ctx context.Context, logger *log.Entry, op func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	if r.RetryInterval > 0 {
		b.InitialInterval = r.RetryInterval
	}

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warnf("Attempt %d failed: %v (retrying in %s)", attempt, err, wait)
	}
	return backoff.RetryNotify(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx), notify)
}
