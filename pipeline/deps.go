package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	render "github.com/lwneal/cinematic-generator/03_render"
	assemble "github.com/lwneal/cinematic-generator/05_assemble"
	upload "github.com/lwneal/cinematic-generator/07_upload"
	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/llm"
	"github.com/lwneal/cinematic-generator/media"
	"github.com/lwneal/cinematic-generator/types"
)

// Uploader publishes the finished video
type Uploader interface {
	Upload(ctx context.Context, videoFile string, meta *types.VideoMetadata) (id, url string, err error)
}

// Deps are the external services a run talks to. Tests swap in fakes.
type Deps struct {
	Completer llm.Completer
	Audio     render.AudioRenderer
	Image     render.ImageRenderer
	Media     media.Processor
	Music     assemble.MusicSource
	Uploader  Uploader
	Now       func() time.Time
}

// NewDeps builds the production services from cfg. The completion client is
// only required when withCompleter is set, so assembly works offline.
func NewDeps(cfg *config.Config, withCompleter bool) (Deps, error) {
	d := Deps{Now: time.Now}

	if withCompleter {
		client, err := llm.NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.Story.BaseURL, cfg.Story.Model, cfg.Story.CallTimeout)
		if err != nil {
			return d, err
		}
		d.Completer = &llm.Retrying{Next: client, MaxAttempts: cfg.Story.MaxAttempts}
	}

	d.Audio = &render.CommandRenderer{Command: cfg.Render.TTSCommand, Timeout: cfg.Render.CallTimeout}
	switch cfg.Render.ImageBackend {
	case "pollinations":
		pr := render.NewPollinationsRenderer(cfg.Compose.OutputWidth, cfg.Compose.OutputHeight, cfg.Render.CallTimeout)
		if cfg.Render.ImageInterval > 0 {
			pr.Limiter = rate.NewLimiter(rate.Every(cfg.Render.ImageInterval), 1)
		}
		d.Image = pr
	default:
		d.Image = &render.CommandRenderer{Command: cfg.Render.ArtCommand, Timeout: cfg.Render.CallTimeout}
	}

	d.Media = media.NewFFmpeg(cfg.Pipeline.FFmpegBinary, cfg.Pipeline.FFprobeBinary, cfg.Pipeline.MediaTimeout)

	if cfg.Assemble.MusicFile != "" {
		d.Music = assemble.StaticMusicSource(cfg.Assemble.MusicFile)
	} else {
		d.Music = assemble.NewDirMusicSource(cfg.Assemble.MusicDir, 0)
	}

	if cfg.Upload.Enabled {
		creds, err := upload.CredentialsFromEnv()
		if err != nil {
			return d, fmt.Errorf("upload enabled: %w", err)
		}
		d.Uploader = upload.New(cfg.Upload, creds)
	}
	return d, nil
}
