package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Story    StoryConfig    `yaml:"story"`
	Render   RenderConfig   `yaml:"render"`
	Compose  ComposeConfig  `yaml:"compose"`
	Assemble AssembleConfig `yaml:"assemble"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Upload   UploadConfig   `yaml:"upload"`
	Paths    PathsConfig    `yaml:"paths"`
	LogLevel string         `yaml:"log_level"`
}

type StoryConfig struct {
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	NumScenes        int           `yaml:"num_scenes"`
	FirstTemperature float64       `yaml:"first_temperature"`
	SceneTemperature float64       `yaml:"scene_temperature"`
	FinalTemperature float64       `yaml:"final_temperature"`
	SceneMaxTokens   int           `yaml:"scene_max_tokens"`
	FinalMaxTokens   int           `yaml:"final_max_tokens"`
	StopSequence     string        `yaml:"stop_sequence"`
	MaxAttempts      int           `yaml:"max_attempts"`
	CallTimeout      time.Duration `yaml:"call_timeout"`
}

type RenderConfig struct {
	TTSCommand   string        `yaml:"tts_command"`
	ArtCommand   string        `yaml:"art_command"`
	ImageBackend string        `yaml:"image_backend"` // command | pollinations
	MaxAttempts  int           `yaml:"max_attempts"`
	CallTimeout  time.Duration `yaml:"call_timeout"`

	// ImageInterval is the minimum gap between HTTP image requests
	ImageInterval time.Duration `yaml:"image_interval"`
}

type ComposeConfig struct {
	ScaleWidth   int     `yaml:"scale_width"`
	ScaleHeight  int     `yaml:"scale_height"`
	OutputWidth  int     `yaml:"output_width"`
	OutputHeight int     `yaml:"output_height"`
	ZoomStep     float64 `yaml:"zoom_step"`
	ZoomMax      float64 `yaml:"zoom_max"`
	ZoomFrames   int     `yaml:"zoom_frames"`
	AudioBitrate string  `yaml:"audio_bitrate"`
	SampleRate   int     `yaml:"sample_rate"`
}

// DefaultSubtitleStyle is the ASS force_style for burned subtitles
const DefaultSubtitleStyle = "FontName=Arial,FontSize=18,Bold=1,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Alignment=2,MarginV=30"

type AssembleConfig struct {
	MusicDir     string  `yaml:"music_dir"`
	MusicFile    string  `yaml:"music_file"`
	VoiceVolume  float64 `yaml:"voice_volume"`
	MusicVolume  float64 `yaml:"music_volume"`
	CRF          int     `yaml:"crf"`
	Preset       string  `yaml:"preset"`
	AudioBitrate string  `yaml:"audio_bitrate"`
	ManifestName string  `yaml:"manifest_name"`

	// Subtitles burns each scene's dialogue into the final video
	Subtitles        bool   `yaml:"subtitles"`
	SubtitleStyle    string `yaml:"subtitle_style"`
	SubtitleMaxChars int    `yaml:"subtitle_max_chars"`
}

type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	MediaTimeout   time.Duration `yaml:"media_timeout"`
	FFmpegBinary   string        `yaml:"ffmpeg_binary"`
	FFprobeBinary  string        `yaml:"ffprobe_binary"`
	// KeepRunOnError leaves a failed run's directory in place so it can be resumed
	KeepRunOnError bool          `yaml:"keep_run_on_error"`
}

type UploadConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Visibility        string   `yaml:"visibility"`
	CategoryID        string   `yaml:"category_id"`
	Tags              []string `yaml:"tags"`
	NotifySubscribers bool     `yaml:"notify_subscribers"`
	MadeForKids       bool     `yaml:"made_for_kids"`
	DefaultLanguage   string   `yaml:"default_language"`
}

type PathsConfig struct {
	WorkDir string `yaml:"work_dir"`
	Output  string `yaml:"output"`
}

// Default returns the settings the pipeline runs with when no config file is present
func Default() *Config {
	return &Config{
		Story: StoryConfig{
			Model:            "gpt-3.5-turbo-instruct",
			NumScenes:        12,
			FirstTemperature: 0.75,
			SceneTemperature: 0.80,
			FinalTemperature: 0.60,
			SceneMaxTokens:   255,
			FinalMaxTokens:   2000,
			StopSequence:     "```",
			MaxAttempts:      3,
			CallTimeout:      2 * time.Minute,
		},
		Render: RenderConfig{
			TTSCommand:   "tts",
			ArtCommand:   "art",
			ImageBackend: "command",
			MaxAttempts:  3,
			CallTimeout:  5 * time.Minute,

			ImageInterval: 3 * time.Second,
		},
		Compose: ComposeConfig{
			ScaleWidth:   3072,
			ScaleHeight:  4224,
			OutputWidth:  512,
			OutputHeight: 704,
			ZoomStep:     0.0015,
			ZoomMax:      1.4,
			ZoomFrames:   500,
			AudioBitrate: "192k",
			SampleRate:   44100,
		},
		Assemble: AssembleConfig{
			MusicDir:     "~/Music/royaltyfree-cc/epic",
			VoiceVolume:  1.0,
			MusicVolume:  0.15,
			CRF:          23,
			Preset:       "veryfast",
			AudioBitrate: "192k",
			ManifestName: "video_list.txt",

			SubtitleStyle:    DefaultSubtitleStyle,
			SubtitleMaxChars: 42,
		},
		Pipeline: PipelineConfig{
			Workers:        1,
			MediaTimeout:   30 * time.Minute,
			FFmpegBinary:   "ffmpeg",
			FFprobeBinary:  "ffprobe",
			KeepRunOnError: true,
		},
		Upload: UploadConfig{
			Visibility:      "private",
			CategoryID:      "27",
			DefaultLanguage: "en",
		},
		Paths: PathsConfig{
			WorkDir: ".",
			Output:  ".",
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.Assemble.MusicDir = expandHome(cfg.Assemble.MusicDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Story.Model, "OPENAI_MODEL")
	setString(&c.Story.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Render.TTSCommand, "TTS_COMMAND")
	setString(&c.Render.ArtCommand, "ART_COMMAND")
	setString(&c.Assemble.MusicDir, "MUSIC_DIR")
	if v := os.Getenv("PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.Workers = n
		}
	}
}

// Validate rejects settings no run could succeed with
func (c *Config) Validate() error {
	if c.Story.NumScenes < 1 {
		return fmt.Errorf("story.num_scenes must be at least 1, got %d", c.Story.NumScenes)
	}
	if c.Story.StopSequence == "" {
		return fmt.Errorf("story.stop_sequence must not be empty")
	}
	if c.Assemble.MusicVolume < 0 || c.Assemble.VoiceVolume < 0 {
		return fmt.Errorf("assemble volumes must not be negative")
	}
	if c.Pipeline.Workers < 1 {
		c.Pipeline.Workers = 1
	}
	switch c.Render.ImageBackend {
	case "command", "pollinations":
	default:
		return fmt.Errorf("render.image_backend %q is not one of command, pollinations", c.Render.ImageBackend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
