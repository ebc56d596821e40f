// Package assemble joins scene clips and background music into the final video.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/media"
	"github.com/lwneal/cinematic-generator/types"
)

// Assembler concatenates clips and mixes in a music bed
type Assembler struct {
	media media.Processor
	music MusicSource
	cfg   config.AssembleConfig

	// SubtitleFile, when set, is an SRT burned into the video
	SubtitleFile string
}

// Result describes a finished assembly
type Result struct {
	VideoFile    string
	ManifestFile string
	MusicFile    string
	SubtitleFile string
}

// New creates a new Assembler
func New(p media.Processor, music MusicSource, cfg config.AssembleConfig) *Assembler {
	return &Assembler{media: p, music: music, cfg: cfg}
}

// Assemble writes the manifest, picks a track and renders the final video in
// one ffmpeg pass. The output lasts as long as the shorter of the joined
// clips and the music.
func (a *Assembler) Assemble(ctx context.Context, clips []string, manifestPath, outPath string) (*Result, error) {
	logger := log.WithField("stage", "assemble")
	if len(clips) == 0 {
		return nil, &types.AssemblyFailedError{Stage: types.StageManifest, Err: errors.New("no clips to assemble")}
	}

	logger.Infof("Writing manifest of %d clips to %s", len(clips), manifestPath)
	if err := WriteManifest(manifestPath, clips); err != nil {
		return nil, &types.AssemblyFailedError{Stage: types.StageManifest, Err: err}
	}

	music, err := a.music.Pick(ctx)
	if err != nil {
		return nil, &types.AssemblyFailedError{Stage: types.StageMusic, Err: err}
	}
	logger.Infof("Background track: %s", filepath.Base(music))

	logger.Info("Concatenating clips and mixing music...")
	if err := a.media.Run(ctx, a.Args(manifestPath, music, outPath)...); err != nil {
		return nil, &types.AssemblyFailedError{Stage: types.StageConcat, Err: err}
	}
	fi, err := os.Stat(outPath)
	if err != nil || fi.Size() == 0 {
		return nil, &types.AssemblyFailedError{Stage: types.StageConcat, Err: fmt.Errorf("ffmpeg wrote no video at %s", outPath)}
	}

	logger.Infof("✅ Final video ready: %s", outPath)
	return &Result{VideoFile: outPath, ManifestFile: manifestPath, MusicFile: music, SubtitleFile: a.SubtitleFile}, nil
}

// Args builds the concat + mix invocation
func (a *Assembler) Args(manifestPath, music, outPath string) []string {
	return []string{"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-i", music,
		"-filter_complex", a.Filter(),
		"-map", a.videoLabel(),
		"-map", "[aout]",
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", a.cfg.CRF),
		"-preset", a.cfg.Preset,
		"-c:a", "aac",
		"-b:a", a.cfg.AudioBitrate,
		"-shortest",
		outPath,
	}
}

// Filter is the complete filter graph: the audio mix, plus the subtitle burn
// when a subtitle file is set.
func (a *Assembler) Filter() string {
	if a.SubtitleFile == "" {
		return a.MixFilter()
	}
	return fmt.Sprintf("[0:v]subtitles=%s:force_style='%s'[vout];%s",
		escapeSubtitlePath(a.SubtitleFile), a.cfg.SubtitleStyle, a.MixFilter())
}

func (a *Assembler) videoLabel() string {
	if a.SubtitleFile == "" {
		return "0:v"
	}
	return "[vout]"
}

// MixFilter lays the music under the voice at a fixed ratio. amix stops with
// the shorter input, so the music length caps the output.
func (a *Assembler) MixFilter() string {
	return fmt.Sprintf(
		"[0:a]volume=%g[voiceover];[1:a]volume=%g[music];[voiceover][music]amix=inputs=2:duration=shortest[aout]",
		a.cfg.VoiceVolume, a.cfg.MusicVolume,
	)
}
