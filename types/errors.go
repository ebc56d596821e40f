package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUndecodable means the structured-output file is not valid JSON.
	ErrUndecodable = errors.New("structured output is not valid JSON")
	// ErrNoSceneList means the JSON decoded but holds no list of scenes.
	ErrNoSceneList = errors.New("no scene list found in structured output")
	// ErrWorkspaceExists means the output workspace directory is already taken.
	ErrWorkspaceExists = errors.New("output workspace already exists")
)

// Render failure kinds
const (
	KindAudio = "audio"
	KindImage = "image"
	KindClip  = "clip"
)

// Assembly stages
const (
	StageManifest  = "manifest"
	StageMusic     = "music"
	StageConcat    = "concat"
	StageSubtitles = "subtitles"
)

// GenerationFailedError reports a failed completion call. Step counts from 1;
// step N+1 is the structured re-serialization call.
type GenerationFailedError struct {
	Step int
	Err  error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed at step %d: %v", e.Step, e.Err)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// ParseFailedError reports a structured-output file that yielded no scenes
type ParseFailedError struct {
	Path string
	Err  error
}

func (e *ParseFailedError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseFailedError) Unwrap() error { return e.Err }

// RenderFailedError reports a scene whose audio, image or clip could not be produced
type RenderFailedError struct {
	Scene int
	Kind  string
	Err   error
}

func (e *RenderFailedError) Error() string {
	return fmt.Sprintf("scene %d: %s render failed: %v", e.Scene, e.Kind, e.Err)
}

func (e *RenderFailedError) Unwrap() error { return e.Err }

// AssemblyFailedError reports a failure while building the final video
type AssemblyFailedError struct {
	Stage string
	Err   error
}

func (e *AssemblyFailedError) Error() string {
	return fmt.Sprintf("assembly failed at %s: %v", e.Stage, e.Err)
}

func (e *AssemblyFailedError) Unwrap() error { return e.Err }

// FinalizeFailedError reports a failure while relocating intermediates.
// The final video is left where it was written.
type FinalizeFailedError struct {
	Path string
	Err  error
}

func (e *FinalizeFailedError) Error() string {
	return fmt.Sprintf("finalize %s: %v", e.Path, e.Err)
}

func (e *FinalizeFailedError) Unwrap() error { return e.Err }
