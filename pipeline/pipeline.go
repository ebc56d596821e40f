// Package pipeline runs a story from premise to finished video.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	story "github.com/lwneal/cinematic-generator/01_story"
	parse "github.com/lwneal/cinematic-generator/02_parse"
	render "github.com/lwneal/cinematic-generator/03_render"
	compose "github.com/lwneal/cinematic-generator/04_compose"
	assemble "github.com/lwneal/cinematic-generator/05_assemble"
	finalize "github.com/lwneal/cinematic-generator/06_finalize"
	upload "github.com/lwneal/cinematic-generator/07_upload"
	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/types"
)

// StateFile is the run state's file name, in the run directory and later the workspace
const StateFile = "pipeline_state.json"

// Options select what one run reads and writes
type Options struct {
	// StoryJSON is where the structured output is written, or read when SkipGenerate is set.
	StoryJSON   string
	OutputVideo string
	PremisePath string
	// Scenes overrides story.num_scenes when positive.
	Scenes int
	// RunID resumes an earlier run; empty starts a new one.
	RunID        string
	SkipGenerate bool
}

// Pipeline wires the stages together
type Pipeline struct {
	cfg  *config.Config
	deps Deps
}

// New creates a Pipeline
func New(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps}
}

func (p *Pipeline) now() time.Time {
	if p.deps.Now != nil {
		return p.deps.Now()
	}
	return time.Now()
}

// WithDefaults fills the file names the CLI would otherwise default to. The
// run id keeps two runs started in the same second apart.
func (o Options) WithDefaults(now time.Time, runID, outputDir string) Options {
	stem := fmt.Sprintf("story_%d", now.Unix())
	if runID != "" {
		stem += "_" + runID
	}
	if o.StoryJSON == "" {
		o.StoryJSON = filepath.Join(outputDir, stem+".json")
	}
	if o.OutputVideo == "" {
		o.OutputVideo = filepath.Join(outputDir, stem+".mp4")
	}
	return o
}

// resumeFrom points unset file names at the ones an earlier attempt used
func (o Options) resumeFrom(prev *types.RunState) Options {
	if o.StoryJSON == "" {
		o.StoryJSON = prev.StoryFile
	}
	if o.OutputVideo == "" {
		o.OutputVideo = prev.OutputVideo
	}
	return o
}

func (p *Pipeline) premise(opts Options) (story.Premise, error) {
	if opts.PremisePath == "" {
		return story.DefaultPremise, nil
	}
	return story.LoadPremise(opts.PremisePath)
}

// Generate runs the prompting protocol and writes the raw structured output to opts.StoryJSON
func (p *Pipeline) Generate(ctx context.Context, opts Options) (*story.Story, error) {
	if p.deps.Completer == nil {
		return nil, errors.New("no completion client configured")
	}
	premise, err := p.premise(opts)
	if err != nil {
		return nil, fmt.Errorf("load premise: %w", err)
	}
	n := opts.Scenes
	if n <= 0 {
		n = p.cfg.Story.NumScenes
	}

	s, err := story.New(p.deps.Completer, premise, p.cfg.Story).Generate(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := story.WriteRaw(opts.StoryJSON, s); err != nil {
		return nil, fmt.Errorf("write story: %w", err)
	}
	log.WithField("stage", "story").Infof("Story saved: %s", opts.StoryJSON)
	return s, nil
}

// Run executes every stage and returns the final run state. On failure the
// returned state carries the error and the run directory is kept for resuming
// unless pipeline.keep_run_on_error is off.
func (p *Pipeline) Run(ctx context.Context, opts Options) (state *types.RunState, err error) {
	started := p.now()

	runID := opts.RunID
	resume := runID != ""
	if !resume {
		runID = uuid.NewString()[:8]
	}
	runDir := filepath.Join(p.cfg.Paths.WorkDir, ".runs", runID)
	logger := log.WithField("run_id", runID)

	if resume {
		prev, err := loadState(filepath.Join(runDir, StateFile))
		switch {
		case err == nil:
			opts = opts.resumeFrom(prev)
		case os.IsNotExist(err):
			logger.Warn("No saved state for this run, starting from the options given")
		default:
			return nil, fmt.Errorf("resume run %s: %w", runID, err)
		}
	}
	opts = opts.WithDefaults(started, runID, p.cfg.Paths.Output)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	logger.Infof("🎬 Cinematic pipeline starting, run dir %s", runDir)

	state = &types.RunState{
		RunID:       runID,
		StartedAt:   started.UTC().Format(time.RFC3339),
		StoryFile:   opts.StoryJSON,
		OutputVideo: opts.OutputVideo,
	}
	stateDir := runDir

	defer func() {
		state.CompletedAt = p.now().UTC().Format(time.RFC3339)
		if err != nil {
			state.Error = err.Error()
		}
		saveJSON(filepath.Join(stateDir, StateFile), state)
		if err != nil && stateDir == runDir && !p.cfg.Pipeline.KeepRunOnError {
			os.RemoveAll(runDir)
		}
	}()

	premise, err := p.premise(opts)
	if err != nil {
		return state, fmt.Errorf("load premise: %w", err)
	}
	state.PremiseTitle = premise.Title

	// ── Stage 1: story ──
	switch {
	case opts.SkipGenerate:
		logger.Infof("Using existing story %s", opts.StoryJSON)
		if opts.PremisePath == "" {
			// the default premise did not write this story
			premise = story.Premise{Title: strings.TrimSuffix(filepath.Base(opts.StoryJSON), filepath.Ext(opts.StoryJSON))}
			state.PremiseTitle = premise.Title
		}
	case resume && fileExists(opts.StoryJSON):
		logger.Infof("Resuming with story %s", opts.StoryJSON)
	default:
		logger.Info("━━━ STAGE 1: Story ━━━")
		if _, err := p.Generate(ctx, opts); err != nil {
			return state, err
		}
		if resume {
			// scenes from an earlier attempt belong to a different story
			if err := clearScenes(runDir); err != nil {
				return state, err
			}
		}
	}

	// ── Stage 2: parse ──
	logger.Info("━━━ STAGE 2: Parse ━━━")
	scenes, shape, err := parse.ParseFile(opts.StoryJSON)
	if err != nil {
		return state, err
	}
	if len(scenes) == 0 {
		return state, &types.ParseFailedError{Path: opts.StoryJSON, Err: fmt.Errorf("%w: the list is empty", types.ErrNoSceneList)}
	}
	state.SceneCount = len(scenes)
	logger.Infof("Parsed %d scenes (%s)", len(scenes), shape)

	// ── Stage 3: scenes ──
	logger.Info("━━━ STAGE 3: Scenes ━━━")
	assets, err := p.renderScenes(ctx, scenes, runDir)
	state.Scenes = finished(assets)
	if err != nil {
		return state, err
	}
	saveJSON(filepath.Join(runDir, StateFile), state)

	// ── Stage 4: assemble ──
	logger.Info("━━━ STAGE 4: Assemble ━━━")
	clips := make([]string, len(assets))
	for i, a := range assets {
		clips[i] = a.ClipFile
	}
	asm := assemble.New(p.deps.Media, p.deps.Music, p.cfg.Assemble)
	if p.cfg.Assemble.Subtitles {
		srt, err := p.writeSubtitles(ctx, scenes, clips, runDir)
		if err != nil {
			return state, &types.AssemblyFailedError{Stage: types.StageSubtitles, Err: err}
		}
		asm.SubtitleFile = srt
	}
	res, err := asm.Assemble(ctx, clips, filepath.Join(runDir, p.cfg.Assemble.ManifestName), opts.OutputVideo)
	if err != nil {
		return state, err
	}
	state.ManifestFile = res.ManifestFile
	state.MusicFile = res.MusicFile
	state.VideoFile = res.VideoFile

	// ── Stage 5: finalize ──
	logger.Info("━━━ STAGE 5: Finalize ━━━")
	statePath := filepath.Join(runDir, StateFile)
	saveJSON(statePath, state)
	files := make([]string, 0, 3*len(assets)+3)
	for _, a := range assets {
		files = append(files, a.AudioFile, a.ImageFile, a.ClipFile)
	}
	files = append(files, res.ManifestFile, opts.StoryJSON, statePath)
	if res.SubtitleFile != "" {
		files = append(files, res.SubtitleFile)
	}

	fin := &finalize.Finalizer{Root: p.cfg.Paths.Output, Now: p.deps.Now}
	workspace, err := fin.Finalize(files)
	if err != nil {
		return state, err
	}
	stateDir = workspace
	state.Workspace = workspace
	state.StoryFile = relocate(workspace, state.StoryFile)
	state.ManifestFile = relocate(workspace, state.ManifestFile)
	for i := range state.Scenes {
		a := &state.Scenes[i]
		a.AudioFile = relocate(workspace, a.AudioFile)
		a.ImageFile = relocate(workspace, a.ImageFile)
		a.ClipFile = relocate(workspace, a.ClipFile)
	}
	if err := os.RemoveAll(runDir); err != nil {
		logger.Warnf("Could not remove run dir: %v", err)
	}

	// ── Stage 6: upload ──
	if p.cfg.Upload.Enabled && p.deps.Uploader != nil {
		logger.Info("━━━ STAGE 6: Upload ━━━")
		meta := upload.BuildMetadata(premise.Title, premise.Topic, scenes, p.cfg.Upload)
		state.Metadata = meta
		id, url, err := p.deps.Uploader.Upload(ctx, state.VideoFile, meta)
		if err != nil {
			return state, err
		}
		state.YouTubeID = id
		state.YouTubeURL = url
		if _, err := upload.LogUpload(id, url, state.VideoFile, workspace, meta); err != nil {
			logger.Warnf("Could not save upload log: %v", err)
		}
	}

	logger.Infof("✅ Done! Video saved to %s", state.VideoFile)
	return state, nil
}

// renderScenes renders and composes every scene, at most Workers at a time.
// Results are stored by index, so clip order is scene order however the work
// interleaves. Scenes whose files survive from an earlier attempt are reused.
func (p *Pipeline) renderScenes(ctx context.Context, scenes []types.SceneRecord, dir string) ([]types.SceneAssets, error) {
	renderer := render.New(p.deps.Audio, p.deps.Image, dir, p.cfg.Render.MaxAttempts)
	composer := compose.New(p.deps.Media, p.cfg.Compose)
	assets := make([]types.SceneAssets, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for i, rec := range scenes {
		g.Go(func() error {
			logger := log.WithFields(log.Fields{"stage": "scene", "scene": i})
			if a, ok := existingScene(dir, i); ok {
				logger.Info("Already rendered, skipping")
				assets[i] = a
				return nil
			}

			a, err := renderer.Render(gctx, rec, i)
			if err != nil {
				return err
			}
			clip, err := composer.Compose(gctx, a.AudioFile, a.ImageFile)
			if err != nil {
				return err
			}
			if err := composer.Verify(gctx, a.AudioFile, clip); err != nil {
				logger.Warnf("Clip check: %v", err)
			}
			a.ClipFile = clip
			assets[i] = a
			logger.Infof("Scene %d/%d composed", i+1, len(scenes))
			return nil
		})
	}
	return assets, g.Wait()
}

func (p *Pipeline) writeSubtitles(ctx context.Context, scenes []types.SceneRecord, clips []string, dir string) (string, error) {
	cues, err := assemble.Cues(ctx, p.deps.Media, scenes, clips, p.cfg.Assemble.SubtitleMaxChars)
	if err != nil {
		return "", err
	}
	if len(cues) == 0 {
		log.WithField("stage", "assemble").Warn("No dialogue to subtitle")
		return "", nil
	}
	path := filepath.Join(dir, "subtitles.srt")
	if err := assemble.WriteSRT(path, cues); err != nil {
		return "", err
	}
	if err := assemble.ValidateSRT(path); err != nil {
		return "", err
	}
	return path, nil
}

// finished drops the slots of scenes that never completed
func finished(assets []types.SceneAssets) []types.SceneAssets {
	done := make([]types.SceneAssets, 0, len(assets))
	for _, a := range assets {
		if a.ClipFile != "" {
			done = append(done, a)
		}
	}
	return done
}

func clearScenes(dir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "scene_*"))
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		log.WithField("stage", "story").Warnf("New story generated, discarding %d scene files from an earlier attempt", len(stale))
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("discard stale scene: %w", err)
		}
	}
	return nil
}

func existingScene(dir string, i int) (types.SceneAssets, bool) {
	a := types.SceneAssets{
		Index:     i,
		AudioFile: filepath.Join(dir, render.AudioName(i)),
		ImageFile: filepath.Join(dir, render.ImageName(i)),
		ClipFile:  filepath.Join(dir, render.ClipName(i)),
	}
	for _, f := range []string{a.AudioFile, a.ImageFile, a.ClipFile} {
		if !fileExists(f) {
			return a, false
		}
	}
	return a, true
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

func relocate(dir, path string) string {
	if path == "" {
		return ""
	}
	return filepath.Join(dir, filepath.Base(path))
}

func loadState(path string) (*types.RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st types.RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &st, nil
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warnf("Could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warnf("Could not save %s: %v", path, err)
	}
}
