package types

// SceneRecord is one scene of a generated story: a voiced line plus an art prompt.
// Its identity is its position in the story.
type SceneRecord struct {
	Dialogue        string `json:"dialogue"`
	VisualArtPrompt string `json:"visualArtPrompt"`
}

// SceneAssets holds the files derived from one scene
type SceneAssets struct {
	Index     int    `json:"index"`
	AudioFile string `json:"audio_file"`
	ImageFile string `json:"image_file"`
	ClipFile  string `json:"clip_file"`
}

// VideoMetadata holds all YouTube upload metadata
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Visibility  string   `json:"visibility"`
}

// RunState tracks the full state of one pipeline run
type RunState struct {
	RunID        string         `json:"run_id"`
	StartedAt    string         `json:"started_at"`
	CompletedAt  string         `json:"completed_at"`
	PremiseTitle string         `json:"premise_title"`
	StoryFile    string         `json:"story_file"`
	OutputVideo  string         `json:"output_video"`
	SceneCount   int            `json:"scene_count"`
	Scenes       []SceneAssets  `json:"scenes"`
	ManifestFile string         `json:"manifest_file"`
	MusicFile    string         `json:"music_file"`
	VideoFile    string         `json:"video_file"`
	Workspace    string         `json:"workspace"`
	Metadata     *VideoMetadata `json:"metadata,omitempty"`
	YouTubeID    string         `json:"youtube_id,omitempty"`
	YouTubeURL   string         `json:"youtube_url,omitempty"`
	Error        string         `json:"error,omitempty"`
}
