package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Story.NumScenes != 12 {
		t.Errorf("NumScenes = %d, want 12", cfg.Story.NumScenes)
	}
	if cfg.Assemble.MusicVolume != 0.15 {
		t.Errorf("MusicVolume = %v, want 0.15", cfg.Assemble.MusicVolume)
	}
}

func TestLoad_OverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "story:\n  num_scenes: 4\n  final_max_tokens: 900\nrender:\n  image_backend: pollinations\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Story.NumScenes != 4 || cfg.Story.FinalMaxTokens != 900 {
		t.Errorf("story = %+v", cfg.Story)
	}
	// untouched keys keep their defaults
	if cfg.Story.SceneMaxTokens != 255 {
		t.Errorf("SceneMaxTokens = %d, want 255", cfg.Story.SceneMaxTokens)
	}
	if cfg.Render.ImageBackend != "pollinations" {
		t.Errorf("ImageBackend = %q", cfg.Render.ImageBackend)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TTS_COMMAND", "/usr/local/bin/say-it")
	t.Setenv("MUSIC_DIR", "/srv/music")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.TTSCommand != "/usr/local/bin/say-it" {
		t.Errorf("TTSCommand = %q", cfg.Render.TTSCommand)
	}
	if cfg.Assemble.MusicDir != "/srv/music" {
		t.Errorf("MusicDir = %q", cfg.Assemble.MusicDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero scenes", func(c *Config) { c.Story.NumScenes = 0 }, true},
		{"empty stop", func(c *Config) { c.Story.StopSequence = "" }, true},
		{"negative music", func(c *Config) { c.Assemble.MusicVolume = -1 }, true},
		{"unknown backend", func(c *Config) { c.Render.ImageBackend = "dalle" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
