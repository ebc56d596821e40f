package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/types"
)

func TestBuildMetadata(t *testing.T) {
	cfg := config.Default().Upload
	cfg.Tags = []string{"history", " ", "civil war"}
	scenes := []types.SceneRecord{
		{Dialogue: "Dawn breaks over\nthe cornfield."},
		{Dialogue: ""},
		{Dialogue: "The guns fall silent."},
	}

	meta := BuildMetadata("Antietam", "The bloodiest day", scenes, cfg)
	if meta.Title != "Antietam" {
		t.Errorf("title = %q", meta.Title)
	}
	wantDesc := "The bloodiest day\n\nScene 1: Dawn breaks over the cornfield.\nScene 3: The guns fall silent."
	if meta.Description != wantDesc {
		t.Errorf("description =\n%q\nwant\n%q", meta.Description, wantDesc)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"history", "civil war"}) {
		t.Errorf("tags = %q", meta.Tags)
	}
	if meta.Visibility != "private" || meta.CategoryID != "27" {
		t.Errorf("visibility/category = %s/%s", meta.Visibility, meta.CategoryID)
	}
}

func TestBuildMetadata_Limits(t *testing.T) {
	long := strings.Repeat("é", 150)
	scenes := []types.SceneRecord{{Dialogue: strings.Repeat("word ", 2000)}}
	cfg := config.Default().Upload
	for i := 0; i < 100; i++ {
		cfg.Tags = append(cfg.Tags, "tag-number")
	}

	meta := BuildMetadata(long, long, scenes, cfg)
	if n := len([]rune(meta.Title)); n != TitleMaxChars {
		t.Errorf("title runes = %d", n)
	}
	if len(meta.Description) > DescriptionMaxBytes {
		t.Errorf("description bytes = %d", len(meta.Description))
	}
	total := 0
	for _, tag := range meta.Tags {
		total += len(tag)
	}
	if total > tagsMaxChars {
		t.Errorf("tags total = %d", total)
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "id")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "tok")
	if _, err := CredentialsFromEnv(); err == nil {
		t.Error("expected error with missing secret")
	}
	t.Setenv("YOUTUBE_CLIENT_SECRET", "secret")
	c, err := CredentialsFromEnv()
	if err != nil || c.RefreshToken != "tok" {
		t.Errorf("creds = %+v, err = %v", c, err)
	}
}

func TestUpload(t *testing.T) {
	var gotPath, gotNotify string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotNotify = r.URL.Query().Get("notifySubscribers")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "abc123"})
	}))
	defer srv.Close()

	video := filepath.Join(t.TempDir(), "story.mp4")
	os.WriteFile(video, []byte("fake video"), 0644)

	u := New(config.Default().Upload, Credentials{})
	u.Endpoint = srv.URL + "/"
	u.HTTPClient = srv.Client()

	id, url, err := u.Upload(context.Background(), video, &types.VideoMetadata{Title: "Antietam", Visibility: "private"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "abc123" || url != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("id, url = %s, %s", id, url)
	}
	if !strings.HasSuffix(gotPath, "youtube/v3/videos") {
		t.Errorf("path = %s", gotPath)
	}
	if gotNotify != "false" {
		t.Errorf("notifySubscribers = %q", gotNotify)
	}
}

func TestLogUpload(t *testing.T) {
	dir := t.TempDir()
	path, err := LogUpload("abc", "https://www.youtube.com/watch?v=abc", "story.mp4", dir, &types.VideoMetadata{Title: "T"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var entry map[string]string
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatal(err)
	}
	if entry["video_id"] != "abc" || entry["title"] != "T" {
		t.Errorf("entry = %v", entry)
	}
}
