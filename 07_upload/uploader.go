// Package upload publishes the finished video to YouTube.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/lwneal/cinematic-generator/config"
	"github.com/lwneal/cinematic-generator/types"
)

// Credentials hold the OAuth2 refresh-token grant for the channel
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// CredentialsFromEnv reads YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_REFRESH_TOKEN
func CredentialsFromEnv() (Credentials, error) {
	c := Credentials{
		ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		RefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
	}
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return c, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}
	return c, nil
}

// Uploader handles YouTube video upload via Data API v3
type Uploader struct {
	cfg   config.UploadConfig
	creds Credentials
	// Endpoint overrides the API base URL; empty uses the public API
	Endpoint string
	// HTTPClient replaces the OAuth2 client when set
	HTTPClient *http.Client
}

// New creates a new Uploader
func New(cfg config.UploadConfig, creds Credentials) *Uploader {
	return &Uploader{cfg: cfg, creds: creds}
}

// Upload sends the video with its metadata and returns the video ID and watch URL
func (u *Uploader) Upload(ctx context.Context, videoFile string, meta *types.VideoMetadata) (string, string, error) {
	logger := log.WithField("stage", "upload")
	logger.Info("Authenticating with YouTube API...")

	opts := []option.ClientOption{option.WithHTTPClient(u.client(ctx))}
	if u.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(u.Endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return "", "", fmt.Errorf("youtube service: %w", err)
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()
	if fi, err := f.Stat(); err == nil {
		logger.Infof("Uploading %q (%.1f MB)", meta.Title, float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, u.video(meta)).
		NotifySubscribers(u.cfg.NotifySubscribers).
		Context(ctx)
	call.Media(f)
	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("youtube upload: %w", err)
	}

	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	logger.WithField("video_id", uploaded.Id).Infof("✅ Uploaded: %s", videoURL)
	return uploaded.Id, videoURL, nil
}

func (u *Uploader) video(meta *types.VideoMetadata) *youtube.Video {
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      u.cfg.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Visibility,
			SelfDeclaredMadeForKids: u.cfg.MadeForKids,
			// false would be dropped from the request otherwise
			ForceSendFields: []string{"SelfDeclaredMadeForKids"},
		},
	}
}

func (u *Uploader) client(ctx context.Context) *http.Client {
	if u.HTTPClient != nil {
		return u.HTTPClient
	}
	conf := &oauth2.Config{
		ClientID:     u.creds.ClientID,
		ClientSecret: u.creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: u.creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
}

// LogUpload saves the upload result next to the video
func LogUpload(videoID, videoURL, videoFile, outputDir string, meta *types.VideoMetadata) (string, error) {
	entry := map[string]interface{}{
		"video_id":    videoID,
		"video_url":   videoURL,
		"title":       meta.Title,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		"video_file":  videoFile,
	}
	logFile := filepath.Join(outputDir, fmt.Sprintf("upload_%s.json", time.Now().Format("20060102_150405")))
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(logFile, data, 0644); err != nil {
		return "", err
	}
	log.WithField("stage", "upload").Infof("Upload log saved: %s", logFile)
	return logFile, nil
}
