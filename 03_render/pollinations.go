package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// PollinationsRenderer generates images via Pollinations.ai (free, no key needed)
type PollinationsRenderer struct {
	BaseURL    string
	Width      int
	Height     int
	// Limiter spaces requests out; nil means no limit
	Limiter    *rate.Limiter
	httpClient *http.Client
}

// NewPollinationsRenderer creates a renderer sized for the composer's input
func NewPollinationsRenderer(width, height int, timeout time.Duration) *PollinationsRenderer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PollinationsRenderer{
		BaseURL:    "https://image.pollinations.ai/prompt/",
		Width:      width,
		Height:     height,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *PollinationsRenderer) RenderImage(ctx context.Context, outPath, text string) error {
	if text == "" {
		return fmt.Errorf("empty art prompt")
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	imageURL := fmt.Sprintf("%s%s?width=%d&height=%d&nologo=true",
		p.BaseURL, url.PathEscape(text), p.Width, p.Height)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "cinematic-generator/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from Pollinations", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Validate it's actually an image (not an error HTML page)
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes), likely an error", len(data))
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("response is %s, not an image", ct)
	}

	return os.WriteFile(outPath, data, 0644)
}
