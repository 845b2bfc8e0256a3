package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iconidentify/instafetch/internal/domain"
)

const defaultBaseURL = "https://www.instagram.com"

// ProviderError wraps a provider failure with request context.
type ProviderError struct {
	Op        string
	Shortcode domain.Shortcode
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Shortcode != "" {
		return e.Op + " [" + e.Shortcode.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Client fetches post data from Instagram. Each client carries one
// outbound identity; rotation is done by picking another client from
// the pool, never by mutating a shared instance.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	userAgent    string
}

// NewClient creates a provider client with the given identity string.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Stream client for media downloads - header timeout only,
		// large files may legitimately exceed any overall timeout.
		streamClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
			Timeout: timeout,
		},
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
	}
}

// UserAgent returns the identity string this client presents upstream.
func (c *Client) UserAgent() string { return c.userAgent }

// postResponse is the JSON payload for a single post lookup.
type postResponse struct {
	Items []struct {
		Code      string `json:"code"`
		MediaType int    `json:"media_type"` // 1 photo, 2 video, 8 carousel
		User      struct {
			Username  string `json:"username"`
			IsPrivate bool   `json:"is_private"`
		} `json:"user"`
		Caption struct {
			Text string `json:"text"`
		} `json:"caption"`
		VideoVersions []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"video_versions"`
	} `json:"items"`
}

// ResolvePost retrieves post metadata for a shortcode.
func (c *Client) ResolvePost(ctx context.Context, shortcode domain.Shortcode) (*domain.PostMetadata, error) {
	url := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", c.baseURL, shortcode)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &ProviderError{Op: "resolve post", Shortcode: shortcode, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: "resolve post", Shortcode: shortcode, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound, http.StatusGone:
		return nil, domain.ErrPostNotFound
	case http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, domain.ErrPrivatePost
	default:
		return nil, &ProviderError{
			Op:        "resolve post",
			Shortcode: shortcode,
			Err:       fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	// A login wall serves HTML with a 200; treat it as a private post.
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil, domain.ErrPrivatePost
	}

	var pr postResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, &ProviderError{Op: "decode post", Shortcode: shortcode, Err: err}
	}

	if len(pr.Items) == 0 {
		return nil, domain.ErrPostNotFound
	}

	item := pr.Items[0]
	if item.User.IsPrivate {
		return nil, domain.ErrPrivatePost
	}

	meta := &domain.PostMetadata{
		Shortcode: shortcode,
		IsVideo:   item.MediaType == 2 && len(item.VideoVersions) > 0,
		Owner:     item.User.Username,
		Caption:   item.Caption.Text,
	}
	if meta.IsVideo {
		meta.VideoURL = item.VideoVersions[0].URL
	}
	return meta, nil
}

// DownloadPost streams the post's video into dir as <shortcode>.mp4 and
// writes a <shortcode>.json metadata sidecar next to it. The sidecar is
// swept by workspace cleanup after the video is delivered.
func (c *Client) DownloadPost(ctx context.Context, meta *domain.PostMetadata, dir string) error {
	if meta.VideoURL == "" {
		return domain.ErrNoVideo
	}

	req, err := http.NewRequestWithContext(ctx, "GET", meta.VideoURL, nil)
	if err != nil {
		return &ProviderError{Op: "download post", Shortcode: meta.Shortcode, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "video/mp4,video/*;q=0.9,*/*;q=0.8")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return &ProviderError{Op: "download post", Shortcode: meta.Shortcode, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusNotFound, http.StatusGone:
		return domain.ErrPostNotFound
	default:
		return &ProviderError{
			Op:        "download post",
			Shortcode: meta.Shortcode,
			Err:       fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	videoPath := filepath.Join(dir, string(meta.Shortcode)+".mp4")
	f, err := os.Create(videoPath)
	if err != nil {
		return &ProviderError{Op: "stage video", Shortcode: meta.Shortcode, Err: err}
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(videoPath)
		return &ProviderError{Op: "stage video", Shortcode: meta.Shortcode, Err: err}
	}
	if err := f.Close(); err != nil {
		return &ProviderError{Op: "stage video", Shortcode: meta.Shortcode, Err: err}
	}

	c.writeSidecar(meta, dir)
	return nil
}

// writeSidecar records post metadata next to the media file. Failures are
// ignored: the sidecar is informational and removed on cleanup anyway.
func (c *Client) writeSidecar(meta *domain.PostMetadata, dir string) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(dir, string(meta.Shortcode)+".json"), data, 0644)
}
