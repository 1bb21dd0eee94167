// Package source resolves what a job will actually process: an uploaded
// file, a YouTube URL, or both. YouTube titles come from the public oEmbed
// endpoint; metadata lookups are best effort and never fail a job.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Source types recorded on jobs.
const (
	TypeUpload  = "upload"
	TypeYouTube = "youtube"
)

var (
	// ErrMissingSource is returned when neither an upload nor a URL was given.
	ErrMissingSource = errors.New("missing video source")
	// ErrUploadNotFound is returned when the referenced upload does not exist.
	ErrUploadNotFound = errors.New("uploaded file not found")
)

// Video identifies the resolved input for a job.
type Video struct {
	Type     string `json:"type"`
	FilePath string `json:"file_path,omitempty"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Request names the inputs to resolve.
type Request struct {
	URL      string
	UploadID string
}

// Resolver maps upload IDs and URLs to a concrete video source.
type Resolver struct {
	uploadsDir string
	client     *http.Client
	oembedBase string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the metadata HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithOEmbedBase overrides the oEmbed endpoint, for tests.
func WithOEmbedBase(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.oembedBase = base
		}
	}
}

// NewResolver constructs a resolver rooted at uploadsDir.
func NewResolver(uploadsDir string, opts ...Option) *Resolver {
	r := &Resolver{
		uploadsDir: uploadsDir,
		client:     &http.Client{Timeout: 10 * time.Second},
		oembedBase: "https://www.youtube.com/oembed",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve prefers the upload when both inputs are present; the URL then only
// contributes display metadata.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Video, error) {
	if req.UploadID != "" {
		filePath := filepath.Join(r.uploadsDir, req.UploadID)
		if _, err := os.Stat(filePath); err != nil {
			return Video{}, ErrUploadNotFound
		}
		video := Video{
			Type:     TypeUpload,
			FilePath: filePath,
			URL:      req.URL,
			Title:    filepath.Base(req.UploadID),
		}
		if req.URL != "" {
			if meta := r.fetchMetadata(ctx, req.URL); meta != nil {
				if meta.Title != "" {
					video.Title = meta.Title
				}
				video.Provider = meta.ProviderName
			}
		}
		return video, nil
	}

	if req.URL != "" {
		video := Video{Type: TypeYouTube, URL: req.URL, Provider: "YouTube"}
		if meta := r.fetchMetadata(ctx, req.URL); meta != nil {
			video.Title = meta.Title
			if meta.ProviderName != "" {
				video.Provider = meta.ProviderName
			}
		}
		return video, nil
	}

	return Video{}, ErrMissingSource
}

type oembedMetadata struct {
	Title        string `json:"title"`
	ProviderName string `json:"provider_name"`
}

func (r *Resolver) fetchMetadata(ctx context.Context, videoURL string) *oembedMetadata {
	endpoint := fmt.Sprintf("%s?url=%s&format=json", r.oembedBase, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var meta oembedMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil
	}
	return &meta
}
