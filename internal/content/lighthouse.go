package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultLighthouseUploadURL  = "https://upload.lighthouse.storage/api/v0/add"
	DefaultLighthouseGatewayURL = "https://gateway.lighthouse.storage/ipfs"
)

// LighthouseConfig configures the Lighthouse (IPFS pinning) backend.
type LighthouseConfig struct {
	APIKey     string
	UploadURL  string
	GatewayURL string
	Timeout    time.Duration
	// MaxFetchSize caps how much of a gateway response is read.
	MaxFetchSize int64
}

// LighthouseStore uploads blobs through the Lighthouse node API and reads
// them back from its IPFS gateway.
type LighthouseStore struct {
	config LighthouseConfig
	client *http.Client
}

type lighthouseAddResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

func NewLighthouseStore(config LighthouseConfig, client *http.Client) (*LighthouseStore, error) {
	if config.APIKey == "" {
		return nil, errors.New("lighthouse API key not configured")
	}
	if config.UploadURL == "" {
		config.UploadURL = DefaultLighthouseUploadURL
	}
	if config.GatewayURL == "" {
		config.GatewayURL = DefaultLighthouseGatewayURL
	}
	config.GatewayURL = strings.TrimRight(config.GatewayURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxFetchSize <= 0 {
		config.MaxFetchSize = DefaultMaxUploadSize
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &LighthouseStore{config: config, client: client}, nil
}

func (l *LighthouseStore) Put(ctx context.Context, data []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "content")
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.config.UploadURL, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.config.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload to lighthouse: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("lighthouse upload failed with %d %s: %w",
			resp.StatusCode, strings.TrimSpace(string(msg)), ErrUnavailable)
	}

	var result lighthouseAddResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode lighthouse response: %w: %v", ErrUnavailable, err)
	}
	if result.Hash == "" {
		return "", fmt.Errorf("lighthouse returned no hash: %w", ErrUnavailable)
	}
	return ParseRef(result.Hash)
}

func (l *LighthouseStore) Get(ctx context.Context, ref string) ([]byte, error) {
	canonical, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL(canonical), nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %v", ref, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s returned %d: %w", ref, resp.StatusCode, ErrUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.config.MaxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", ref, ErrUnavailable, err)
	}
	if int64(len(data)) > l.config.MaxFetchSize {
		return nil, fmt.Errorf("fetch %s: %w", ref, ErrTooLarge)
	}
	return data, nil
}

func (l *LighthouseStore) URL(ref string) string {
	return l.config.GatewayURL + "/" + ref
}
