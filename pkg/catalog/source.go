package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Source is anything the loader can pull the raw dataset bytes from.
type Source interface {
	// Name identifies the source and keys the loader cache.
	Name() string
	// Remote sources expire from the cache by TTL; local ones are kept
	// until explicitly invalidated.
	Remote() bool
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads the dataset from a local CSV file.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return "file:" + f.Path }

func (f FileSource) Remote() bool { return false }

func (f FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", f.Path, err)
	}
	return data, nil
}

// ExportSource fetches the dataset from a spreadsheet export URL.
type ExportSource struct {
	URL    string
	client *http.Client
}

// NewExportSource creates a remote source with a request timeout.
func NewExportSource(url string) *ExportSource {
	return &ExportSource{
		URL:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *ExportSource) Name() string { return "url:" + e.URL }

func (e *ExportSource) Remote() bool { return true }

func (e *ExportSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create dataset request: %w", err)
	}
	req.Header.Set("User-Agent", "cafecerca/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", e.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset export %s status %d", e.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dataset export %s: %w", e.URL, err)
	}
	return data, nil
}
