package imaging

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxFetchBytes bounds a single download.
const maxFetchBytes = 64 << 20

// Fetcher resolves an image reference to raw bytes.
//
// Fetch is the direct path. FetchAuthenticated is the fallback used when the
// direct path fails (cross-origin or proxied sources); it must be a distinct
// route, typically an authenticated download endpoint of the product API.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	FetchAuthenticated(ctx context.Context, ref string) ([]byte, error)
}

// ErrLocalPathDenied rejects local paths outside HTTPFetcher.LocalRoot.
var ErrLocalPathDenied = errors.New("local path not allowed")

// HTTPFetcher fetches http(s) URLs, data: URLs and local file paths.
type HTTPFetcher struct {
	// Client is used for all HTTP requests. Defaults to a client with a 30s timeout.
	Client *http.Client

	// Token is sent as a bearer token on the authenticated path.
	Token string

	// DownloadEndpoint is the authenticated download route. The reference is
	// passed as the "url" query parameter. The token is only ever sent here;
	// when empty there is no authenticated path.
	DownloadEndpoint string

	// LocalRoot, when set, confines local file reads to this directory.
	// Servers reachable over the network set it to their upload directory.
	LocalRoot string
}

// NewHTTPFetcher creates an HTTPFetcher with a default client.
func NewHTTPFetcher(token, downloadEndpoint string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:           &http.Client{Timeout: 30 * time.Second},
		Token:            token,
		DownloadEndpoint: downloadEndpoint,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURL(ref)
	case isHTTP(ref):
		return f.get(ctx, ref, false)
	default:
		return f.readLocal(strings.TrimPrefix(ref, "file://"))
	}
}

// FetchAuthenticated implements Fetcher.
func (f *HTTPFetcher) FetchAuthenticated(ctx context.Context, ref string) ([]byte, error) {
	if f.DownloadEndpoint == "" {
		return nil, errors.New("no authenticated download endpoint configured")
	}
	u, err := url.Parse(f.DownloadEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid download endpoint: %w", err)
	}
	q := u.Query()
	q.Set("url", ref)
	u.RawQuery = q.Encode()
	return f.get(ctx, u.String(), true)
}

func (f *HTTPFetcher) get(ctx context.Context, target string, authenticated bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if authenticated {
		if f.Token == "" {
			return nil, errors.New("authenticated download requires a token")
		}
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxFetchBytes)
	}
	return data, nil
}

func isHTTP(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (f *HTTPFetcher) readLocal(path string) ([]byte, error) {
	if f.LocalRoot != "" {
		if err := within(f.LocalRoot, path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return data, nil
}

// within checks that path resolves to a file under root, following symlinks.
func within(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid local root: %w", err)
	}
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLocalPathDenied, path)
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrLocalPathDenied, path)
	}
	return nil
}

// decodeDataURL handles "data:[<mediatype>][;base64],<data>".
func decodeDataURL(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, errors.New("malformed data URL")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URL: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL: %w", err)
	}
	return []byte(data), nil
}
