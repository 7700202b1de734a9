package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
)

// Response is a fetched resource. MimeType carries no parameters.
type Response struct {
	MimeType string
	Content  []byte
}

// Fetcher retrieves a single resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

var maxContentSize = 64 << 20

// ErrTooLarge is returned when resource body exceeds size limit.
var ErrTooLarge = errors.New("resource is too large")

// HTTPFetcher is Fetcher performing plain HTTP GET requests.
type HTTPFetcher struct {
	client *http.Client
	ua     string
	token  string
	log    *zap.Logger
}

// HTTPOption configures HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout sets timeout for a single request, zero means no timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.client = &http.Client{Timeout: d} }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) { f.ua = ua }
}

// WithAuthToken sends token as bearer authorization with every request.
func WithAuthToken(token string) HTTPOption {
	return func(f *HTTPFetcher) { f.token = token }
}

// NewHTTPFetcher creates fetcher with sensible defaults.
func NewHTTPFetcher(log *zap.Logger, opts ...HTTPOption) *HTTPFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.Named("fetch"),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch GETs url. Non success status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, u string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", u, err)
	}
	if f.ua != "" {
		req.Header.Set("User-Agent", f.ua)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unable to fetch %s: %s", u, resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxContentSize)+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", u, err)
	}
	if len(content) > maxContentSize {
		return nil, fmt.Errorf("unable to read %s: %w", u, ErrTooLarge)
	}

	mimeType, err := contentType(resp.Header.Get("Content-Type"), u, content)
	if err != nil {
		return nil, fmt.Errorf("bad content type for %s: %w", u, err)
	}

	f.log.Debug("Fetched", zap.String("url", u), zap.Int("status", resp.StatusCode),
		zap.String("type", mimeType), zap.Int("size", len(content)))
	return &Response{MimeType: mimeType, Content: content}, nil
}

// contentType returns media type from header without parameters, when
// header is missing type is guessed from content and then from extension.
// Malformed parameters are ignored.
func contentType(header, u string, content []byte) (string, error) {
	if header != "" {
		mediaType, _, err := mime.ParseMediaType(header)
		if errors.Is(err, mime.ErrInvalidMediaParameter) {
			err = nil
		}
		return mediaType, err
	}
	if kind, err := filetype.Match(content); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value, nil
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(content))
	if sniffed != "text/plain" {
		return sniffed, nil
	}
	if pu, err := url.Parse(u); err == nil {
		if byExt, _, err := mime.ParseMediaType(mime.TypeByExtension(path.Ext(pu.Path))); err == nil {
			return byExt, nil
		}
	}
	return sniffed, nil
}
