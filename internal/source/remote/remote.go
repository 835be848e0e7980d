// Package remote loads a price CSV over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
)

// DefaultMaxBytes caps the decoded body size.
const DefaultMaxBytes = 32 << 20

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=remote_test -destination=mock_http_client_test.go -source=remote.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source fetches a CSV document on every Load.
type Source struct {
	// url is the CSV location.
	url string
	// httpClient performs the request.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header   http.Header
	options  series.CSVOptions
	maxBytes int64
}

// Option configures a remote Source.
type Option func(*Source)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(s *Source) {
		s.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(s *Source) {
		for key, values := range header {
			for _, value := range values {
				s.header.Add(key, value)
			}
		}
	}
}

// WithCSVOptions sets the column names and date layout.
func WithCSVOptions(opts series.CSVOptions) Option {
	return func(s *Source) {
		s.options = opts
	}
}

// WithMaxBytes limits how much of the body is read.
func WithMaxBytes(n int64) Option {
	return func(s *Source) {
		s.maxBytes = n
	}
}

// New creates a remote source for rawURL.
func New(rawURL string, options ...Option) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	s := &Source{
		url:        rawURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		options:    series.DefaultCSVOptions(),
		maxBytes:   DefaultMaxBytes,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

func (s *Source) Name() string { return "http:" + s.url }

func (s *Source) Load(ctx context.Context) (*series.Series, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = s.header.Clone()
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	// Asking explicitly turns off the transport's transparent decoding, so
	// gzip bodies are handled below.
	req.Header.Set("Accept-Encoding", "gzip")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: performing request: %w", source.ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", source.ErrUnavailable, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body io.Reader = res.Body
	if strings.EqualFold(res.Header.Get("Content-Encoding"), "gzip") || strings.HasSuffix(req.URL.Path, ".gz") {
		zr, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", source.ErrUnavailable, err)
		}
		defer zr.Close()
		body = zr
	}

	lr := &io.LimitedReader{R: body, N: s.maxBytes + 1}
	ser, err := series.ParseCSV(lr, s.options)
	if lr.N <= 0 {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", source.ErrUnavailable, s.maxBytes)
	}
	if err != nil {
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading body: %w", source.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("parse %s: %w", s.url, err)
	}
	return ser, nil
}
