package ingest

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSource downloads a reference file over HTTP(S).
type HTTPSource struct {
	URL      string
	Parse    ParseOptions
	MaxBytes int64
	client   *resty.Client
}

// HTTPOptions configures NewHTTPSource.
type HTTPOptions struct {
	Timeout time.Duration
	Retries int
	Headers map[string]string
}

// NewHTTPSource creates a source for rawURL with its own resty client.
func NewHTTPSource(rawURL string, parse ParseOptions, opts HTTPOptions) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "text/csv, text/tab-separated-values, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*").
		SetHeaders(opts.Headers)

	return &HTTPSource{URL: rawURL, Parse: parse, client: client}
}

func (s *HTTPSource) String() string { return s.URL }

// Fetch downloads and parses the file. Non-2xx responses are ErrSourceUnavailable.
func (s *HTTPSource) Fetch(ctx context.Context) (*Dataset, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: GET %s returned %s", ErrSourceUnavailable, s.URL, resp.Status())
	}

	body := resp.Body()
	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}

	parse := s.Parse
	name := s.URL
	if u, err := url.Parse(s.URL); err == nil {
		name = path.Base(u.Path)
	}
	if parse.Format == FormatUnknown && FormatFromName(name) == FormatUnknown {
		parse.Format = formatFromContentType(resp.Header().Get("Content-Type"))
	}

	return Parse(name, body, parse)
}
