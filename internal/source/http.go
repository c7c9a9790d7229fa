package source

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"runlens/pkg/logx"
)

// HTTPOptions tunes an HTTPSource.
type HTTPOptions struct {
	Timeout    time.Duration // default 30s
	RatePerMin float64       // fetches per minute; 0 means 6
	MaxBytes   int64
	Client     *http.Client
}

// HTTPSource downloads the document from a share link.
type HTTPSource struct {
	rawURL   string
	url      string
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
	log      logx.Logger
}

func NewHTTP(rawURL string, opt HTTPOptions, log logx.Logger) (*HTTPSource, error) {
	dl, err := DownloadURL(rawURL)
	if err != nil {
		return nil, err
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	if opt.RatePerMin <= 0 {
		opt.RatePerMin = 6
	}
	client := opt.Client
	if client == nil {
		client = &http.Client{Timeout: opt.Timeout}
	}
	return &HTTPSource{
		rawURL:   rawURL,
		url:      dl,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(opt.RatePerMin/60), 1),
		maxBytes: maxBytesOr(opt.MaxBytes),
		log:      log.Comp("source.http"),
	}, nil
}

func (s *HTTPSource) Name() string { return "http" }

// URL is the rewritten download URL.
func (s *HTTPSource) URL() string { return s.url }

// DownloadURL turns a share link into a direct download: the "e" access
// token parameter is removed and download=1 is set.
func DownloadURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("source url: unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Del("e")
	q.Set("download", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch waits for the rate limiter, then downloads the document. Non-2xx
// responses are errors.
func (s *HTTPSource) Fetch(ctx context.Context) (*Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch throttled: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch %s: http %d", req.URL.Host, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", req.URL.Host, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w (> %d bytes)", req.URL.Host, ErrTooLarge, s.maxBytes)
	}

	ct := resp.Header.Get("Content-Type")
	name := responseName(resp, ct)
	s.log.Debug("document fetched",
		logx.String("name", name),
		logx.Int("bytes", len(data)),
		logx.Duration("took", time.Since(start)),
	)
	return &Document{Name: name, ContentType: ct, Data: data, Origin: s.Name(), FetchedAt: time.Now()}, nil
}

// responseName picks a file name from Content-Disposition, then the URL
// path, then the content type.
func responseName(resp *http.Response, ct string) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := params["filename"]; fn != "" {
			return path.Base(fn)
		}
	}
	if base := path.Base(resp.Request.URL.Path); strings.Contains(base, ".") {
		return base
	}
	if strings.Contains(ct, "csv") {
		return "download.csv"
	}
	return "download.xlsx"
}
