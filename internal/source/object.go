package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"runlens/pkg/logx"
)

// ObjectConfig points at one object in an S3-compatible store.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string
	UseSSL    bool
	Region    string
}

func (c ObjectConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "endpoint")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "bucket")
	}
	if strings.TrimSpace(c.Key) == "" {
		missing = append(missing, "key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("source.s3: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ObjectSource reads the document from an object store.
type ObjectSource struct {
	cfg      ObjectConfig
	client   *minio.Client
	maxBytes int64
	log      logx.Logger
}

func NewObject(cfg ObjectConfig, maxBytes int64, log logx.Logger) (*ObjectSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &ObjectSource{cfg: cfg, client: client, maxBytes: maxBytesOr(maxBytes), log: log.Comp("source.s3")}, nil
}

func (s *ObjectSource) Name() string { return "s3" }

func (s *ObjectSource) Fetch(ctx context.Context) (*Document, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, s.cfg.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.cfg.Bucket, s.cfg.Key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s/%s: %w", s.cfg.Bucket, s.cfg.Key, err)
	}
	if info.Size > s.maxBytes {
		return nil, fmt.Errorf("%s/%s: %w", s.cfg.Bucket, s.cfg.Key, ErrTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(obj, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", s.cfg.Bucket, s.cfg.Key, err)
	}
	s.log.Debug("object fetched", logx.String("key", s.cfg.Key), logx.Int("bytes", len(data)), logx.String("etag", info.ETag))
	return &Document{
		Name:        path.Base(s.cfg.Key),
		ContentType: info.ContentType,
		Data:        data,
		Origin:      s.Name(),
		FetchedAt:   time.Now(),
	}, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
