package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/clipvault-io/clipvault/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrQuotaExceeded is returned by Put when the configured storage quota
	// would be exceeded by the write.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("object not found")
)

// Usage reports best-effort storage consumption. QuotaBytes == 0 means the
// quota is unknown/unenforced.
type Usage struct {
	UsedBytes  int64 `json:"used_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
}

type S3Store struct {
	Client    *s3.Client
	Uploader  *manager.Uploader
	Presigner *s3.PresignClient
	Bucket    string
	SSE       *s3types.ServerSideEncryption

	quotaBytes int64
	log        *zap.Logger
}

func NewS3(ctx context.Context, cfg *config.Config, log *zap.Logger) (*S3Store, error) {
	loadOpts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		loadOpts = append(loadOpts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	acfg, err := awsCfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	s3Opts := func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.S3.Endpoint); ep != "" {
			if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
				ep = "https://" + ep
			}
			if u, uerr := url.Parse(ep); uerr == nil {
				o.BaseEndpoint = aws.String(u.String())
			}
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	}

	client := s3.NewFromConfig(acfg, s3Opts)
	uploader := manager.NewUploader(client)
	presigner := s3.NewPresignClient(client)

	var sse *s3types.ServerSideEncryption
	if cfg.S3.SSE != "" {
		v := s3types.ServerSideEncryption(cfg.S3.SSE)
		sse = &v
	}

	return &S3Store{
		Client:     client,
		Uploader:   uploader,
		Presigner:  presigner,
		Bucket:     cfg.S3.Bucket,
		SSE:        sse,
		quotaBytes: cfg.S3.QuotaBytes,
		log:        log,
	}, nil
}

// Put stores a payload under key. When a quota is configured and the write
// would exceed it, ErrQuotaExceeded is returned before any bytes are sent.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errors.New("key is empty")
	}

	if s.quotaBytes > 0 {
		u, err := s.Usage(ctx)
		if err == nil && u.UsedBytes+size > s.quotaBytes {
			return fmt.Errorf("put %s (%d bytes): %w", key, size, ErrQuotaExceeded)
		}
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if s.SSE != nil {
		input.ServerSideEncryption = *s.SSE
	}

	if _, err := s.Uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the payload stored under key. The caller owns the ReadCloser.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes the payload under key. Deleting an absent key is not an
// error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Usage sums object sizes across the bucket. Listing failures degrade to an
// unknown {0,0} result instead of an error: quota reporting is advisory.
func (s *S3Store) Usage(ctx context.Context) (Usage, error) {
	var used int64
	p := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: &s.Bucket,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			s.log.Sugar().Warnw("bucket listing failed, reporting unknown usage", "err", err)
			return Usage{}, nil
		}
		for _, obj := range page.Contents {
			if obj.Size != nil {
				used += *obj.Size
			}
		}
	}
	return Usage{UsedBytes: used, QuotaBytes: s.quotaBytes}, nil
}

// PresignGet generates a session-scoped download URL for the payload under
// key. Playback and download links are regenerated from these, never stored.
func (s *S3Store) PresignGet(ctx context.Context, key string, expire time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("key is empty")
	}
	ps, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
	}, func(po *s3.PresignOptions) {
		po.Expires = expire
	})
	if err != nil {
		return "", err
	}
	return ps.URL, nil
}
