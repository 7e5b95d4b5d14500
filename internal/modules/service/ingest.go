package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipvault-io/clipvault/internal/infra/blob"
	"github.com/clipvault-io/clipvault/internal/infra/media"
	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
)

// RoutingKeyAssetIngested is published once per asset that survives the full
// pipeline.
const RoutingKeyAssetIngested = "asset.ingested"

// Per-file step count used for progress accounting: read, extract, classify.
const stepsPerFile = 3

// Skip reasons surfaced to the caller.
const (
	ReasonNotVideo      = "not a video file"
	ReasonQuotaExceeded = "storage quota exceeded"
	ReasonProcessFailed = "could not process file"
)

type IngestFile struct {
	Name string
	Path string
	Size int64
}

type IngestInput struct {
	JobID     string
	ProjectID *uuid.UUID
	Files     []IngestFile
}

type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type IngestResult struct {
	JobID   string         `json:"job_id"`
	Assets  []*model.Asset `json:"assets"`
	Skipped []SkippedFile  `json:"skipped"`
}

type IngestService interface {
	Ingest(ctx context.Context, in IngestInput) (*IngestResult, error)
	Progress(ctx context.Context, jobID string) (Progress, error)
}

type ingestService struct {
	assets     repo.AssetRepo
	projects   repo.ProjectRepo
	store      BlobStore
	extractor  media.Extractor
	classifier HumanClassifier
	progress   ProgressStore
	events     EventPublisher
	bucket     string
	log        *zap.Logger
}

func NewIngestService(
	assets repo.AssetRepo,
	projects repo.ProjectRepo,
	store BlobStore,
	extractor media.Extractor,
	classifier HumanClassifier,
	progress ProgressStore,
	events EventPublisher,
	bucket string,
	log *zap.Logger,
) IngestService {
	return &ingestService{
		assets:     assets,
		projects:   projects,
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		progress:   progress,
		events:     events,
		bucket:     bucket,
		log:        log,
	}
}

// Ingest runs the pipeline over the batch strictly in order. Each file either
// becomes a durable asset record or ends up in Skipped; one bad file never
// aborts the rest. Cancellation is honored between files, never mid-file.
func (s *ingestService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	if in.ProjectID != nil {
		if _, err := s.projects.Get(ctx, *in.ProjectID); err != nil {
			return nil, ErrProjectNotFound
		}
	}

	p := Progress{
		JobID:      in.JobID,
		TotalFiles: len(in.Files),
		TotalSteps: stepsPerFile * len(in.Files),
	}
	s.track(ctx, &p, 0)

	res := &IngestResult{JobID: in.JobID}
	for _, f := range in.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		asset, reason := s.ingestOne(ctx, f, in.ProjectID, &p)
		if asset == nil {
			res.Skipped = append(res.Skipped, SkippedFile{Name: f.Name, Reason: reason})
			continue
		}
		res.Assets = append(res.Assets, asset)
	}

	p.Done = true
	p.CompletedSteps = p.TotalSteps
	s.track(ctx, &p, 0)
	return res, nil
}

func (s *ingestService) ingestOne(ctx context.Context, f IngestFile, projectID *uuid.UUID, p *Progress) (*model.Asset, string) {
	mt, err := mimetype.DetectFile(f.Path)
	if err != nil || !strings.HasPrefix(mt.String(), "video/") {
		s.log.Sugar().Infow("skipping non-video upload", "name", f.Name)
		s.track(ctx, p, stepsPerFile)
		return nil, ReasonNotVideo
	}
	s.track(ctx, p, 1)

	meta, err := s.extractor.Extract(ctx, f.Path)
	if err != nil {
		s.log.Sugar().Warnw("metadata extraction failed", "name", f.Name, "err", err)
		s.track(ctx, p, stepsPerFile-1)
		return nil, ReasonProcessFailed
	}
	s.track(ctx, p, 1)

	hasHuman := s.classifier.HasHuman(ctx, meta.Thumbnail)
	s.track(ctx, p, 1)

	id := uuid.New()
	if reason := s.upload(ctx, f, id, mt.String()); reason != "" {
		return nil, reason
	}

	asset := &model.Asset{
		ID:          id,
		Title:       strings.TrimSuffix(f.Name, filepath.Ext(f.Name)),
		Bucket:      s.bucket,
		S3Key:       blobKey(id),
		MIME:        mt.String(),
		SizeB:       f.Size,
		Width:       meta.Width,
		Height:      meta.Height,
		Orientation: model.OrientationOf(meta.Width, meta.Height),
		Duration:    meta.Duration,
		DurationSec: meta.DurationSec,
		HasHuman:    hasHuman,
		Thumbnail:   meta.Thumbnail,
		ProjectID:   projectID,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		s.log.Sugar().Errorw("persist asset failed", "name", f.Name, "err", err)
		if derr := s.store.Delete(ctx, asset.S3Key); derr != nil {
			s.log.Sugar().Warnw("blob cleanup failed, object orphaned", "key", asset.S3Key, "err", derr)
		}
		return nil, ReasonProcessFailed
	}

	s.publish(ctx, asset)
	return asset, ""
}

func (s *ingestService) upload(ctx context.Context, f IngestFile, id uuid.UUID, contentType string) string {
	src, err := os.Open(f.Path)
	if err != nil {
		s.log.Sugar().Warnw("open upload failed", "name", f.Name, "err", err)
		return ReasonProcessFailed
	}
	defer src.Close()

	if err := s.store.Put(ctx, blobKey(id), src, f.Size, contentType); err != nil {
		if errors.Is(err, blob.ErrQuotaExceeded) {
			s.log.Sugar().Warnw("upload rejected, quota exceeded", "name", f.Name, "size_b", f.Size)
			return ReasonQuotaExceeded
		}
		s.log.Sugar().Errorw("blob upload failed", "name", f.Name, "err", err)
		return ReasonProcessFailed
	}
	return ""
}

func (s *ingestService) publish(ctx context.Context, a *model.Asset) {
	if s.events == nil {
		return
	}
	evt := map[string]any{
		"asset_id":    a.ID,
		"title":       a.Title,
		"has_human":   a.HasHuman,
		"orientation": a.Orientation,
		"duration":    a.Duration,
		"ingested_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishJSON(ctx, RoutingKeyAssetIngested, evt); err != nil {
		s.log.Sugar().Warnw("publish asset.ingested failed", "asset_id", a.ID, "err", err)
	}
}

// track advances and persists progress; persistence failures only lose the
// progress bar, never the ingest.
func (s *ingestService) track(ctx context.Context, p *Progress, delta int) {
	p.CompletedSteps += delta
	if p.CompletedSteps > p.TotalSteps {
		p.CompletedSteps = p.TotalSteps
	}
	if err := s.progress.Set(ctx, *p); err != nil {
		s.log.Sugar().Warnw("progress update failed", "job_id", p.JobID, "err", err)
	}
}

func (s *ingestService) Progress(ctx context.Context, jobID string) (Progress, error) {
	if jobID == "" {
		return Progress{}, fmt.Errorf("job id is empty")
	}
	return s.progress.Get(ctx, jobID)
}
