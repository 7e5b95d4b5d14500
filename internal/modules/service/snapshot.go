package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
)

// SnapshotVersion is the current export format version.
const SnapshotVersion = 1

// ErrBadSnapshot is returned when an import payload is malformed or carries
// an unsupported version. The library is left untouched.
var ErrBadSnapshot = errors.New("bad snapshot")

// Snapshot is the portable library export: metadata and thumbnails, no video
// bytes.
type Snapshot struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Videos     []*SnapshotVideo `json:"videos"`
	Projects   []*model.Project `json:"projects"`
}

// SnapshotVideo is the export form of an asset. API responses omit the
// thumbnail; here it travels with the record so an imported library keeps
// its previews.
type SnapshotVideo struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Bucket      string            `json:"bucket"`
	S3Key       string            `json:"s3_key"`
	MIME        string            `json:"mime"`
	SizeB       int64             `json:"size_b"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Orientation model.Orientation `json:"orientation"`
	Duration    string            `json:"duration"`
	DurationSec float64           `json:"duration_seconds"`
	HasHuman    bool              `json:"has_human"`
	Thumbnail   []byte            `json:"thumbnail,omitempty"`
	IsFavorite  bool              `json:"is_favorite"`
	IsDeleted   bool              `json:"is_deleted"`
	ProjectID   *uuid.UUID        `json:"project_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func snapshotVideo(a *model.Asset) *SnapshotVideo {
	return &SnapshotVideo{
		ID:          a.ID,
		Title:       a.Title,
		Bucket:      a.Bucket,
		S3Key:       a.S3Key,
		MIME:        a.MIME,
		SizeB:       a.SizeB,
		Width:       a.Width,
		Height:      a.Height,
		Orientation: a.Orientation,
		Duration:    a.Duration,
		DurationSec: a.DurationSec,
		HasHuman:    a.HasHuman,
		Thumbnail:   a.Thumbnail,
		IsFavorite:  a.IsFavorite,
		IsDeleted:   a.IsDeleted,
		ProjectID:   a.ProjectID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (v *SnapshotVideo) asset() *model.Asset {
	return &model.Asset{
		ID:          v.ID,
		Title:       v.Title,
		Bucket:      v.Bucket,
		S3Key:       v.S3Key,
		MIME:        v.MIME,
		SizeB:       v.SizeB,
		Width:       v.Width,
		Height:      v.Height,
		Orientation: v.Orientation,
		Duration:    v.Duration,
		DurationSec: v.DurationSec,
		HasHuman:    v.HasHuman,
		Thumbnail:   v.Thumbnail,
		IsFavorite:  v.IsFavorite,
		IsDeleted:   v.IsDeleted,
		ProjectID:   v.ProjectID,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

type ImportResult struct {
	AddedVideos     int `json:"added_videos"`
	AddedProjects   int `json:"added_projects"`
	SkippedVideos   int `json:"skipped_videos"`
	SkippedProjects int `json:"skipped_projects"`
}

type SnapshotService interface {
	Export(ctx context.Context) (*Snapshot, error)
	Import(ctx context.Context, raw []byte) (*ImportResult, error)
}

type snapshotService struct {
	assets   repo.AssetRepo
	projects repo.ProjectRepo
}

func NewSnapshotService(assets repo.AssetRepo, projects repo.ProjectRepo) SnapshotService {
	return &snapshotService{assets: assets, projects: projects}
}

func (s *snapshotService) Export(ctx context.Context) (*Snapshot, error) {
	videos, err := s.assets.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	snapVideos := make([]*SnapshotVideo, 0, len(videos))
	for _, a := range videos {
		snapVideos = append(snapVideos, snapshotVideo(a))
	}
	return &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Videos:     snapVideos,
		Projects:   projects,
	}, nil
}

// Import merges a snapshot additively: records whose IDs already exist are
// skipped, everything else is inserted. Nothing is ever overwritten or
// removed.
func (s *snapshotService) Import(ctx context.Context, raw []byte) (*ImportResult, error) {
	var snap Snapshot
	if err := sonic.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, snap.Version)
	}

	// Validate everything up front so a malformed snapshot cannot leave a
	// half-applied merge behind.
	for _, p := range snap.Projects {
		if p.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: project without id", ErrBadSnapshot)
		}
	}
	for _, v := range snap.Videos {
		if v.ID == uuid.Nil || v.Title == "" {
			return nil, fmt.Errorf("%w: video without id or title", ErrBadSnapshot)
		}
	}

	res := &ImportResult{}

	projectIDs := make([]uuid.UUID, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		projectIDs = append(projectIDs, p.ID)
	}
	existingProjects, err := s.projects.ExistingIDs(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	knownProjects := make(map[uuid.UUID]struct{}, len(existingProjects))
	for id := range existingProjects {
		knownProjects[id] = struct{}{}
	}
	for _, p := range snap.Projects {
		if _, ok := existingProjects[p.ID]; ok {
			res.SkippedProjects++
			continue
		}
		if err := s.projects.Create(ctx, &model.Project{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}); err != nil {
			return nil, fmt.Errorf("import project %s: %w", p.ID, err)
		}
		knownProjects[p.ID] = struct{}{}
		res.AddedProjects++
	}

	// Project references may point at projects the library already has from
	// an earlier import.
	var refIDs []uuid.UUID
	for _, v := range snap.Videos {
		if v.ProjectID == nil {
			continue
		}
		if _, ok := knownProjects[*v.ProjectID]; !ok {
			refIDs = append(refIDs, *v.ProjectID)
		}
	}
	if len(refIDs) > 0 {
		libProjects, err := s.projects.ExistingIDs(ctx, refIDs)
		if err != nil {
			return nil, err
		}
		for id := range libProjects {
			knownProjects[id] = struct{}{}
		}
	}

	videoIDs := make([]uuid.UUID, 0, len(snap.Videos))
	for _, v := range snap.Videos {
		videoIDs = append(videoIDs, v.ID)
	}
	existingVideos, err := s.assets.ExistingIDs(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	for _, v := range snap.Videos {
		if _, ok := existingVideos[v.ID]; ok {
			res.SkippedVideos++
			continue
		}
		// References to projects absent from both the library and the
		// snapshot are dropped rather than imported dangling.
		if v.ProjectID != nil {
			if _, ok := knownProjects[*v.ProjectID]; !ok {
				v.ProjectID = nil
			}
		}
		if err := s.assets.Create(ctx, v.asset()); err != nil {
			return nil, fmt.Errorf("import video %s: %w", v.ID, err)
		}
		res.AddedVideos++
	}

	return res, nil
}
