package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/clipvault-io/clipvault/internal/config"
	"github.com/clipvault-io/clipvault/internal/infra/blob"
	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
	"github.com/clipvault-io/clipvault/internal/pkg/paging"
)

// ErrProjectNotFound is returned when an asset is assigned to a project that
// does not exist.
var ErrProjectNotFound = errors.New("project not found")

type LibraryService interface {
	List(ctx context.Context, in ListAssetsInput) (*ListAssetsOutput, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	AssignProject(ctx context.Context, id uuid.UUID, projectID *uuid.UUID) (*model.Asset, error)
	BatchDelete(ctx context.Context, ids []uuid.UUID, permanent bool) error
	DownloadURLs(ctx context.Context, ids []uuid.UUID) ([]DownloadLink, error)
	Usage(ctx context.Context) (blob.Usage, error)
}

type libraryService struct {
	assets   repo.AssetRepo
	projects repo.ProjectRepo
	store    BlobStore
	expire   time.Duration
	log      *zap.Logger
}

func NewLibraryService(assets repo.AssetRepo, projects repo.ProjectRepo, store BlobStore, cfg *config.Config, log *zap.Logger) LibraryService {
	return &libraryService{
		assets:   assets,
		projects: projects,
		store:    store,
		expire:   time.Duration(cfg.S3.PresignExpireSec) * time.Second,
		log:      log,
	}
}

type ListAssetsInput struct {
	Folder      string            `json:"folder"`
	ProjectID   *uuid.UUID        `json:"project_id"`
	Search      string            `json:"search"`
	Orientation model.Orientation `json:"orientation"`
	Content     string            `json:"content"`
	Limit       int               `json:"limit"`
	Cursor      string            `json:"cursor"`
	TimeDesc    bool              `json:"time_desc"`
}

type ListAssetsOutput struct {
	Items      []*model.Asset `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

func (s *libraryService) List(ctx context.Context, in ListAssetsInput) (*ListAssetsOutput, error) {
	// Parse cursor (createdAt, id); an empty cursor indicates starting from the latest
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	f := repo.AssetFilter{
		Folder:      in.Folder,
		ProjectID:   in.ProjectID,
		Search:      in.Search,
		Orientation: in.Orientation,
		Content:     in.Content,
	}

	// Query limit+1 is used to determine has_more
	assets, err := s.assets.ListWithCursor(ctx, f, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListAssetsOutput{
		Items:   assets,
		HasMore: false,
	}
	if len(assets) > in.Limit {
		out.HasMore = true
		out.Items = assets[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}

	for _, a := range out.Items {
		s.fillURL(ctx, a)
	}
	return out, nil
}

func (s *libraryService) Get(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	a, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fillURL(ctx, a)
	return a, nil
}

func (s *libraryService) ToggleFavorite(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	if err := s.assets.ToggleFavorite(ctx, id); err != nil {
		return nil, err
	}
	return s.assets.Get(ctx, id)
}

func (s *libraryService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.assets.SetDeleted(ctx, id, true)
}

func (s *libraryService) Restore(ctx context.Context, id uuid.UUID) error {
	return s.assets.SetDeleted(ctx, id, false)
}

func (s *libraryService) AssignProject(ctx context.Context, id uuid.UUID, projectID *uuid.UUID) (*model.Asset, error) {
	if projectID != nil {
		if _, err := s.projects.Get(ctx, *projectID); err != nil {
			return nil, ErrProjectNotFound
		}
	}
	if err := s.assets.AssignProject(ctx, id, projectID); err != nil {
		return nil, err
	}
	return s.assets.Get(ctx, id)
}

// BatchDelete trashes or permanently removes a set of assets. The non-permanent
// form only flips the trash flag and is undone by Restore.
func (s *libraryService) BatchDelete(ctx context.Context, ids []uuid.UUID, permanent bool) error {
	if !permanent {
		return s.assets.SetDeletedByIDs(ctx, ids, true)
	}
	return s.deletePermanently(ctx, ids)
}

// deletePermanently removes records first so the library never shows an asset
// whose bytes are gone. Blob cleanup failures are logged; the orphaned object
// is reclaimable by a bucket sweep.
func (s *libraryService) deletePermanently(ctx context.Context, ids []uuid.UUID) error {
	assets, err := s.assets.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return nil
	}

	found := make([]uuid.UUID, 0, len(assets))
	for _, a := range assets {
		found = append(found, a.ID)
	}
	if err := s.assets.DeleteByIDs(ctx, found); err != nil {
		return fmt.Errorf("delete asset records: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, a := range assets {
		g.Go(func() error {
			if err := s.store.Delete(gctx, a.S3Key); err != nil {
				s.log.Sugar().Warnw("blob cleanup failed, object orphaned",
					"key", a.S3Key, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

type DownloadLink struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
}

func (s *libraryService) DownloadURLs(ctx context.Context, ids []uuid.UUID) ([]DownloadLink, error) {
	assets, err := s.assets.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	links := make([]DownloadLink, 0, len(assets))
	for _, a := range assets {
		url, err := s.store.PresignGet(ctx, a.S3Key, s.expire)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", a.ID, err)
		}
		links = append(links, DownloadLink{ID: a.ID, Title: a.Title, URL: url})
	}
	return links, nil
}

func (s *libraryService) Usage(ctx context.Context) (blob.Usage, error) {
	return s.store.Usage(ctx)
}

func (s *libraryService) fillURL(ctx context.Context, a *model.Asset) {
	url, err := s.store.PresignGet(ctx, a.S3Key, s.expire)
	if err != nil {
		s.log.Sugar().Warnw("presign failed", "key", a.S3Key, "err", err)
		return
	}
	a.URL = url
}
