package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipvault-io/clipvault/internal/modules/model"
)

// Folder names an asset partition. Exactly one folder matches each asset.
const (
	FolderAll       = "all"
	FolderFavorites = "favorites"
	FolderTrash     = "trash"
	FolderProject   = "project"
)

// Content filter values over the human-detection flag.
const (
	ContentAny     = ""
	ContentHuman   = "human"
	ContentScenery = "scenery"
)

type AssetFilter struct {
	Folder      string
	ProjectID   *uuid.UUID
	Search      string
	Orientation model.Orientation
	Content     string
}

type AssetRepo interface {
	Create(ctx context.Context, a *model.Asset) error
	Get(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	ListWithCursor(ctx context.Context, f AssetFilter, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]*model.Asset, error)
	ListAll(ctx context.Context) ([]*model.Asset, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Asset, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]struct{}, error)
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
	SetDeletedByIDs(ctx context.Context, ids []uuid.UUID, deleted bool) error
	ToggleFavorite(ctx context.Context, id uuid.UUID) error
	AssignProject(ctx context.Context, id uuid.UUID, projectID *uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type assetRepo struct {
	db *gorm.DB
}

func NewAssetRepo(db *gorm.DB) AssetRepo {
	return &assetRepo{db: db}
}

func (r *assetRepo) Create(ctx context.Context, a *model.Asset) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assetRepo) Get(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var a model.Asset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// applyFilter narrows the query to one folder plus the optional search and
// quadrant filters. Trash is disjoint from every other folder.
func applyFilter(q *gorm.DB, f AssetFilter) *gorm.DB {
	switch f.Folder {
	case FolderTrash:
		q = q.Where("is_deleted = ?", true)
	case FolderFavorites:
		q = q.Where("is_deleted = ? AND is_favorite = ?", false, true)
	case FolderProject:
		q = q.Where("is_deleted = ? AND project_id = ?", false, f.ProjectID)
	default:
		q = q.Where("is_deleted = ?", false)
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.Orientation != "" {
		q = q.Where("orientation = ?", f.Orientation)
	}
	switch f.Content {
	case ContentHuman:
		q = q.Where("has_human = ?", true)
	case ContentScenery:
		q = q.Where("has_human = ?", false)
	}
	return q
}

func (r *assetRepo) ListWithCursor(ctx context.Context, f AssetFilter, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]*model.Asset, error) {
	q := applyFilter(r.db.WithContext(ctx).Model(&model.Asset{}), f)

	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		comparisonOp := ">"
		if timeDesc {
			comparisonOp = "<"
		}
		q = q.Where(
			"(created_at "+comparisonOp+" ?) OR (created_at = ? AND id "+comparisonOp+" ?)",
			afterCreatedAt, afterCreatedAt, afterID,
		)
	}

	orderBy := "created_at ASC, id ASC"
	if timeDesc {
		orderBy = "created_at DESC, id DESC"
	}

	var assets []*model.Asset
	return assets, q.Order(orderBy).Limit(limit).Find(&assets).Error
}

func (r *assetRepo) ListAll(ctx context.Context) ([]*model.Asset, error) {
	var assets []*model.Asset
	return assets, r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&assets).Error
}

func (r *assetRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var assets []*model.Asset
	return assets, r.db.WithContext(ctx).Where("id IN ?", ids).Find(&assets).Error
}

func (r *assetRepo) ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Asset{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *assetRepo) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	res := r.db.WithContext(ctx).Model(&model.Asset{}).Where("id = ?", id).Update("is_deleted", deleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetDeletedByIDs flips the trash flag on every listed asset. Unknown ids are
// ignored.
func (r *assetRepo) SetDeletedByIDs(ctx context.Context, ids []uuid.UUID, deleted bool) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Asset{}).Where("id IN ?", ids).
		Update("is_deleted", deleted).Error
}

func (r *assetRepo) ToggleFavorite(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Asset{}).Where("id = ?", id).
		Update("is_favorite", gorm.Expr("NOT is_favorite"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assetRepo) AssignProject(ctx context.Context, id uuid.UUID, projectID *uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Asset{}).Where("id = ?", id).Update("project_id", projectID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assetRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Asset{}).Error
}

func (r *assetRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.Asset{}).Count(&n).Error
}
