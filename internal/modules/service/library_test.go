package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clipvault-io/clipvault/internal/config"
	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
)

func newLibraryFixture() (*MockAssetRepo, *MockProjectRepo, *MockBlobStore, LibraryService) {
	assets := new(MockAssetRepo)
	projects := new(MockProjectRepo)
	store := new(MockBlobStore)
	cfg := &config.Config{}
	cfg.S3.PresignExpireSec = 900
	svc := NewLibraryService(assets, projects, store, cfg, zap.NewNop())
	return assets, projects, store, svc
}

func libAsset() *model.Asset {
	return &model.Asset{
		ID:        uuid.New(),
		Title:     "clip",
		S3Key:     "videos/abc",
		CreatedAt: time.Now(),
	}
}

func TestLibrary_ListFillsURLsAndCursor(t *testing.T) {
	assets, _, store, svc := newLibraryFixture()

	items := []*model.Asset{libAsset(), libAsset(), libAsset()}
	assets.On("ListWithCursor", mock.Anything, repo.AssetFilter{Folder: repo.FolderAll}, mock.Anything, mock.Anything, 3, true).
		Return(items, nil)
	store.On("PresignGet", mock.Anything, "videos/abc", 900*time.Second).Return("https://s3/url", nil)

	out, err := svc.List(context.Background(), ListAssetsInput{Folder: repo.FolderAll, Limit: 2, TimeDesc: true})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.True(t, out.HasMore)
	assert.NotEmpty(t, out.NextCursor)
	for _, a := range out.Items {
		assert.Equal(t, "https://s3/url", a.URL)
	}
}

func TestLibrary_ListRejectsBadCursor(t *testing.T) {
	_, _, _, svc := newLibraryFixture()

	_, err := svc.List(context.Background(), ListAssetsInput{Folder: repo.FolderAll, Limit: 10, Cursor: "garbage!!!"})
	assert.Error(t, err)
}

func TestLibrary_AssignProjectChecksExistence(t *testing.T) {
	assets, projects, _, svc := newLibraryFixture()

	pid := uuid.New()
	projects.On("Get", mock.Anything, pid).Return(nil, errors.New("record not found"))

	_, err := svc.AssignProject(context.Background(), uuid.New(), &pid)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assets.AssertNotCalled(t, "AssignProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestLibrary_AssignProjectNilClears(t *testing.T) {
	assets, projects, _, svc := newLibraryFixture()

	a := libAsset()
	assets.On("AssignProject", mock.Anything, a.ID, (*uuid.UUID)(nil)).Return(nil)
	assets.On("Get", mock.Anything, a.ID).Return(a, nil)

	got, err := svc.AssignProject(context.Background(), a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	projects.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestLibrary_BatchDeletePermanentRemovesRecordsThenBlobs(t *testing.T) {
	assets, _, store, svc := newLibraryFixture()

	a, b := libAsset(), libAsset()
	b.S3Key = "videos/def"
	ids := []uuid.UUID{a.ID, b.ID}

	assets.On("ListByIDs", mock.Anything, ids).Return([]*model.Asset{a, b}, nil)
	assets.On("DeleteByIDs", mock.Anything, ids).Return(nil)
	store.On("Delete", mock.Anything, a.S3Key).Return(nil)
	store.On("Delete", mock.Anything, b.S3Key).Return(nil)

	require.NoError(t, svc.BatchDelete(context.Background(), ids, true))
	assets.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestLibrary_BatchDeletePermanentSurvivesBlobFailure(t *testing.T) {
	assets, _, store, svc := newLibraryFixture()

	a := libAsset()
	assets.On("ListByIDs", mock.Anything, []uuid.UUID{a.ID}).Return([]*model.Asset{a}, nil)
	assets.On("DeleteByIDs", mock.Anything, []uuid.UUID{a.ID}).Return(nil)
	store.On("Delete", mock.Anything, a.S3Key).Return(errors.New("s3 unavailable"))

	// the record deletion is what matters; the orphaned blob is only logged
	assert.NoError(t, svc.BatchDelete(context.Background(), []uuid.UUID{a.ID}, true))
}

func TestLibrary_BatchDeleteSoftTrashesWithoutTouchingBlobs(t *testing.T) {
	assets, _, store, svc := newLibraryFixture()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	assets.On("SetDeletedByIDs", mock.Anything, ids, true).Return(nil)

	require.NoError(t, svc.BatchDelete(context.Background(), ids, false))
	assets.AssertExpectations(t)
	assets.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestLibrary_DownloadURLs(t *testing.T) {
	assets, _, store, svc := newLibraryFixture()

	a := libAsset()
	assets.On("ListByIDs", mock.Anything, []uuid.UUID{a.ID}).Return([]*model.Asset{a}, nil)
	store.On("PresignGet", mock.Anything, a.S3Key, 900*time.Second).Return("https://s3/signed", nil)

	links, err := svc.DownloadURLs(context.Background(), []uuid.UUID{a.ID})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, a.ID, links[0].ID)
	assert.Equal(t, "https://s3/signed", links[0].URL)
}
