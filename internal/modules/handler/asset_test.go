package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipvault-io/clipvault/internal/infra/blob"
	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
	"github.com/clipvault-io/clipvault/internal/modules/service"
)

// MockLibraryService is a mock implementation of LibraryService
type MockLibraryService struct {
	mock.Mock
}

func (m *MockLibraryService) List(ctx context.Context, in service.ListAssetsInput) (*service.ListAssetsOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListAssetsOutput), args.Error(1)
}

func (m *MockLibraryService) Get(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func (m *MockLibraryService) ToggleFavorite(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func (m *MockLibraryService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLibraryService) Restore(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLibraryService) AssignProject(ctx context.Context, id uuid.UUID, projectID *uuid.UUID) (*model.Asset, error) {
	args := m.Called(ctx, id, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func (m *MockLibraryService) BatchDelete(ctx context.Context, ids []uuid.UUID, permanent bool) error {
	args := m.Called(ctx, ids, permanent)
	return args.Error(0)
}

func (m *MockLibraryService) DownloadURLs(ctx context.Context, ids []uuid.UUID) ([]service.DownloadLink, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DownloadLink), args.Error(1)
}

func (m *MockLibraryService) Usage(ctx context.Context) (blob.Usage, error) {
	args := m.Called(ctx)
	return args.Get(0).(blob.Usage), args.Error(1)
}

func setupAssetRouter(svc service.LibraryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAssetHandler(svc)
	r.GET("/asset", h.ListAssets)
	r.GET("/asset/:id", h.GetAsset)
	r.GET("/asset/:id/thumbnail", h.GetThumbnail)
	r.POST("/asset/:id/favorite", h.ToggleFavorite)
	r.DELETE("/asset/:id", h.SoftDelete)
	r.POST("/asset/:id/restore", h.Restore)
	r.PUT("/asset/:id/project", h.AssignProject)
	r.POST("/asset/batch_delete", h.BatchDelete)
	r.GET("/storage/usage", h.StorageUsage)
	return r
}

func testAsset() *model.Asset {
	return &model.Asset{
		ID:        uuid.New(),
		Title:     "clip",
		Thumbnail: []byte{0xFF, 0xD8, 0xFF},
		CreatedAt: time.Now(),
	}
}

func TestAssetHandler_ListAssets(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setup          func(*MockLibraryService)
		expectedStatus int
	}{
		{
			name:  "default folder",
			query: "",
			setup: func(svc *MockLibraryService) {
				svc.On("List", mock.Anything, mock.MatchedBy(func(in service.ListAssetsInput) bool {
					return in.Folder == repo.FolderAll && in.Limit == 20 && in.TimeDesc
				})).Return(&service.ListAssetsOutput{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "quadrant filters pass through",
			query: "?orientation=portrait&content=human",
			setup: func(svc *MockLibraryService) {
				svc.On("List", mock.Anything, mock.MatchedBy(func(in service.ListAssetsInput) bool {
					return in.Orientation == model.OrientationPortrait && in.Content == repo.ContentHuman
				})).Return(&service.ListAssetsOutput{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid folder",
			query:          "?folder=bogus",
			setup:          func(svc *MockLibraryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "project folder requires project_id",
			query:          "?folder=project",
			setup:          func(svc *MockLibraryService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLibraryService)
			tt.setup(svc)
			r := setupAssetRouter(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/asset"+tt.query, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAssetHandler_GetAsset(t *testing.T) {
	a := testAsset()

	svc := new(MockLibraryService)
	svc.On("Get", mock.Anything, a.ID).Return(a, nil)
	r := setupAssetRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/asset/"+a.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data model.Asset `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, a.ID, resp.Data.ID)
}

func TestAssetHandler_GetAsset_NotFound(t *testing.T) {
	svc := new(MockLibraryService)
	svc.On("Get", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	r := setupAssetRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/asset/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssetHandler_GetAsset_BadID(t *testing.T) {
	r := setupAssetRouter(new(MockLibraryService))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/asset/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssetHandler_GetThumbnail(t *testing.T) {
	a := testAsset()
	svc := new(MockLibraryService)
	svc.On("Get", mock.Anything, a.ID).Return(a, nil)
	r := setupAssetRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/asset/"+a.ID.String()+"/thumbnail", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, a.Thumbnail, w.Body.Bytes())
}

func TestAssetHandler_AssignProject(t *testing.T) {
	a := testAsset()
	pid := uuid.New()

	svc := new(MockLibraryService)
	svc.On("AssignProject", mock.Anything, a.ID, mock.MatchedBy(func(p *uuid.UUID) bool {
		return p != nil && *p == pid
	})).Return(a, nil)
	r := setupAssetRouter(svc)

	body := `{"project_id": "` + pid.String() + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/asset/"+a.ID.String()+"/project", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAssetHandler_AssignProject_UnknownProject(t *testing.T) {
	a := testAsset()
	svc := new(MockLibraryService)
	svc.On("AssignProject", mock.Anything, a.ID, mock.Anything).Return(nil, service.ErrProjectNotFound)
	r := setupAssetRouter(svc)

	body := `{"project_id": "` + uuid.NewString() + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/asset/"+a.ID.String()+"/project", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssetHandler_BatchDelete(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	rawIDs := []string{ids[0].String(), ids[1].String()}

	tests := []struct {
		name      string
		body      map[string]any
		permanent bool
	}{
		{name: "defaults to trash", body: map[string]any{"ids": rawIDs}, permanent: false},
		{name: "permanent", body: map[string]any{"ids": rawIDs, "permanent": true}, permanent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLibraryService)
			svc.On("BatchDelete", mock.Anything, ids, tt.permanent).Return(nil)
			r := setupAssetRouter(svc)

			raw, err := sonic.Marshal(tt.body)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/asset/batch_delete", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAssetHandler_StorageUsage(t *testing.T) {
	svc := new(MockLibraryService)
	svc.On("Usage", mock.Anything).Return(blob.Usage{UsedBytes: 1024, QuotaBytes: 2048}, nil)
	r := setupAssetRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/usage", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data blob.Usage `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1024), resp.Data.UsedBytes)
}
