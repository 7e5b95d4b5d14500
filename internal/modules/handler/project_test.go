package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/service"
)

// MockProjectService is a mock implementation of ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, name string) (*model.Project, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context) ([]*model.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectService) Rename(ctx context.Context, id uuid.UUID, name string) (*model.Project, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupProjectRouter(svc service.ProjectService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewProjectHandler(svc)
	r.GET("/project", h.ListProjects)
	r.POST("/project", h.CreateProject)
	r.PUT("/project/:id", h.RenameProject)
	r.DELETE("/project/:id", h.DeleteProject)
	return r
}

func TestProjectHandler_CreateProject(t *testing.T) {
	p := &model.Project{ID: uuid.New(), Name: "trip"}

	tests := []struct {
		name           string
		body           string
		setup          func(*MockProjectService)
		expectedStatus int
	}{
		{
			name: "successful creation",
			body: `{"name": "trip"}`,
			setup: func(svc *MockProjectService) {
				svc.On("Create", mock.Anything, "trip").Return(p, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           `{}`,
			setup:          func(svc *MockProjectService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "blank name",
			body: `{"name": "   "}`,
			setup: func(svc *MockProjectService) {
				svc.On("Create", mock.Anything, "   ").Return(nil, service.ErrEmptyProjectName)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProjectService)
			tt.setup(svc)
			r := setupProjectRouter(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/project", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestProjectHandler_DeleteProject(t *testing.T) {
	id := uuid.New()

	svc := new(MockProjectService)
	svc.On("Delete", mock.Anything, id).Return(nil)
	r := setupProjectRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/project/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProjectHandler_DeleteProject_NotFound(t *testing.T) {
	svc := new(MockProjectService)
	svc.On("Delete", mock.Anything, mock.Anything).Return(gorm.ErrRecordNotFound)
	r := setupProjectRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/project/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectHandler_RenameProject(t *testing.T) {
	p := &model.Project{ID: uuid.New(), Name: "renamed"}

	svc := new(MockProjectService)
	svc.On("Rename", mock.Anything, p.ID, "renamed").Return(p, nil)
	r := setupProjectRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/project/"+p.ID.String(), strings.NewReader(`{"name": "renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
