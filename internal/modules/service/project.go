package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
)

// ErrEmptyProjectName rejects blank or whitespace-only project names.
var ErrEmptyProjectName = errors.New("project name is empty")

type ProjectService interface {
	Create(ctx context.Context, name string) (*model.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context) ([]*model.Project, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	r repo.ProjectRepo
}

func NewProjectService(r repo.ProjectRepo) ProjectService {
	return &projectService{r: r}
}

func (s *projectService) Create(ctx context.Context, name string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	p := &model.Project{ID: uuid.New(), Name: name}
	if err := s.r.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return s.r.Get(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]*model.Project, error) {
	return s.r.List(ctx)
}

func (s *projectService) Rename(ctx context.Context, id uuid.UUID, name string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	if err := s.r.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.r.Get(ctx, id)
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.r.Delete(ctx, id)
}
