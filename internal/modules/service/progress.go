package service

import (
	"context"
	"errors"
	"sync"
)

// ErrJobNotFound is returned when a progress lookup misses.
var ErrJobNotFound = errors.New("ingest job not found")

// Progress tracks one ingest job. Each file contributes three steps: read,
// metadata extraction, and classification.
type Progress struct {
	JobID          string `json:"job_id"`
	TotalFiles     int    `json:"total_files"`
	CompletedSteps int    `json:"completed_steps"`
	TotalSteps     int    `json:"total_steps"`
	Done           bool   `json:"done"`
}

// Percent reports job completion in [0, 1].
func (p Progress) Percent() float64 {
	if p.TotalSteps == 0 {
		return 0
	}
	return float64(p.CompletedSteps) / float64(p.TotalSteps)
}

type ProgressStore interface {
	Set(ctx context.Context, p Progress) error
	Get(ctx context.Context, jobID string) (Progress, error)
}

// MemoryProgressStore keeps progress in-process. Used when redis is not
// configured.
type MemoryProgressStore struct {
	mu   sync.RWMutex
	jobs map[string]Progress
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{jobs: make(map[string]Progress)}
}

func (s *MemoryProgressStore) Set(ctx context.Context, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[p.JobID] = p
	return nil
}

func (s *MemoryProgressStore) Get(ctx context.Context, jobID string) (Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.jobs[jobID]
	if !ok {
		return Progress{}, ErrJobNotFound
	}
	return p, nil
}
