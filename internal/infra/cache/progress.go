package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/clipvault-io/clipvault/internal/modules/service"
)

const progressTTL = 24 * time.Hour

// ProgressStore keeps ingest progress in redis so polls survive restarts and
// work across replicas.
type ProgressStore struct {
	rdb *redis.Client
}

func NewProgressStore(rdb *redis.Client) *ProgressStore {
	return &ProgressStore{rdb: rdb}
}

func progressKey(jobID string) string {
	return "ingest:progress:" + jobID
}

func (s *ProgressStore) Set(ctx context.Context, p service.Progress) error {
	raw, err := sonic.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return s.rdb.Set(ctx, progressKey(p.JobID), raw, progressTTL).Err()
}

func (s *ProgressStore) Get(ctx context.Context, jobID string) (service.Progress, error) {
	raw, err := s.rdb.Get(ctx, progressKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return service.Progress{}, service.ErrJobNotFound
	}
	if err != nil {
		return service.Progress{}, err
	}
	var p service.Progress
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return service.Progress{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	return p, nil
}
