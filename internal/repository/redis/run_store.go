package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"minerva/internal/workflow"
	"minerva/pkg/errors"
)

// RunRepository archives terminal analysis runs in Redis with a TTL
type RunRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunRepository creates a new run repository. ttl bounds how long
// archived snapshots stay readable; zero means no expiry.
func NewRunRepository(client *redis.Client, ttl time.Duration) *RunRepository {
	return &RunRepository{
		client: client,
		ttl:    ttl,
	}
}

// SaveRun stores a run snapshot, implements workflow.RunStore
func (r *RunRepository) SaveRun(ctx context.Context, run *workflow.AnalysisRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal run snapshot: run_id=%s", run.ID)
	}

	key := r.getKey(run.ID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save run snapshot to redis: run_id=%s", run.ID)
	}

	// Secondary index so recent runs for a symbol can be listed
	if err := r.client.LPush(ctx, r.getSymbolKey(run.Symbol), run.ID).Err(); err != nil {
		return errors.Wrapf(err, "failed to index run by symbol: run_id=%s", run.ID)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.getSymbolKey(run.Symbol), r.ttl).Err(); err != nil {
			return errors.Wrapf(err, "failed to set symbol index ttl: symbol=%s", run.Symbol)
		}
	}

	return nil
}

// GetRun retrieves an archived run by ID
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*workflow.AnalysisRun, error) {
	data, err := r.client.Get(ctx, r.getKey(runID)).Result()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrRunNotFound, "run_id=%s", runID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get run snapshot from redis: run_id=%s", runID)
	}

	var run workflow.AnalysisRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal run snapshot: run_id=%s", runID)
	}

	return &run, nil
}

// ListRunIDs returns the most recent run IDs for a symbol, newest first
func (r *RunRepository) ListRunIDs(ctx context.Context, symbol string, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := r.client.LRange(ctx, r.getSymbolKey(symbol), 0, limit-1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list runs for symbol=%s", symbol)
	}
	return ids, nil
}

func (r *RunRepository) getKey(runID string) string {
	return fmt.Sprintf("analysis_run:%s", runID)
}

func (r *RunRepository) getSymbolKey(symbol string) string {
	return fmt.Sprintf("analysis_runs_by_symbol:%s", symbol)
}
