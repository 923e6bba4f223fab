// Package forecastrun keeps an insert-only history of forecast runs.
package forecastrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/db"
	"github.com/kailas-cloud/colmap/internal/domain"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
)

// DefaultHistorySize bounds the per-user feed of run IDs.
const DefaultHistorySize = 100

const anonymousUser = "anonymous"

// store is the consumer interface for run history (ISP).
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Repo stores each run as JSON and a newest-first list of run IDs per user.
type Repo struct {
	store       store
	historySize int64
	logger      *zap.Logger
}

// New creates a run history repository. historySize <= 0 uses DefaultHistorySize.
func New(s store, historySize int, logger *zap.Logger) *Repo {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Repo{store: s, historySize: int64(historySize), logger: logger}
}

// Save writes the run and pushes its ID onto the requester's feed.
func (r *Repo) Save(ctx context.Context, run domfc.Run) error {
	if run.JobID == "" {
		return fmt.Errorf("%w: run job id is required", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.JobID, err)
	}
	if err := r.store.Set(ctx, runKey(run.JobID), data); err != nil {
		return fmt.Errorf("save run %s: %w", run.JobID, wrapStorage(err))
	}

	feed := feedKey(run.RequestedBy)
	if err := r.store.LPush(ctx, feed, run.JobID); err != nil {
		return fmt.Errorf("push run %s: %w", run.JobID, wrapStorage(err))
	}
	if err := r.store.LTrim(ctx, feed, 0, r.historySize-1); err != nil {
		// The run itself is stored; an untrimmed feed only grows.
		r.logger.Warn("Failed to trim run history", zap.String("key", feed), zap.Error(err))
	}
	return nil
}

// Recent returns up to limit runs of user, newest first. IDs whose run
// document has expired or vanished are skipped.
func (r *Repo) Recent(ctx context.Context, user string, limit int) ([]domfc.Run, error) {
	if limit <= 0 {
		return []domfc.Run{}, nil
	}

	ids, err := r.store.LRange(ctx, feedKey(user), 0, int64(limit)-1)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", wrapStorage(err))
	}

	runs := make([]domfc.Run, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKey(id)
	}
	docs, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get %d runs: %w", len(keys), wrapStorage(err))
	}

	for i, data := range docs {
		if data == nil {
			continue
		}
		var run domfc.Run
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("unmarshal run %s: %w", ids[i], err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func runKey(jobID string) string {
	return domain.KeyPrefix + "forecast_run:" + jobID
}

func feedKey(user string) string {
	if user == "" {
		user = anonymousUser
	}
	return domain.KeyPrefix + "forecast_runs:" + user
}

func wrapStorage(err error) error {
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return err
}
