// Package mapping persists column mapping decisions per tenant and dataset.
package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/colmap/internal/db"
	"github.com/kailas-cloud/colmap/internal/domain"
	dommap "github.com/kailas-cloud/colmap/internal/domain/mapping"
)

// store is the consumer interface for mapping records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo stores one hash per (tenant, dataset); each field is a source column.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates a mapping repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Save upserts a record per source column in one HSET.
func (r *Repo) Save(ctx context.Context, tenantID, datasetID string, mappings []dommap.ColumnMapping) error {
	if err := validateScope(tenantID, datasetID); err != nil {
		return err
	}
	if len(mappings) == 0 {
		return nil
	}

	at := r.now()
	fields := make(map[string]string, len(mappings))
	for _, m := range mappings {
		data, err := json.Marshal(dommap.NewRecord(m, at))
		if err != nil {
			return fmt.Errorf("marshal mapping %s: %w", m.Column, err)
		}
		fields[m.Column] = string(data)
	}

	key := hashKey(tenantID, datasetID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, wrapStorage(err))
	}
	return nil
}

// Get returns the record for a single source column.
func (r *Repo) Get(ctx context.Context, tenantID, datasetID, column string) (dommap.Record, error) {
	if err := validateScope(tenantID, datasetID); err != nil {
		return dommap.Record{}, err
	}

	raw, err := r.store.HGet(ctx, hashKey(tenantID, datasetID), column)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dommap.Record{}, domain.ErrNotFound
		}
		return dommap.Record{}, fmt.Errorf("hget mapping %s: %w", column, wrapStorage(err))
	}
	return decodeRecord(column, raw)
}

// List returns all records of a dataset sorted by source column.
// An unknown dataset yields domain.ErrNotFound.
func (r *Repo) List(ctx context.Context, tenantID, datasetID string) ([]dommap.Record, error) {
	if err := validateScope(tenantID, datasetID); err != nil {
		return nil, err
	}

	key := hashKey(tenantID, datasetID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, wrapStorage(err))
	}
	if len(m) == 0 {
		return nil, domain.ErrNotFound
	}

	out := make([]dommap.Record, 0, len(m))
	for column, raw := range m {
		rec, err := decodeRecord(column, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceColumn < out[j].SourceColumn })
	return out, nil
}

// Delete removes the records of the given columns.
func (r *Repo) Delete(ctx context.Context, tenantID, datasetID string, columns ...string) error {
	if err := validateScope(tenantID, datasetID); err != nil {
		return err
	}
	if err := r.store.HDel(ctx, hashKey(tenantID, datasetID), columns...); err != nil {
		return fmt.Errorf("hdel mappings: %w", wrapStorage(err))
	}
	return nil
}

func hashKey(tenantID, datasetID string) string {
	return domain.KeyPrefix + "mapping:" + tenantID + ":" + datasetID
}

func validateScope(tenantID, datasetID string) error {
	if tenantID == "" || datasetID == "" {
		return fmt.Errorf("%w: tenant and dataset are required", domain.ErrInvalidInput)
	}
	return nil
}

func decodeRecord(column, raw string) (dommap.Record, error) {
	var rec dommap.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return dommap.Record{}, fmt.Errorf("unmarshal mapping %s: %w", column, err)
	}
	return rec, nil
}

// wrapStorage tags driver failures so transport maps them to 503.
func wrapStorage(err error) error {
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return err
}
