package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/djratlif/StockBot/internal/common"
	"github.com/djratlif/StockBot/internal/models"
)

type SnapshotStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewSnapshotStore(db *surrealdb.DB, logger *common.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

// snapshotID keys snapshots at second granularity, which makes a repeated
// save for the same instant an upsert of identical data rather than a
// duplicate point on the chart.
func snapshotID(ts time.Time) string {
	return ts.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Get returns the snapshot at exactly ts, or nil when absent.
func (s *SnapshotStore) Get(ctx context.Context, ts time.Time) (*models.PortfolioSnapshot, error) {
	snap, err := surrealdb.Select[models.PortfolioSnapshot](ctx, s.db, surrealmodels.NewRecordID("snapshots", snapshotID(ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to select snapshot: %w", err)
	}
	if snap == nil || snap.Timestamp.IsZero() {
		return nil, nil
	}
	return snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap *models.PortfolioSnapshot) error {
	sql := "UPSERT type::record('snapshots', $id) CONTENT $snapshot"
	vars := map[string]any{"id": snapshotID(snap.Timestamp), "snapshot": snap}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.PortfolioSnapshot](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save snapshot after retries: %w", err)
		}
	}
	return nil
}

// ListSince returns snapshots with timestamp >= from, oldest first.
func (s *SnapshotStore) ListSince(ctx context.Context, from time.Time) ([]models.PortfolioSnapshot, error) {
	sql := "SELECT * FROM snapshots WHERE timestamp >= $from ORDER BY timestamp ASC"
	vars := map[string]any{"from": from.UTC().Format(time.RFC3339)}

	results, err := surrealdb.Query[[]models.PortfolioSnapshot](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return nil, nil
}
