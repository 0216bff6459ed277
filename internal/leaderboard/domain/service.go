package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// ComputeSnapshot scores the period's derived targets against the
	// achievement ledger and appends a new snapshot. An empty
	// rulesVersion uses the configured default.
	ComputeSnapshot(ctx context.Context, periodID snowflake.ID, rulesVersion string) (*Snapshot, error)
	GetRows(ctx context.Context, snapshotID snowflake.ID) ([]Row, error)
	ListSnapshots(ctx context.Context, periodID snowflake.ID) ([]Snapshot, error)
	// Current returns the latest snapshot for the period with its rows.
	Current(ctx context.Context, periodID snowflake.ID) (*Snapshot, []Row, error)
}

var (
	ErrNotComputed      = errors.New("not_computed")
	ErrSnapshotNotFound = errors.New("snapshot_not_found")
)
