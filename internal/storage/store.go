package storage

import (
	"context"

	"effector/internal/model"
)

// Store persists run records and per-step decoded snapshots.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveSnapshot(ctx context.Context, snapshot model.StepSnapshot) error
	GetSnapshot(ctx context.Context, runID string, step int) (model.StepSnapshot, bool, error)
	LatestStep(ctx context.Context, runID string) (int, bool, error)
}
