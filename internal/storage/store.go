package storage

import (
	"context"

	"tourney/internal/model"
)

// Store persists finished runs: their configuration and outcome, the
// per-generation table and the champion chromosome.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every run, oldest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveGenerations(ctx context.Context, runID string, generations []model.GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveChampion(ctx context.Context, champion model.ChampionRecord) error
	GetChampion(ctx context.Context, runID string) (model.ChampionRecord, bool, error)
}
