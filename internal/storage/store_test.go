package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tourney/internal/model"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	return map[string]Store{
		"memory":        NewMemoryStore(),
		"sqlite":        NewSQLiteStore(filepath.Join(dir, "tourney.db")),
		"badger":        NewBadgerStore(filepath.Join(dir, "badger")),
		"badger-memory": NewBadgerStore(""),
	}
}

func sampleRun(id string, created time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		CreatedAt:       created,
		CitiesPath:      "input.lst",
		CityCount:       12,
		Config: model.RunConfig{
			Population:      500,
			BreedPct:        20,
			SamenessLimit:   50,
			GenerationLimit: 1000,
			Operator:        "splice",
			Seed:            9,
		},
		Generations: 42,
		StoppedBy:   "sameness",
		FinalBest:   123.5,
		FinalGenome: "0x00x1",
	}
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			t.Cleanup(func() {
				_ = CloseIfSupported(store)
			})

			later := sampleRun("run-b", base.Add(time.Minute))
			earlier := sampleRun("run-a", base)
			for _, run := range []model.RunRecord{later, earlier} {
				if err := store.SaveRun(ctx, run); err != nil {
					t.Fatalf("save run: %v", err)
				}
			}

			loaded, ok, err := store.GetRun(ctx, "run-a")
			if err != nil {
				t.Fatalf("get run: %v", err)
			}
			if !ok || loaded.Config.Population != 500 || loaded.FinalBest != 123.5 || !loaded.CreatedAt.Equal(base) {
				t.Fatalf("unexpected run loaded: ok=%v %+v", ok, loaded)
			}

			runs, err := store.ListRuns(ctx)
			if err != nil {
				t.Fatalf("list runs: %v", err)
			}
			if len(runs) != 2 || runs[0].ID != "run-a" || runs[1].ID != "run-b" {
				t.Fatalf("expected runs oldest first, got %+v", runs)
			}

			generations := []model.GenerationRecord{
				{Generation: 1, Best: 10, Worst: 20, Average: 15, Population: 100, BreedingPool: 20, Entropy: 90, Mutated: 1},
				{Generation: 2, Best: 9, Worst: 19, Average: 14, Population: 100, BreedingPool: 20, Entropy: 80},
			}
			if err := store.SaveGenerations(ctx, "run-a", generations); err != nil {
				t.Fatalf("save generations: %v", err)
			}
			generations[0].Best = -1
			loadedGenerations, ok, err := store.GetGenerations(ctx, "run-a")
			if err != nil {
				t.Fatalf("get generations: %v", err)
			}
			if !ok || len(loadedGenerations) != 2 || loadedGenerations[0].Best != 10 || loadedGenerations[1].Generation != 2 {
				t.Fatalf("unexpected generations: %+v", loadedGenerations)
			}

			champion := model.ChampionRecord{
				VersionedRecord: CurrentVersion(),
				RunID:           "run-a",
				Fitness:         8.25,
				Generation:      17,
				Genome:          "0x00x20x1",
				Route:           "A->C->B",
			}
			if err := store.SaveChampion(ctx, champion); err != nil {
				t.Fatalf("save champion: %v", err)
			}
			loadedChampion, ok, err := store.GetChampion(ctx, "run-a")
			if err != nil {
				t.Fatalf("get champion: %v", err)
			}
			if !ok || loadedChampion != champion {
				t.Fatalf("unexpected champion: %+v", loadedChampion)
			}
		})
	}
}

func TestStoresReportMissingRecords(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			t.Cleanup(func() {
				_ = CloseIfSupported(store)
			})

			if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
				t.Fatalf("get run: ok=%v err=%v", ok, err)
			}
			if _, ok, err := store.GetGenerations(ctx, "missing"); err != nil || ok {
				t.Fatalf("get generations: ok=%v err=%v", ok, err)
			}
			if _, ok, err := store.GetChampion(ctx, "missing"); err != nil || ok {
				t.Fatalf("get champion: ok=%v err=%v", ok, err)
			}
			runs, err := store.ListRuns(ctx)
			if err != nil || len(runs) != 0 {
				t.Fatalf("list runs: %v %+v", err, runs)
			}
		})
	}
}

func TestFileBackedStoresPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := map[string]func() Store{
		"sqlite": func() Store { return NewSQLiteStore(filepath.Join(dir, "tourney.db")) },
		"badger": func() Store { return NewBadgerStore(filepath.Join(dir, "badger")) },
	}
	for name, factory := range open {
		t.Run(name, func(t *testing.T) {
			first := factory()
			if err := first.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			if err := first.SaveRun(ctx, sampleRun("kept", time.Unix(100, 0).UTC())); err != nil {
				t.Fatalf("save run: %v", err)
			}
			if err := CloseIfSupported(first); err != nil {
				t.Fatalf("close: %v", err)
			}

			second := factory()
			if err := second.Init(ctx); err != nil {
				t.Fatalf("reopen: %v", err)
			}
			t.Cleanup(func() {
				_ = CloseIfSupported(second)
			})
			if _, ok, err := second.GetRun(ctx, "kept"); err != nil || !ok {
				t.Fatalf("expected persisted run, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestUninitializedStoresFail(t *testing.T) {
	ctx := context.Background()
	if err := NewSQLiteStore("x.db").SaveRun(ctx, sampleRun("a", time.Now())); err == nil {
		t.Fatal("expected sqlite error before init")
	}
	if err := NewBadgerStore("").SaveRun(ctx, sampleRun("a", time.Now())); err == nil {
		t.Fatal("expected badger error before init")
	}
	if err := NewMemoryStore().SaveRun(ctx, sampleRun("a", time.Now())); err == nil {
		t.Fatal("expected memory error before init")
	}
	if err := NewSQLiteStore("").Init(ctx); err == nil {
		t.Fatal("expected error for empty sqlite path")
	}
}
