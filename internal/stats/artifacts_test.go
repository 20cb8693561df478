package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"tourney/internal/model"
)

func sampleArtifacts(id string, created time.Time) RunArtifacts {
	generations := []model.GenerationRecord{
		{Generation: 1, Best: 30, Worst: 50, Average: 40, Seconds: 0.5, Population: 100, BreedingPool: 20, Entropy: 90, Mutated: 2},
		{Generation: 2, Best: 20, Worst: 45, Average: 32.5, Seconds: 0.5, Population: 100, BreedingPool: 20, Entropy: 70, Mutated: 1},
		{Generation: 3, Best: 10, Worst: 40, Average: 25, Seconds: 0.5, Population: 100, BreedingPool: 20, Entropy: 50},
	}
	return RunArtifacts{
		Run: model.RunRecord{
			ID:          id,
			CreatedAt:   created,
			CitiesPath:  "input.lst",
			CityCount:   5,
			Config:      model.RunConfig{Population: 100, Operator: "splice", Seed: 4},
			Generations: 3,
			StoppedBy:   "generation_limit",
			FinalBest:   10,
			FinalGenome: "0x00x1",
			FinalRoute:  "A->B",
		},
		Generations: generations,
		Champion:    &model.ChampionRecord{RunID: id, Fitness: 10, Generation: 3, Genome: "0x00x1", Route: "A->B"},
		Summary:     Summarize(generations),
	}
}

func TestWriteAndReadRunArtifacts(t *testing.T) {
	base := t.TempDir()
	artifacts := sampleArtifacts("run-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	runDir, err := WriteRunArtifacts(base, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, name := range []string{runFile, generationsFile, summaryFile, championFile, bestSeriesFile} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	loaded, ok, err := ReadRunArtifacts(base, "run-1")
	if err != nil || !ok {
		t.Fatalf("read artifacts: ok=%v err=%v", ok, err)
	}
	if loaded.Run.FinalBest != 10 || len(loaded.Generations) != 3 || loaded.Champion == nil || loaded.Champion.Generation != 3 {
		t.Fatalf("unexpected artifacts: %+v", loaded)
	}
	if loaded.Summary.Improvement != 20 {
		t.Fatalf("unexpected summary: %+v", loaded.Summary)
	}

	series, ok, err := ReadBestSeries(base, "run-1")
	if err != nil || !ok {
		t.Fatalf("read series: ok=%v err=%v", ok, err)
	}
	if len(series) != 3 || series[2] != 10 {
		t.Fatalf("unexpected series: %v", series)
	}

	if _, ok, err := ReadRunArtifacts(base, "missing"); err != nil || ok {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
	if _, err := WriteRunArtifacts(base, RunArtifacts{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestRunIndexNewestFirstAndReplace(t *testing.T) {
	base := t.TempDir()
	older := NewRunIndexEntry(sampleArtifacts("old", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	newer := NewRunIndexEntry(sampleArtifacts("new", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	if older.CreatedAtUTC != "2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected timestamp format: %s", older.CreatedAtUTC)
	}
	for _, e := range []RunIndexEntry{older, newer} {
		if err := AppendRunIndex(base, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	older.FinalBest = 1
	if err := AppendRunIndex(base, older); err != nil {
		t.Fatalf("replace: %v", err)
	}

	entries, err := ListRunIndex(base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].RunID != "new" || entries[1].FinalBest != 1 {
		t.Fatalf("unexpected index: %+v", entries)
	}
	if entries[1].ChampionFitness != 10 {
		t.Fatalf("expected champion fitness in index, got %+v", entries[1])
	}

	empty, err := ListRunIndex(t.TempDir())
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty index: %v %+v", err, empty)
	}
}

func TestExportRunArtifacts(t *testing.T) {
	base := t.TempDir()
	if _, err := WriteRunArtifacts(base, sampleArtifacts("run-x", time.Now())); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := t.TempDir()
	dst, err := ExportRunArtifacts(base, "run-x", out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, championFile)); err != nil {
		t.Fatalf("expected champion copy: %v", err)
	}
	if _, err := ExportRunArtifacts(base, "nope", out); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestExportWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	if err := ExportWorkbook(path, sampleArtifacts("run-w", time.Now())); err != nil {
		t.Fatalf("export workbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(generationsSheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 4 || rows[0][1] != "best" || rows[3][1] != "10" {
		t.Fatalf("unexpected generation rows: %v", rows)
	}
	champion, err := f.GetCellValue(summarySheet, "A19")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	if champion != "champion_fitness" {
		t.Fatalf("expected champion rows after the summary, got %q", champion)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleArtifacts("s", time.Now()).Generations)
	if s.InitialBest != 30 || s.FinalBest != 10 || s.BestMin != 10 || s.BestMax != 30 || s.BestMean != 20 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.TotalMutations != 3 || s.MeanEntropy != 70 || s.TotalSeconds != 1.5 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if (Summarize(nil) != RunSummary{}) {
		t.Fatal("expected zero summary for no generations")
	}
}
