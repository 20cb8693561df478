package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tourney/internal/stats"
)

const testCities = `A 0,0,0
B 3,0,0
C 3,4,0
D 0,4,0
E 1,2,0
F 2,5,1
`

func chdirTemp(t *testing.T) string {
	t.Helper()
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	workdir := t.TempDir()
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir tempdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})
	if err := os.WriteFile(filepath.Join(workdir, "input.lst"), []byte(testCities), 0o644); err != nil {
		t.Fatalf("write cities: %v", err)
	}
	return workdir
}

func TestRunCommandPersistsAndReadsBack(t *testing.T) {
	workdir := chdirTemp(t)
	dbPath := filepath.Join(workdir, "tourney.db")
	args := []string{
		"run",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--population", "40",
		"--viable", "8",
		"--breed-percent", "40",
		"--elite-percent", "5",
		"--mutation-rate", "0.05",
		"--generation-limit", "8",
		"--seed", "21",
		"--file-headers",
		"--mute",
	}
	out, err := captureStdout(func() error { return run(context.Background(), args) })
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output when muted, got %q", out)
	}

	entries, err := stats.ListRunIndex(artifactsDir)
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) != 1 || entries[0].Seed != 21 || entries[0].PopulationSize != 40 {
		t.Fatalf("unexpected run index: %+v", entries)
	}
	runID := entries[0].RunID

	table, err := os.ReadFile("tourney.out")
	if err != nil {
		t.Fatalf("read generation table: %v", err)
	}
	if !strings.HasPrefix(string(table), "generation\tbest\tworst") {
		t.Fatalf("expected header row, got %q", table)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"generations", "--latest", "--db-path", dbPath, "--limit", "2"})
	})
	if err != nil {
		t.Fatalf("generations command: %v", err)
	}
	if strings.Count(out, "generation=") != 2 {
		t.Fatalf("unexpected generations output:\n%s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"champion", "--run-id", runID, "--db-path", dbPath})
	})
	if err != nil {
		t.Fatalf("champion command: %v", err)
	}
	if !strings.Contains(out, "route=A->") {
		t.Fatalf("unexpected champion output:\n%s", out)
	}

	out, err = captureStdout(func() error { return run(context.Background(), []string{"runs"}) })
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.Contains(out, "run_id="+runID) {
		t.Fatalf("expected run in list:\n%s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"export", "--latest", "--db-path", dbPath})
	})
	if err != nil {
		t.Fatalf("export command: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exportsDir, runID, runID+".xlsx")); err != nil {
		t.Fatalf("expected workbook: %v\n%s", err, out)
	}
}

func TestRunCommandUsesConfigFile(t *testing.T) {
	chdirTemp(t)
	config := "c_count: 30\nv_count: 6\nb_percent: 50\ngenlimit: 4\nseed: 5\noutfile: ''\nsilent: true\nstore: memory\n"
	if err := os.WriteFile("tourney.yaml", []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"run", "--config", "tourney.yaml", "--seed", "6"})
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
	if !strings.Contains(out, "Final Best = ") || !strings.Contains(out, "seed=6") {
		t.Fatalf("unexpected silent output:\n%s", out)
	}
	if _, err := os.Stat("tourney.out"); !os.IsNotExist(err) {
		t.Fatalf("expected no generation table, stat err=%v", err)
	}
}

func TestRouteAndCitiesCommands(t *testing.T) {
	chdirTemp(t)

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"route", "--genome", "0x00x10x20x30x40x5"})
	})
	if err != nil {
		t.Fatalf("route command: %v", err)
	}
	if !strings.Contains(out, "route=A->B->C->D->E->F") || !strings.Contains(out, "viable=true") {
		t.Fatalf("unexpected route output:\n%s", out)
	}

	out, err = captureStdout(func() error { return run(context.Background(), []string{"cities"}) })
	if err != nil {
		t.Fatalf("cities command: %v", err)
	}
	if !strings.Contains(out, "C\t(3,4,0)") || !strings.Contains(out, "cities=6") {
		t.Fatalf("unexpected cities output:\n%s", out)
	}
}

func TestCitiesGenerateCommand(t *testing.T) {
	chdirTemp(t)

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"cities", "--generate", "7", "--cities", "random.lst", "--flat"})
	})
	if err != nil {
		t.Fatalf("generate command: %v", err)
	}
	if !strings.Contains(out, "generated cities=7") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"cities", "--cities", "random.lst"})
	})
	if err != nil {
		t.Fatalf("cities command: %v", err)
	}
	if !strings.Contains(out, "C007\t") || !strings.Contains(out, "cities=7") {
		t.Fatalf("unexpected cities output:\n%s", out)
	}
}

func TestRunCommandErrors(t *testing.T) {
	chdirTemp(t)
	cases := [][]string{
		{},
		{"bogus"},
		{"--log-level", "loud", "runs"},
		{"run", "--store", "memory", "--outfile", ""},
		{"run", "--store", "memory", "--breed-percent", "10", "--decimation-percent", "100"},
		{"route"},
		{"export"},
		{"champion", "--latest", "--store", "memory"},
	}
	for _, args := range cases {
		if _, err := captureStdout(func() error { return run(context.Background(), args) }); err == nil {
			t.Fatalf("expected error for args %v", args)
		}
	}
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.Bytes()
	}()
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	out := <-done
	_ = r.Close()
	return string(out), runErr
}
