package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"tourney/internal/model"
)

const (
	runIndexFile    = "run_index.json"
	runFile         = "run.json"
	generationsFile = "generations.json"
	championFile    = "champion.json"
	summaryFile     = "summary.json"
	bestSeriesFile  = "best_series.csv"

	// createdAtLayout sorts lexicographically in time order.
	createdAtLayout = "%Y-%m-%dT%H:%M:%SZ"
)

type RunArtifacts struct {
	Run         model.RunRecord          `json:"run"`
	Generations []model.GenerationRecord `json:"generations"`
	Champion    *model.ChampionRecord    `json:"champion,omitempty"`
	Summary     RunSummary               `json:"summary"`
}

type RunIndexEntry struct {
	RunID           string  `json:"run_id"`
	CitiesPath      string  `json:"cities_path"`
	CityCount       int     `json:"city_count"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	StoppedBy       string  `json:"stopped_by"`
	Seed            int64   `json:"seed"`
	Operator        string  `json:"operator"`
	FinalBest       float64 `json:"final_best"`
	ChampionFitness float64 `json:"champion_fitness,omitempty"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}

// FormatCreatedAt renders t the way the run index stores it.
func FormatCreatedAt(t time.Time) string {
	return strftime.Format(createdAtLayout, t.UTC())
}

// NewRunIndexEntry summarises artifacts for the run index.
func NewRunIndexEntry(artifacts RunArtifacts) RunIndexEntry {
	run := artifacts.Run
	entry := RunIndexEntry{
		RunID:          run.ID,
		CitiesPath:     run.CitiesPath,
		CityCount:      run.CityCount,
		PopulationSize: run.Config.Population,
		Generations:    run.Generations,
		StoppedBy:      run.StoppedBy,
		Seed:           run.Config.Seed,
		Operator:       run.Config.Operator,
		FinalBest:      run.FinalBest,
		CreatedAtUTC:   FormatCreatedAt(run.CreatedAt),
	}
	if artifacts.Champion != nil {
		entry.ChampionFitness = artifacts.Champion.Fitness
	}
	return entry
}

// WriteRunArtifacts writes the run files into baseDir/<run id> and returns
// that directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, generationsFile), artifacts.Generations); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if artifacts.Champion != nil {
		if err := writeJSON(filepath.Join(runDir, championFile), artifacts.Champion); err != nil {
			return "", err
		}
	}
	if err := WriteBestSeries(runDir, artifacts.Generations); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadRunArtifacts loads a run directory written by WriteRunArtifacts.
func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	runDir := filepath.Join(baseDir, runID)
	var artifacts RunArtifacts
	ok, err := readJSON(filepath.Join(runDir, runFile), &artifacts.Run)
	if err != nil || !ok {
		return RunArtifacts{}, false, err
	}
	if _, err := readJSON(filepath.Join(runDir, generationsFile), &artifacts.Generations); err != nil {
		return RunArtifacts{}, false, err
	}
	if _, err := readJSON(filepath.Join(runDir, summaryFile), &artifacts.Summary); err != nil {
		return RunArtifacts{}, false, err
	}
	var champion model.ChampionRecord
	found, err := readJSON(filepath.Join(runDir, championFile), &champion)
	if err != nil {
		return RunArtifacts{}, false, err
	}
	if found {
		artifacts.Champion = &champion
	}
	return artifacts, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	ok, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RunIndexEntry{}, nil
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory into outDir/<run id>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}
	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{runFile, generationsFile, summaryFile, bestSeriesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	championPath := filepath.Join(src, championFile)
	if _, err := os.Stat(championPath); err == nil {
		if err := copyFile(championPath, filepath.Join(dst, championFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}
	return dst, nil
}

// WriteBestSeries writes generation,best rows as CSV.
func WriteBestSeries(runDir string, generations []model.GenerationRecord) error {
	file, err := os.Create(filepath.Join(runDir, bestSeriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best"}); err != nil {
		return err
	}
	for _, g := range generations {
		if err := writer.Write([]string{
			strconv.Itoa(g.Generation),
			strconv.FormatFloat(g.Best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadBestSeries(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, bestSeriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 || strings.TrimSpace(header[1]) != "best" {
		return nil, false, fmt.Errorf("best series header must be generation,best")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
