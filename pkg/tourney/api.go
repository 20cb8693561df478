package tourney

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tourney/internal/evo"
	"tourney/internal/genome"
	"tourney/internal/model"
	"tourney/internal/report"
	"tourney/internal/route"
	"tourney/internal/stats"
	"tourney/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "tourney.db"
)

// Gene is the gene width used for route genomes.
type Gene = uint8

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	// Logger receives structured diagnostics. Nil discards them.
	Logger *slog.Logger
	// Stdout receives console reporting. Nil means os.Stdout.
	Stdout io.Writer
}

type Client struct {
	store       storage.Store
	initialized bool
	logger      *slog.Logger
	stdout      io.Writer

	artifactsDir string
	exportsDir   string
}

// RunRequest describes one optimisation run. Percent fields are in [0,100].
type RunRequest struct {
	CitiesPath       string
	Population       int
	ViableSeeds      int
	DecimationPct    float64
	ElitePct         float64
	BreedPct         float64
	MutationRate     float64
	MutateSurvivors  bool
	SamenessLimit    int
	GenerationLimit  int
	EntropyThreshold float64
	Operator         string
	Seed             int64

	// OutFile receives one tab separated row per generation when set.
	OutFile      string
	FileHeaders  bool
	DisplayEvery int
	Silent       bool
	Mute         bool
	WorldSilent  bool
}

type ChampionSummary struct {
	Fitness    float64
	Generation int
	Route      string
	Genome     string
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Seed             int64
	Generations      int
	StoppedBy        string
	FinalBest        float64
	FinalRoute       string
	FinalGenome      string
	Champion         *ChampionSummary
	BestByGeneration []float64
	Elapsed          time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	CitiesPath      string
	CityCount       int
	Population      int
	Generations     int
	StoppedBy       string
	Seed            int64
	Operator        string
	FinalBest       float64
	ChampionFitness float64
}

// RunRef selects a run by id or the most recent one.
type RunRef struct {
	RunID  string
	Latest bool
}

type GenerationsRequest struct {
	RunRef
	Limit int
}

type ExportRequest struct {
	RunRef
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
	Workbook  string
}

type RouteRequest struct {
	CitiesPath string
	Genome     string
}

type GenerateCitiesRequest struct {
	Path   string
	Count  int
	Extent float64
	Flat   bool
	Seed   int64
}

type RouteSummary struct {
	Route   string
	Fitness float64
	Viable  bool
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" && opts.StoreKind == "sqlite" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		stdout:       stdout,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.CitiesPath == "" {
		return RunSummary{}, errors.New("cities file is required")
	}
	cities, err := route.Load(req.CitiesPath)
	if err != nil {
		return RunSummary{}, err
	}
	evaluator, err := route.NewEvaluator[Gene](cities)
	if err != nil {
		return RunSummary{}, err
	}
	cfg := engineConfig(req, len(cities))
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	console := report.NewConsole(c.stdout, report.ParseMode(req.Silent, req.Mute), req.DisplayEvery, req.WorldSilent)
	reporters := []evo.Reporter{console}
	var tsv *report.TSV
	if req.OutFile != "" {
		tsv, err = report.CreateTSV(req.OutFile, req.FileHeaders)
		if err != nil {
			return RunSummary{}, err
		}
		defer tsv.Close()
		reporters = append(reporters, tsv)
	}

	engine, err := evo.NewEngine[Gene](cfg, evaluator, c.logger, reporters...)
	if err != nil {
		return RunSummary{}, err
	}
	if err := console.Settings(settingPairs(req, engine.Seed())); err != nil {
		return RunSummary{}, err
	}
	if console.ShowWorld() {
		if err := evaluator.Dump(c.stdout); err != nil {
			return RunSummary{}, err
		}
	}

	runID := uuid.NewString()
	started := time.Now().UTC()
	c.logger.Info("run started", "run_id", runID, "cities", len(cities), "seed", engine.Seed())

	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}
	if tsv != nil {
		if err := tsv.Close(); err != nil {
			return RunSummary{}, err
		}
	}

	summary := RunSummary{
		RunID:            runID,
		Seed:             result.Seed,
		Generations:      result.Generations,
		StoppedBy:        string(result.StoppedBy),
		FinalBest:        result.Final.Fitness,
		BestByGeneration: make([]float64, 0, len(result.Reports)),
		Elapsed:          result.Elapsed,
	}
	for _, r := range result.Reports {
		summary.BestByGeneration = append(summary.BestByGeneration, r.Best)
	}
	if result.Final.Genome != nil {
		summary.FinalGenome = result.Final.Genome.Encode()
		if summary.FinalRoute, err = evaluator.ShowRoute(result.Final.Genome); err != nil {
			return RunSummary{}, err
		}
	}
	if result.Champion.Genome != nil {
		champion := &ChampionSummary{
			Fitness:    result.Champion.Fitness,
			Generation: result.ChampionGeneration,
			Genome:     result.Champion.Genome.Encode(),
		}
		if champion.Route, err = evaluator.ShowRoute(result.Champion.Genome); err != nil {
			return RunSummary{}, err
		}
		summary.Champion = champion
	}

	artifacts := buildArtifacts(req, len(cities), started, summary, result.Reports)
	if err := c.persist(ctx, artifacts); err != nil {
		return RunSummary{}, err
	}
	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, artifacts)
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.NewRunIndexEntry(artifacts)); err != nil {
		return RunSummary{}, err
	}
	summary.ArtifactsDir = filepath.Clean(runDir)

	consoleSummary := report.Summary{
		RunID:       runID,
		Started:     started.Local(),
		FinalBest:   summary.FinalBest,
		FinalRoute:  summary.FinalRoute,
		FinalGenome: summary.FinalGenome,
		Generations: summary.Generations,
		StoppedBy:   summary.StoppedBy,
		Elapsed:     summary.Elapsed,
	}
	if ch := summary.Champion; ch != nil {
		consoleSummary.HasChampion = true
		consoleSummary.Champion = ch.Fitness
		consoleSummary.ChampionRoute = ch.Route
		consoleSummary.ChampionGenome = ch.Genome
		consoleSummary.ChampionGeneration = ch.Generation
	}
	if err := console.Summary(consoleSummary); err != nil {
		return RunSummary{}, err
	}
	return summary, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:           e.RunID,
			CreatedAtUTC:    e.CreatedAtUTC,
			CitiesPath:      e.CitiesPath,
			CityCount:       e.CityCount,
			Population:      e.PopulationSize,
			Generations:     e.Generations,
			StoppedBy:       e.StoppedBy,
			Seed:            e.Seed,
			Operator:        e.Operator,
			FinalBest:       e.FinalBest,
			ChampionFitness: e.ChampionFitness,
		})
	}
	return out, nil
}

func (c *Client) Generations(ctx context.Context, req GenerationsRequest) ([]model.GenerationRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunRef, "generations")
	if err != nil {
		return nil, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	generations, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generations not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(generations) > req.Limit {
		generations = generations[:req.Limit]
	}
	out := make([]model.GenerationRecord, len(generations))
	copy(out, generations)
	return out, nil
}

func (c *Client) Champion(ctx context.Context, ref RunRef) (model.ChampionRecord, error) {
	runID, err := c.resolveRunID(ref, "champion")
	if err != nil {
		return model.ChampionRecord{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return model.ChampionRecord{}, err
	}
	champion, ok, err := c.store.GetChampion(ctx, runID)
	if err != nil {
		return model.ChampionRecord{}, err
	}
	if !ok {
		return model.ChampionRecord{}, fmt.Errorf("champion not found for run id: %s", runID)
	}
	return champion, nil
}

// Export copies a run's artifact directory into OutDir and writes an xlsx
// workbook next to it.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunRef, "export")
	if err != nil {
		return ExportSummary{}, err
	}

	artifacts, ok, err := stats.ReadRunArtifacts(c.artifactsDir, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		if artifacts, err = c.artifactsFromStore(ctx, runID); err != nil {
			return ExportSummary{}, err
		}
		if _, err := stats.WriteRunArtifacts(c.artifactsDir, artifacts); err != nil {
			return ExportSummary{}, err
		}
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	workbook := filepath.Join(exportedDir, runID+".xlsx")
	if err := stats.ExportWorkbook(workbook, artifacts); err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir), Workbook: workbook}, nil
}

// Route decodes an encoded genome against a city file.
func (c *Client) Route(_ context.Context, req RouteRequest) (RouteSummary, error) {
	cities, err := route.Load(req.CitiesPath)
	if err != nil {
		return RouteSummary{}, err
	}
	evaluator, err := route.NewEvaluator[Gene](cities)
	if err != nil {
		return RouteSummary{}, err
	}
	g, err := genome.Decode[Gene](req.Genome)
	if err != nil {
		return RouteSummary{}, err
	}
	fitness, err := evaluator.Score(g)
	if err != nil {
		return RouteSummary{}, err
	}
	path, err := evaluator.ShowRoute(g)
	if err != nil {
		return RouteSummary{}, err
	}
	return RouteSummary{Route: path, Fitness: fitness, Viable: fitness >= 0}, nil
}

// Cities loads a city file and writes its table to w.
func (c *Client) Cities(_ context.Context, path string, w io.Writer) ([]route.City, error) {
	cities, err := route.Load(path)
	if err != nil {
		return nil, err
	}
	evaluator, err := route.NewEvaluator[Gene](cities)
	if err != nil {
		return nil, err
	}
	if w != nil {
		if err := evaluator.Dump(w); err != nil {
			return nil, err
		}
	}
	return cities, nil
}

// GenerateCities writes a random city list to req.Path.
func (c *Client) GenerateCities(_ context.Context, req GenerateCitiesRequest) ([]route.City, error) {
	if req.Path == "" {
		return nil, errors.New("output path is required")
	}
	cities, err := route.Generate(route.GenerateOptions{
		Count:  req.Count,
		Extent: req.Extent,
		Flat:   req.Flat,
		Seed:   req.Seed,
	})
	if err != nil {
		return nil, err
	}
	f, err := os.Create(req.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := route.Write(f, cities); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	c.logger.Info("cities generated", "path", req.Path, "count", len(cities))
	return cities, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) resolveRunID(ref RunRef, op string) (string, error) {
	if ref.RunID != "" && ref.Latest {
		return "", errors.New("use either run id or latest")
	}
	if !ref.Latest {
		if ref.RunID == "" {
			return "", fmt.Errorf("%s requires run id or latest", op)
		}
		return ref.RunID, nil
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) persist(ctx context.Context, artifacts stats.RunArtifacts) error {
	if err := c.store.SaveRun(ctx, artifacts.Run); err != nil {
		return err
	}
	if err := c.store.SaveGenerations(ctx, artifacts.Run.ID, artifacts.Generations); err != nil {
		return err
	}
	if artifacts.Champion != nil {
		if err := c.store.SaveChampion(ctx, *artifacts.Champion); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) artifactsFromStore(ctx context.Context, runID string) (stats.RunArtifacts, error) {
	if err := c.ensureStore(ctx); err != nil {
		return stats.RunArtifacts{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	if !ok {
		return stats.RunArtifacts{}, fmt.Errorf("run not found: %s", runID)
	}
	generations, _, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	artifacts := stats.RunArtifacts{
		Run:         run,
		Generations: generations,
		Summary:     stats.Summarize(generations),
	}
	champion, ok, err := c.store.GetChampion(ctx, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	if ok {
		artifacts.Champion = &champion
	}
	return artifacts, nil
}

func engineConfig(req RunRequest, genomeLength int) evo.Config {
	return evo.Config{
		PopulationSize:     req.Population,
		ViableSeeds:        req.ViableSeeds,
		GenomeLength:       genomeLength,
		DecimationFraction: req.DecimationPct / 100,
		EliteFraction:      req.ElitePct / 100,
		BreedFraction:      req.BreedPct / 100,
		MutationRate:       req.MutationRate,
		MutateSurvivors:    req.MutateSurvivors,
		SamenessLimit:      req.SamenessLimit,
		GenerationLimit:    req.GenerationLimit,
		EntropyThreshold:   req.EntropyThreshold,
		Operator:           evo.Operator(req.Operator),
		Seed:               req.Seed,
	}
}

func settingPairs(req RunRequest, seed int64) [][2]string {
	operator := req.Operator
	if operator == "" {
		operator = string(evo.OperatorSplice)
	}
	return [][2]string{
		{"cities", req.CitiesPath},
		{"population", strconv.Itoa(req.Population)},
		{"viable", strconv.Itoa(req.ViableSeeds)},
		{"decimation_percent", strconv.FormatFloat(req.DecimationPct, 'g', -1, 64)},
		{"elite_percent", strconv.FormatFloat(req.ElitePct, 'g', -1, 64)},
		{"breed_percent", strconv.FormatFloat(req.BreedPct, 'g', -1, 64)},
		{"mutation_rate", strconv.FormatFloat(req.MutationRate, 'g', -1, 64)},
		{"sameness_limit", strconv.Itoa(req.SamenessLimit)},
		{"generation_limit", strconv.Itoa(req.GenerationLimit)},
		{"entropy_threshold", strconv.FormatFloat(req.EntropyThreshold, 'g', -1, 64)},
		{"operator", operator},
		{"seed", strconv.FormatInt(seed, 10)},
		{"outfile", req.OutFile},
	}
}

func buildArtifacts(req RunRequest, cityCount int, started time.Time, summary RunSummary, reports []evo.GenerationReport) stats.RunArtifacts {
	operator := req.Operator
	if operator == "" {
		operator = string(evo.OperatorSplice)
	}
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              summary.RunID,
		CreatedAt:       started,
		CitiesPath:      req.CitiesPath,
		CityCount:       cityCount,
		Config: model.RunConfig{
			Population:       req.Population,
			ViableSeeds:      req.ViableSeeds,
			DecimationPct:    req.DecimationPct,
			ElitePct:         req.ElitePct,
			BreedPct:         req.BreedPct,
			MutationRate:     req.MutationRate,
			MutateSurvivors:  req.MutateSurvivors,
			SamenessLimit:    req.SamenessLimit,
			GenerationLimit:  req.GenerationLimit,
			EntropyThreshold: req.EntropyThreshold,
			Operator:         operator,
			Seed:             summary.Seed,
		},
		Generations:    summary.Generations,
		StoppedBy:      summary.StoppedBy,
		FinalBest:      summary.FinalBest,
		FinalGenome:    summary.FinalGenome,
		FinalRoute:     summary.FinalRoute,
		ElapsedSeconds: summary.Elapsed.Seconds(),
	}

	generations := make([]model.GenerationRecord, 0, len(reports))
	for _, r := range reports {
		generations = append(generations, model.GenerationRecord{
			Generation:   r.Generation,
			Best:         r.Best,
			Worst:        r.Worst,
			Average:      r.Average,
			Seconds:      r.Seconds(),
			Population:   r.Population,
			BreedingPool: r.BreedingPool,
			Entropy:      r.Entropy,
			Mutated:      r.Mutated,
		})
	}

	artifacts := stats.RunArtifacts{
		Run:         run,
		Generations: generations,
		Summary:     stats.Summarize(generations),
	}
	if ch := summary.Champion; ch != nil {
		artifacts.Champion = &model.ChampionRecord{
			VersionedRecord: storage.CurrentVersion(),
			RunID:           summary.RunID,
			Fitness:         ch.Fitness,
			Generation:      ch.Generation,
			Genome:          ch.Genome,
			Route:           ch.Route,
		}
	}
	return artifacts
}
