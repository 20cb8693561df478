package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tourney/internal/evo"
)

// TSVColumns is the column order of the generation file.
var TSVColumns = []string{"generation", "best", "worst", "average", "sec", "viable", "bred", "entropy", "mutated"}

// TSV writes one tab separated row per generation.
type TSV struct {
	w      *bufio.Writer
	closer io.Closer
}

// CreateTSV creates (or truncates) path and optionally writes a header row.
func CreateTSV(path string, headers bool) (*TSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create generation file: %w", err)
	}
	t, err := NewTSV(f, headers)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

func NewTSV(w io.Writer, headers bool) (*TSV, error) {
	t := &TSV{w: bufio.NewWriter(w)}
	if headers {
		if _, err := t.w.WriteString(strings.Join(TSVColumns, "\t") + "\n"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *TSV) ReportSeed(evo.SeedReport) error {
	return nil
}

func (t *TSV) ReportGeneration(r evo.GenerationReport) error {
	fields := []string{
		strconv.Itoa(r.Generation),
		formatFloat(r.Best),
		formatFloat(r.Worst),
		formatFloat(r.Average),
		formatFloat(r.Seconds()),
		strconv.Itoa(r.Population),
		strconv.Itoa(r.BreedingPool),
		formatFloat(r.Entropy),
		strconv.Itoa(r.Mutated),
	}
	_, err := t.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

func (t *TSV) Flush() error {
	return t.w.Flush()
}

// Close flushes buffered rows and closes the file opened by CreateTSV.
func (t *TSV) Close() error {
	if err := t.w.Flush(); err != nil {
		return err
	}
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
