package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourney/internal/evo"
)

func sampleReport(gen int, best float64) evo.GenerationReport {
	return evo.GenerationReport{
		Generation:   gen,
		Best:         best,
		Worst:        best + 10,
		Average:      best + 5,
		Elapsed:      1500 * time.Millisecond,
		Population:   1200,
		BreedingPool: 30,
		Entropy:      87.5,
		Mutated:      4,
	}
}

func TestConsoleVerboseRespectsDisplayModulus(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ModeVerbose, 2, false)
	require.NoError(t, c.ReportGeneration(sampleReport(1, 100)))
	assert.Empty(t, buf.String())

	require.NoError(t, c.ReportGeneration(sampleReport(2, 90)))
	out := buf.String()
	assert.Contains(t, out, "#     2: best 90.0000, worst 100.0000")
	assert.Contains(t, out, "(0:00:01.500)")
	assert.Contains(t, out, "count: 1,200, bred: 30, Mutated: 4, Entropy: 87.50%")
}

func TestConsoleSilentAndMute(t *testing.T) {
	var silent bytes.Buffer
	c := NewConsole(&silent, ModeSilent, 1, false)
	assert.False(t, c.ShowWorld())
	require.NoError(t, c.ReportSeed(evo.SeedReport{Requested: 5}))
	require.NoError(t, c.ReportGeneration(sampleReport(1, 1)))
	require.NoError(t, c.ReportGeneration(sampleReport(2, 1)))
	require.NoError(t, c.Summary(Summary{FinalBest: 1, Elapsed: 61 * time.Second}))
	assert.Equal(t, "..\nFinal Best = 1.0000 (0:01:01)\n", silent.String())

	var mute bytes.Buffer
	m := NewConsole(&mute, ParseMode(true, true), 1, false)
	require.NoError(t, m.ReportGeneration(sampleReport(1, 1)))
	require.NoError(t, m.Summary(Summary{FinalBest: 1}))
	require.NoError(t, m.Settings([][2]string{{"a", "b"}}))
	assert.Empty(t, mute.String())
}

func TestConsoleSettingsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ModeVerbose, 1, false)
	require.NoError(t, c.Settings([][2]string{{"c_count", "100"}}))
	require.NoError(t, c.Summary(Summary{
		FinalBest:          12,
		FinalRoute:         "A->B",
		FinalGenome:        "0x00x1",
		Champion:           11,
		ChampionRoute:      "A->B",
		ChampionGenome:     "0x00x2",
		HasChampion:        true,
		Generations:        40,
		ChampionGeneration: 17,
		StoppedBy:          "sameness",
		Elapsed:            2 * time.Hour,
	}))
	out := buf.String()
	assert.Contains(t, out, "\tc_count=100\n")
	assert.Contains(t, out, "Absolute best: 11.0000\n\tA->B\n0x00x2")
	assert.Contains(t, out, "40 generations run (stopped by sameness), 17 is where")
	assert.Contains(t, out, "Total run time was 2:00:00.")
}

func TestConsoleWorldSilent(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ModeVerbose, 1, true)
	require.NoError(t, c.Settings([][2]string{{"a", "b"}}))
	assert.Empty(t, buf.String())
	assert.False(t, c.ShowWorld())
}

func TestFormatHMS(t *testing.T) {
	assert.Equal(t, "1:02:03", FormatHMS(time.Hour+2*time.Minute+3*time.Second, false))
	assert.Equal(t, "0:00:03.250", FormatHMS(3250*time.Millisecond, true))
	assert.Equal(t, "0:00:00", FormatHMS(-time.Second, false))
}

func TestTSVWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tourney.out")
	w, err := CreateTSV(path, true)
	require.NoError(t, err)
	require.NoError(t, w.ReportSeed(evo.SeedReport{}))
	require.NoError(t, w.ReportGeneration(sampleReport(1, 2.5)))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "generation\tbest\tworst\taverage\tsec\tviable\tbred\tentropy\tmutated", lines[0])
	assert.Equal(t, "1\t2.5\t12.5\t7.5\t1.5\t1200\t30\t87.5\t4", lines[1])
}

func TestTSVWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTSV(&buf, false)
	require.NoError(t, err)
	require.NoError(t, w.ReportGeneration(sampleReport(3, 1)))
	require.NoError(t, w.Flush())
	assert.True(t, strings.HasPrefix(buf.String(), "3\t1\t"))
}
