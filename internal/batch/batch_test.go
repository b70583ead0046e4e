package batch

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureProvider maps base filenames to page texts; unknown names fail.
func fixtureProvider(docs map[string][]string) PageProvider {
	return func(path string) (*models.PageTextMap, error) {
		texts, ok := docs[filepath.Base(path)]
		if !ok {
			return nil, errors.New("decode failed: bad xref")
		}
		m := models.NewPageTextMap()
		for _, text := range texts {
			m.Add(text, nil)
		}
		return m, nil
	}
}

var cm360Doc = []string{
	`Campaign Manager 360
Invoice number: 5301928374
Total amount due $52.50`,
	`Advertiser: "Acme Co", ID: 123456 - Campaign: "Fall Promo", ID: 654321, Billing Code: ABC-123 - Fee: CPM 5.25 10,000 52.50`,
}

func TestRunnerIsolatesFailures(t *testing.T) {
	provider := fixtureProvider(map[string][]string{
		"good.pdf":         cm360Doc,
		"unclassified.pdf": {"Utility bill for water service"},
	})
	r := NewRunner(testLogger(), provider)

	res := r.Run([]string{"good.pdf", "broken.pdf", "unclassified.pdf"})

	require.NotEmpty(t, res.RunID)
	require.Len(t, res.Outcomes, 3)

	// The good document lands in its family bucket.
	require.Len(t, res.Buckets[models.FamilyCM360], 1)
	assert.Len(t, res.Buckets[models.FamilyCM360][0].Rows, 2)

	// The decode failure and the classification miss become error rows and
	// contribute zero rows to every bucket.
	require.Len(t, res.Errors, 2)
	for _, row := range res.Errors {
		assert.Equal(t, models.RowError, row.Type)
		assert.NotEmpty(t, row.Note)
	}
	assert.Len(t, res.Buckets, 1)
}

func TestRunnerStampsDocumentColumns(t *testing.T) {
	provider := fixtureProvider(map[string][]string{"good.pdf": cm360Doc})
	r := NewRunner(testLogger(), provider)

	res := r.Run([]string{"/data/in/good.pdf"})

	require.Len(t, res.Buckets[models.FamilyCM360], 1)
	rows := res.Buckets[models.FamilyCM360][0].Rows
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "Campaign Manager 360", row.InvoiceType)
		assert.Equal(t, "5301928374", row.InvoiceNumber)
		assert.Equal(t, "good.pdf", row.Filename)
	}
}

func TestRunnerSkipsProcessedFiles(t *testing.T) {
	provider := fixtureProvider(map[string][]string{"good.pdf": cm360Doc})
	stateFile := filepath.Join(t.TempDir(), "processed.txt")

	r := NewRunner(testLogger(), provider)
	r.StateFile = stateFile

	first := r.Run([]string{"good.pdf"})
	require.Len(t, first.Outcomes, 1)
	require.Empty(t, first.Skipped)

	second := r.Run([]string{"good.pdf"})
	assert.Empty(t, second.Outcomes)
	assert.Equal(t, []string{"good.pdf"}, second.Skipped)
}

func TestRunnerDoesNotMarkFailedFilesProcessed(t *testing.T) {
	provider := fixtureProvider(map[string][]string{"good.pdf": cm360Doc})
	stateFile := filepath.Join(t.TempDir(), "processed.txt")

	r := NewRunner(testLogger(), provider)
	r.StateFile = stateFile

	first := r.Run([]string{"good.pdf", "broken.pdf"})
	require.Len(t, first.Outcomes, 2)

	// Only the converted document enters the skip list.
	data, err := os.ReadFile(stateFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "good.pdf")
	assert.NotContains(t, string(data), "broken.pdf")

	// The failed document is retried on the next run.
	second := r.Run([]string{"good.pdf", "broken.pdf"})
	assert.Equal(t, []string{"good.pdf"}, second.Skipped)
	require.Len(t, second.Outcomes, 1)
	assert.Equal(t, "broken.pdf", second.Outcomes[0].Filename)
	assert.NotEmpty(t, second.Outcomes[0].Err)
}

func TestRunDirFiltersPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "UPPER.PDF"), []byte("x"), 0o644))

	provider := fixtureProvider(map[string][]string{
		"good.pdf":  cm360Doc,
		"UPPER.PDF": cm360Doc,
	})
	r := NewRunner(testLogger(), provider)

	res, err := r.RunDir(dir)
	require.NoError(t, err)
	assert.Len(t, res.Outcomes, 2, "only the PDFs are processed")
}

func TestExportWritesFamilyWorkbooksAndSummary(t *testing.T) {
	provider := fixtureProvider(map[string][]string{
		"good.pdf": cm360Doc,
	})
	r := NewRunner(testLogger(), provider)
	res := r.Run([]string{"good.pdf", "broken.pdf"})

	outDir := t.TempDir()
	require.NoError(t, r.Export(res, outDir))

	assert.FileExists(t, filepath.Join(outDir, "cm360_invoices.xlsx"))
	assert.FileExists(t, filepath.Join(outDir, "errors.csv"))
	assert.FileExists(t, filepath.Join(outDir, "aggregate_summary.csv"))
}

func TestExportWithoutErrorsSkipsErrorFile(t *testing.T) {
	provider := fixtureProvider(map[string][]string{"good.pdf": cm360Doc})
	r := NewRunner(testLogger(), provider)
	res := r.Run([]string{"good.pdf"})

	outDir := t.TempDir()
	require.NoError(t, r.Export(res, outDir))

	assert.NoFileExists(t, filepath.Join(outDir, "errors.csv"))
	assert.FileExists(t, filepath.Join(outDir, "aggregate_summary.csv"))
}
