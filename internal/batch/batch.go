// Package batch drives file-at-a-time extraction over a set of invoice
// PDFs. Per-document failures are contained with the same catch-and-
// continue discipline the engines apply per block: nothing a single
// document does may abort the batch.
package batch

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/insightdelivered/invoice-extractor/internal/engine"
	"github.com/insightdelivered/invoice-extractor/internal/models"
	"github.com/insightdelivered/invoice-extractor/internal/normalize"
	"github.com/insightdelivered/invoice-extractor/internal/writer"
)

// PageProvider decodes one document into its ordered page-text map. The
// real implementation is the PDF extractor; tests substitute fixtures.
type PageProvider func(path string) (*models.PageTextMap, error)

// FileOutcome summarizes what happened to one input file.
type FileOutcome struct {
	Filename string
	Family   models.Family
	Rows     int
	Err      string
}

// Result accumulates one batch run.
type Result struct {
	RunID    string
	Buckets  models.FamilyBucket
	Errors   []models.Row
	Outcomes []FileOutcome
	Skipped  []string
}

// Runner owns the per-document loop and the export step.
type Runner struct {
	Logger *slog.Logger
	Pages  PageProvider
	// StateFile, when set, records processed filenames so a re-run over
	// the same directory skips documents already converted.
	StateFile string
}

func NewRunner(logger *slog.Logger, pages PageProvider) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Logger: logger, Pages: pages}
}

// RunDir processes every PDF in dir, non-recursively.
func (r *Runner) RunDir(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory %q: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return r.Run(paths), nil
}

// Run processes the given files in order. Every failure is recorded as an
// error row and an outcome; Run itself never fails.
func (r *Runner) Run(paths []string) *Result {
	res := &Result{
		RunID:   uuid.NewString(),
		Buckets: make(models.FamilyBucket),
	}
	processed := r.loadProcessed()

	r.Logger.Info("batch.start", "run_id", res.RunID, "files", len(paths))

	for _, path := range paths {
		name := filepath.Base(path)
		if processed[name] {
			r.Logger.Info("batch.skip.processed", "file", name)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		// Only converted documents enter the skip list; failures stay
		// eligible for the next run.
		if r.processOne(res, path) {
			r.rememberProcessed(name)
		}
	}

	r.Logger.Info("batch.done",
		"run_id", res.RunID,
		"families", len(res.Buckets),
		"errors", len(res.Errors),
		"skipped", len(res.Skipped))
	return res
}

// processOne runs the pipeline for one document. It reports whether the
// document made it into a family bucket.
func (r *Runner) processOne(res *Result, path string) bool {
	name := filepath.Base(path)

	pages, err := r.Pages(path)
	if err != nil {
		r.Logger.Error("batch.decode.failed", "file", name, "err", err)
		res.Errors = append(res.Errors, normalize.ErrorRow(models.FamilyUnknown, path, err.Error()))
		res.Outcomes = append(res.Outcomes, FileOutcome{Filename: name, Family: models.FamilyUnknown, Err: err.Error()})
		return false
	}

	family := engine.Detect(pages)
	if family == models.FamilyUnknown {
		r.Logger.Warn("batch.classify.miss", "file", name)
		res.Errors = append(res.Errors, normalize.ErrorRow(models.FamilyUnknown, path, "no family signature matched"))
		res.Outcomes = append(res.Outcomes, FileOutcome{Filename: name, Family: models.FamilyUnknown, Err: "no family signature matched"})
		return false
	}

	header := engine.ExtractHeader(pages)
	engine.OverrideHeader(family, pages, &header)

	eng, err := engine.New(family)
	if err != nil {
		res.Errors = append(res.Errors, normalize.ErrorRow(family, path, err.Error()))
		res.Outcomes = append(res.Outcomes, FileOutcome{Filename: name, Family: family, Err: err.Error()})
		return false
	}

	rs, err := safeExtract(eng, pages, header)
	if err != nil {
		r.Logger.Error("batch.extract.failed", "file", name, "family", family, "err", err)
		res.Errors = append(res.Errors, normalize.ErrorRow(family, path, err.Error()))
		res.Outcomes = append(res.Outcomes, FileOutcome{Filename: name, Family: family, Err: err.Error()})
		return false
	}

	normalize.Apply(rs, header, path)
	res.Buckets[family] = append(res.Buckets[family], rs)
	res.Outcomes = append(res.Outcomes, FileOutcome{Filename: name, Family: family, Rows: len(rs.Rows)})

	r.Logger.Info("batch.extracted", "file", name, "family", family, "rows", len(rs.Rows))
	for _, ev := range rs.Trace {
		r.Logger.Debug("engine.trace", "file", name, "tier", ev.Tier, "matched", ev.Matched, "block", ev.Block)
	}
	return true
}

// safeExtract contains a panicking engine to its own document.
func safeExtract(eng engine.Engine, pages *models.PageTextMap, header models.HeaderMetadata) (rs *models.RowSet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rs = nil
			err = fmt.Errorf("engine crashed: %v", rec)
		}
	}()
	return eng.Extract(pages, header), nil
}

// Export writes one XLSX per family, an error-row CSV when anything
// failed, and the aggregate run summary.
func (r *Runner) Export(res *Result, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", outDir, err)
	}

	for family, sets := range res.Buckets {
		var rows []models.Row
		for _, rs := range sets {
			rows = append(rows, rs.Rows...)
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s_invoices.xlsx", family))
		if err := writer.WriteFamilyXLSX(path, rows); err != nil {
			return fmt.Errorf("export %s: %w", family, err)
		}
		r.Logger.Info("batch.export", "family", family, "rows", len(rows), "path", path)
	}

	if len(res.Errors) > 0 {
		w := &writer.CSVWriter{IncludeHeader: true}
		path := filepath.Join(outDir, "errors.csv")
		if err := w.WriteToFile(path, res.Errors); err != nil {
			return fmt.Errorf("export error rows: %w", err)
		}
		r.Logger.Info("batch.export.errors", "rows", len(res.Errors), "path", path)
	}

	return r.writeAggregate(res, outDir)
}

func (r *Runner) writeAggregate(res *Result, outDir string) error {
	path := filepath.Join(outDir, "aggregate_summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create aggregate summary: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write([]string{"RunID", "Filename", "InvoiceType", "Rows", "Error"}); err != nil {
		return err
	}
	for _, o := range res.Outcomes {
		record := []string{
			res.RunID,
			o.Filename,
			normalize.InvoiceTypeFor(o.Family),
			strconv.Itoa(o.Rows),
			o.Err,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// loadProcessed reads the processed-file list, one filename per line.
func (r *Runner) loadProcessed() map[string]bool {
	processed := make(map[string]bool)
	if r.StateFile == "" {
		return processed
	}
	data, err := os.ReadFile(r.StateFile)
	if err != nil {
		return processed
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			processed[line] = true
		}
	}
	return processed
}

func (r *Runner) rememberProcessed(name string) {
	if r.StateFile == "" {
		return
	}
	f, err := os.OpenFile(r.StateFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.Logger.Warn("batch.state.write_failed", "err", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(name + "\n"); err != nil {
		r.Logger.Warn("batch.state.write_failed", "err", err)
	}
}
