package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/batch"
	"github.com/insightdelivered/invoice-extractor/internal/engine"
	"github.com/insightdelivered/invoice-extractor/internal/extractor"
	"github.com/insightdelivered/invoice-extractor/internal/models"
	"github.com/insightdelivered/invoice-extractor/internal/normalize"
	"github.com/insightdelivered/invoice-extractor/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	dirFlag := flag.String("dir", "", "Process every PDF in this directory as a batch")
	outFlag := flag.String("out", "output", "Output directory for batch exports")
	familyFlag := flag.String("family", "", "Pin the product family: cm360, dv360, google_ads, google_workspace, linkedin, sa360 (auto-detected if omitted)")
	stateFlag := flag.String("state", "", "Processed-file list; files named in it are skipped on re-runs")
	verboseFlag := flag.Bool("verbose", false, "Log per-block extraction trace events")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Advertising Invoice PDF Extractor
by Insight Delivered

Extracts billing line items from Google marketing platform and LinkedIn
invoice PDFs into structured CSV and XLSX files.

Usage:
  invoice-extractor [flags] <input.pdf> [input2.pdf ...]
  invoice-extractor --dir=invoices/ --out=output/

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect the product family and convert one invoice
  invoice-extractor invoice.pdf

  # Pin the family explicitly
  invoice-extractor --family=sa360 invoice.pdf

  # Batch-convert a directory, one XLSX per family plus a run summary
  invoice-extractor --dir=invoices/ --out=output/

Supported Families:
  cm360             - Campaign Manager 360
  dv360             - Display and Video 360
  google_ads        - Google Ads
  google_workspace  - Google Workspace
  linkedin          - LinkedIn campaign invoices
  sa360             - Search Ads 360
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("invoice-extractor v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || (*dirFlag == "" && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *dirFlag != "" {
		runBatch(logger, *dirFlag, *outFlag, *stateFlag)
		return
	}

	family, err := familyFromFlag(*familyFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, family); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func runBatch(logger *slog.Logger, dir, out, stateFile string) {
	runner := batch.NewRunner(logger, extractor.ExtractPages)
	runner.StateFile = stateFile

	res, err := runner.RunDir(dir)
	if err != nil {
		fatalf("%v\n", err)
	}
	if err := runner.Export(res, out); err != nil {
		fatalf("Export failed: %v\n", err)
	}

	fmt.Printf("Run %s: %d file(s) processed, %d skipped, %d error(s)\n",
		res.RunID, len(res.Outcomes), len(res.Skipped), len(res.Errors))
	for _, o := range res.Outcomes {
		if o.Err != "" {
			fmt.Printf("  %-40s ERROR: %s\n", o.Filename, o.Err)
		} else {
			fmt.Printf("  %-40s %s (%d rows)\n", o.Filename, normalize.InvoiceTypeFor(o.Family), o.Rows)
		}
	}
}

func processFile(inputPath string, family models.Family) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	pages, err := extractor.ExtractPages(inputPath)
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}
	fmt.Printf("  Extracted text from %d page(s)\n", pages.Len())

	effective := family
	if effective == models.FamilyUnknown {
		effective = engine.Detect(pages)
		if effective == models.FamilyUnknown {
			return fmt.Errorf("could not identify the product family; use --family to pin it")
		}
		fmt.Printf("  Detected family: %s\n", normalize.InvoiceTypeFor(effective))
	}

	eng, err := engine.New(effective)
	if err != nil {
		return err
	}

	header := engine.ExtractHeader(pages)
	engine.OverrideHeader(effective, pages, &header)

	rs := eng.Extract(pages, header)
	normalize.Apply(rs, header, inputPath)
	fmt.Printf("  Extracted %d row(s)\n", len(rs.Rows))

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
	w := &writer.CSVWriter{IncludeHeader: true}
	if err := w.WriteToFile(outputPath, rs.Rows); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}

	fmt.Printf("  Wrote: %s\n", outputPath)
	return nil
}

func familyFromFlag(value string) (models.Family, error) {
	if value == "" {
		return models.FamilyUnknown, nil
	}
	switch strings.ToLower(value) {
	case "cm360":
		return models.FamilyCM360, nil
	case "dv360":
		return models.FamilyDV360, nil
	case "google_ads", "googleads", "ads":
		return models.FamilyGoogleAds, nil
	case "google_workspace", "workspace":
		return models.FamilyWorkspace, nil
	case "linkedin":
		return models.FamilyLinkedIn, nil
	case "sa360":
		return models.FamilySA360, nil
	default:
		return models.FamilyUnknown, fmt.Errorf("unknown family %q; supported: cm360, dv360, google_ads, google_workspace, linkedin, sa360", value)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
