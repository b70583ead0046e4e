package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Header is the canonical column set shared by every export, regardless
// of which family produced the rows.
var Header = []string{
	"InvoiceType", "Invoice#", "Month", "DueDate", "filename", "RowType",
	"AdvertiserName", "AdvertiserID", "Campaign", "CampaignID",
	"BillingCode", "Fee", "UoM", "Unit Price", "Quantity", "Amount($)",
}

// CSVWriter writes normalized rows to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes rows to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, rows []models.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, rows)
}

// Write writes rows in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, rows []models.Row) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, row := range rows {
		if err := cw.Write(Record(row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

// Record renders one row into the canonical column order. Sentinel values
// live here, at the export boundary: summary rows show "SUMMARY" in entity
// columns, error rows carry their message, and null numerics render empty.
func Record(r models.Row) []string {
	entityName := r.EntityName
	entityID := r.EntityID
	subName := r.SubEntityName
	subID := r.SubEntityID
	billing := r.BillingCode

	switch r.Type {
	case models.RowSummary:
		if entityName == "" {
			entityName = "SUMMARY"
		}
		if subName == "" {
			subName = "SUMMARY"
		}
	case models.RowError:
		if entityName == "" {
			entityName = r.Note
		}
	}

	return []string{
		r.InvoiceType,
		r.InvoiceNumber,
		r.Month,
		r.DueDate,
		r.Filename,
		string(r.Type),
		entityName,
		entityID,
		subName,
		subID,
		billing,
		r.Fee,
		r.UoM,
		formatAmount(r.UnitPrice),
		formatAmount(r.Quantity),
		formatAmount(r.Amount),
	}
}

func formatAmount(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
