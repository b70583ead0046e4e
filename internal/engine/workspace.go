package engine

import (
	"regexp"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// WorkspaceEngine handles Google Workspace subscription invoices.
//
// Detail lines carry a usage description, a seat count and an amount:
//
//	Google Workspace Enterprise Standard Usage Mar 1 - Mar 31 340 5,440.00
//
// Some template revisions push the amount onto the following line, which
// the lookahead fallback recovers.
type WorkspaceEngine struct{}

func (e *WorkspaceEngine) FamilyName() string {
	return "Google Workspace"
}

var (
	wsMonthPattern    = regexp.MustCompile(`Summary for\s+(.+?\d{4})`)
	wsInvoicePattern  = regexp.MustCompile(`Invoice number:\s*(\d+)`)
	wsSubtotalPattern = regexp.MustCompile(`Subtotal in USD\s*\$([\d,.]+)`)

	wsDetailPattern = regexp.MustCompile(`^(Google Workspace\b.+?)\s+(\d+)\s+\$?([\d,]+\.\d{2})$`)
	wsDetailBare    = regexp.MustCompile(`^(Google Workspace\b.+?)\s+(\d+)$`)
)

func (e *WorkspaceEngine) Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet {
	rs := &models.RowSet{Family: models.FamilyWorkspace}
	first := pages.FirstPage()

	// Summary row from the header page, independent of the detail tiers
	// and always emitted; a missing subtotal anchor nulls the amount.
	summary := models.Row{Type: models.RowSummary, Fee: "Subtotal"}
	if m := wsSubtotalPattern.FindStringSubmatch(first); m != nil {
		summary.Amount = amountPtr(m[1])
	}
	if im := wsInvoicePattern.FindStringSubmatch(first); im != nil {
		summary.InvoiceNumber = im[1]
	}
	if mm := wsMonthPattern.FindStringSubmatch(first); mm != nil {
		summary.Month = mm[1]
	}
	rs.Rows = append(rs.Rows, summary)

	rs.Rows = append(rs.Rows, e.detailCascade(pages.DetailText(), rs)...)
	return rs
}

func (e *WorkspaceEngine) detailCascade(text string, rs *models.RowSet) []models.Row {
	lines := nonEmptyLines(text)

	// Tier 1: description, seat count and amount on one line.
	rows := e.matchLines(lines)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "whole-line", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 2: amount split onto a following line; bounded lookahead.
	for i, line := range lines {
		m := wsDetailBare.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := models.Row{
			Type:     models.RowDetail,
			Fee:      m[1],
			Quantity: amountPtr(m[2]),
			UoM:      "users",
			Amount:   lookaheadAmount(lines, i),
		}
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "lookahead", Block: snippet(line), Matched: row.Amount != nil})
		rows = append(rows, row)
	}
	if len(rows) > 0 {
		return rows
	}

	// Tier 3: spaced-letter repair, then rescan.
	rows = e.matchLines(nonEmptyLines(collapseSpacedLetters(text)))
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "spacing", Matched: len(rows) > 0})
	return rows
}

func (e *WorkspaceEngine) matchLines(lines []string) []models.Row {
	var rows []models.Row
	for _, line := range lines {
		if m := wsDetailPattern.FindStringSubmatch(line); m != nil {
			rows = append(rows, models.Row{
				Type:     models.RowDetail,
				Fee:      m[1],
				Quantity: amountPtr(m[2]),
				UoM:      "users",
				Amount:   amountPtr(m[3]),
			})
		}
	}
	return rows
}
