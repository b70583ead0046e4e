package engine

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// LinkedInEngine handles LinkedIn campaign invoices.
//
// Detail lines carry a campaign name followed by a quantity, an internal
// column and the charged amount:
//
//	Campaign: Q1 Talent Brand 1250.00 7 3187.50
type LinkedInEngine struct{}

func (e *LinkedInEngine) FamilyName() string {
	return "LinkedIn"
}

var (
	liInvoicePattern = regexp.MustCompile(`(?i)Invoice Number\s*:?\s*(\d+)`)
	liPeriodPattern  = regexp.MustCompile(`Billing Period From\s+(\d{2}-[A-Z]{3}-\d{4})(?:\s+(?:to|To)\s+(\d{2}-[A-Z]{3}-\d{4}))?`)
	liBalancePattern = regexp.MustCompile(`Balance Due\s*:?\s*USD\s*([\d,]+\.\d{2})`)

	liDetailPattern = regexp.MustCompile(`Campaign:\s+(.*?)\s+(\d+(?:\.\d{2})?)\s+\d+\s+(\d+(?:\.\d{2})?)`)
	liBlockStart    = regexp.MustCompile(`^Campaign:`)
)

func (e *LinkedInEngine) Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet {
	rs := &models.RowSet{Family: models.FamilyLinkedIn}
	first := pages.FirstPage()

	// The summary row always emits; a missing balance anchor nulls the
	// amount rather than dropping the row.
	summary := models.Row{Type: models.RowSummary, Fee: "Balance Due"}
	if m := liBalancePattern.FindStringSubmatch(first); m != nil {
		summary.Amount = amountPtr(m[1])
	}
	if im := liInvoicePattern.FindStringSubmatch(first); im != nil {
		summary.InvoiceNumber = im[1]
	}
	if pm := liPeriodPattern.FindStringSubmatch(first); pm != nil {
		summary.Month = pm[1]
		if pm[2] != "" {
			summary.Month = pm[1] + " - " + pm[2]
		}
	}
	rs.Rows = append(rs.Rows, summary)

	rs.Rows = append(rs.Rows, e.detailCascade(pages.DetailText(), rs)...)
	return rs
}

func (e *LinkedInEngine) detailCascade(text string, rs *models.RowSet) []models.Row {
	rows := e.matchAll(text)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "whole-text", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	for _, block := range mergeBlocks(text, liBlockStart) {
		got := e.matchAll(block)
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "line-merge", Block: snippet(block), Matched: len(got) > 0})
		rows = append(rows, got...)
	}
	if len(rows) > 0 {
		return rows
	}

	rows = e.matchAll(collapseSpacedLetters(text))
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "spacing", Matched: len(rows) > 0})
	return rows
}

func (e *LinkedInEngine) matchAll(text string) []models.Row {
	var rows []models.Row
	for _, m := range liDetailPattern.FindAllStringSubmatch(text, -1) {
		rows = append(rows, models.Row{
			Type:          models.RowDetail,
			SubEntityName: strings.TrimSpace(m[1]),
			Quantity:      amountPtr(m[2]),
			Amount:        amountPtr(m[3]),
		})
	}
	return rows
}
