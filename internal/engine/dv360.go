package engine

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// DV360Engine handles Display and Video 360 invoices.
//
// Detail line items chain a fee type to a partner and an advertiser, then a
// quantity / unit-of-measure / amount tail:
//
//	Media Cost - Partner: Horizon Media - Constellation ID: 1048 -
//	Advertiser: Acme Co ID: 912233 1,250,000 Impressions 4,812.50
//
// The partner is the billed entity; the advertiser hangs off it as the
// sub-entity.
type DV360Engine struct{}

func (e *DV360Engine) FamilyName() string {
	return "Display and Video 360"
}

var dv360DetailPattern = regexp.MustCompile(
	`([A-Za-z][A-Za-z ()]*?)\s*-\s*Partner:\s*(.+?)\s*-\s*Constellation ID:\s*(\d+)\s*-\s*Advertiser:\s*(.+?)\s*ID:\s*(\d+)\s+([-\d,]+)\s+([A-Za-z]\w*)\s+(-?[\d,.]+)`,
)

// A new logical record starts at a fee-type literal or an Advertiser label.
var dv360BlockStart = regexp.MustCompile(`(Media Cost|Platform Fee|Data Fee|Adjustment|Advertiser)`)

var (
	dv360MonthPattern = regexp.MustCompile(`Summary for\s+([A-Za-z]+\s+\d{1,2},\s+\d{4})\s*-\s*([A-Za-z]+\s+\d{1,2},\s+\d{4})`)
	dv360TotalPattern = regexp.MustCompile(`(?s)Total amount due.*?\$([\d,]+\.\d{2})`)

	// Positional fallback pieces.
	dv360QtyTail         = regexp.MustCompile(`([-\d,]+)\s+([A-Za-z]\w*)\s+(-?[\d,.]+\.\d{2})\s*$`)
	dv360AdvertiserLoose = regexp.MustCompile(`Advertiser:\s*(.+?)\s*ID[:\s]+(\d+)`)
)

func (e *DV360Engine) Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet {
	rs := &models.RowSet{Family: models.FamilyDV360}
	first := pages.FirstPage()

	// Summary row: always emitted; the header-page anchors fill what they
	// can and a missing total leaves the amount null.
	summary := models.Row{Type: models.RowSummary, Fee: "Total amount due"}
	if m := dv360TotalPattern.FindStringSubmatch(first); m != nil {
		summary.Amount = amountPtr(m[1])
	}
	if dm := dv360MonthPattern.FindStringSubmatch(first); dm != nil {
		summary.Month = dm[1] + " - " + dm[2]
	}
	rs.Rows = append(rs.Rows, summary)

	rs.Rows = append(rs.Rows, e.detailCascade(pages.DetailText(), rs)...)
	return rs
}

func (e *DV360Engine) detailCascade(text string, rs *models.RowSet) []models.Row {
	// Tier 1: anchored pattern straight over the detail text.
	rows := e.matchAll(text)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "whole-text", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 2: rejoin records the decoder broke across physical lines.
	for _, block := range mergeBlocks(text, dv360BlockStart) {
		got := e.matchAll(block)
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "line-merge", Block: snippet(block), Matched: len(got) > 0})
		rows = append(rows, got...)
	}
	if len(rows) > 0 {
		return rows
	}

	// Tier 3: spaced-letter repair, retried through the merge path.
	collapsed := collapseSpacedLetters(text)
	for _, block := range mergeBlocks(collapsed, dv360BlockStart) {
		rows = append(rows, e.matchAll(block)...)
	}
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "spacing", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 4: quantity/UoM/amount tails with an advertiser backscan.
	rows = e.positionalScan(text)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "positional", Matched: len(rows) > 0})
	return rows
}

func (e *DV360Engine) matchAll(text string) []models.Row {
	var rows []models.Row
	for _, m := range dv360DetailPattern.FindAllStringSubmatch(text, -1) {
		rows = append(rows, models.Row{
			Type:          models.RowDetail,
			Fee:           strings.TrimSpace(m[1]),
			EntityName:    strings.TrimSpace(m[2]),
			EntityID:      m[3],
			SubEntityName: strings.TrimSpace(m[4]),
			SubEntityID:   m[5],
			Quantity:      amountPtr(m[6]),
			UoM:           m[7],
			Amount:        amountPtr(m[8]),
		})
	}
	return rows
}

func (e *DV360Engine) positionalScan(text string) []models.Row {
	var rows []models.Row
	lines := nonEmptyLines(text)
	for i, line := range lines {
		m := dv360QtyTail.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := models.Row{
			Type:     models.RowDetail,
			Quantity: amountPtr(m[1]),
			UoM:      m[2],
			Amount:   amountPtr(m[3]),
		}
		for j := i; j >= 0 && j > i-4; j-- {
			if am := dv360AdvertiserLoose.FindStringSubmatch(lines[j]); am != nil {
				row.SubEntityName = strings.TrimSpace(am[1])
				row.SubEntityID = am[2]
				break
			}
		}
		if row.SubEntityName == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
