package engine

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// CM360Engine handles Campaign Manager 360 invoices.
//
// Detail line items name an advertiser, a campaign, a billing code and a
// CPM fee triplet (unit price, quantity, amount):
//
//	Advertiser: "Acme Co", ID: 123456 - Campaign: "Fall Promo", ID: 654321,
//	Billing Code: ABC-123 - Fee: CPM 5.25 10,000 52.50
//
// The campaign name is often pushed onto the next physical line by the
// text decoder, which is what the line-merge fallback recovers.
type CM360Engine struct{}

func (e *CM360Engine) FamilyName() string {
	return "Campaign Manager 360"
}

var cm360DetailPattern = regexp.MustCompile(
	`(?s)Advertiser:\s*"?(.+?)"?,\s*ID:\s*(\d+)\s*-\s*Campaign:\s*\n?"(.+?)",\s*ID:\s*(\d+),\s*Billing Code:\s*([\w\-]+)\s*-\s*Fee:\s*([A-Z]{2,3})\s+([\d.]+)\s+([\d,]+)\s+([\d,]+\.?\d*)`,
)

// Block starts for the line-merge fallback: a new record begins at an
// Advertiser label or a fee literal.
var cm360BlockStart = regexp.MustCompile(`^(?:Advertiser:|Fee:)`)

var (
	cm360TotalPattern        = regexp.MustCompile(`(?i)Total (?:amount due|in USD)\s*\$?([\d,]+\.\d{2})`)
	cm360AdvertiserIDPattern = regexp.MustCompile(`(?i)Advertiser Id:?[:\s]+(\d+)`)

	// Positional fallback: a trailing price/quantity/amount tail, with the
	// entity tokens somewhere in the preceding window.
	cm360TripletTail     = regexp.MustCompile(`([\d.]+)\s+([\d,]+)\s+([\d,]+\.\d{2})\s*$`)
	cm360AdvertiserLoose = regexp.MustCompile(`Advertiser:?\s*"?(.+?)"?,?\s+ID[:\s]+(\d+)`)
)

func (e *CM360Engine) Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet {
	rs := &models.RowSet{Family: models.FamilyCM360}
	full := pages.FullText()

	// The summary row is attempted independently of the detail tiers and
	// always emitted; a missing total anchor nulls the amount rather than
	// dropping the row.
	summary := models.Row{Type: models.RowSummary, Fee: "TOTAL", UoM: "Total"}
	if m := cm360TotalPattern.FindStringSubmatch(full); m != nil {
		summary.Amount = amountPtr(m[1])
	}
	if idm := cm360AdvertiserIDPattern.FindStringSubmatch(full); idm != nil {
		summary.EntityID = idm[1]
	}
	rs.Rows = append(rs.Rows, summary)

	rs.Rows = append(rs.Rows, e.detailCascade(pages.DetailText(), rs)...)
	return rs
}

// detailCascade tries each strategy in order, stopping at the first one
// that yields rows.
func (e *CM360Engine) detailCascade(text string, rs *models.RowSet) []models.Row {
	// Tier 1: one pattern over the whole detail text.
	rows := e.matchAll(text)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "whole-text", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 2: rebuild logical blocks from lines the decoder split apart,
	// then retry per block.
	for _, block := range mergeBlocks(text, cm360BlockStart) {
		got := e.matchAll(block)
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "line-merge", Block: snippet(block), Matched: len(got) > 0})
		rows = append(rows, got...)
	}
	if len(rows) > 0 {
		return rows
	}

	// Tier 3: collapse spaced-out letters, then retry both strategies.
	collapsed := collapseSpacedLetters(text)
	rows = e.matchAll(collapsed)
	if len(rows) == 0 {
		for _, block := range mergeBlocks(collapsed, cm360BlockStart) {
			rows = append(rows, e.matchAll(block)...)
		}
	}
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "spacing", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 4: positional scan for fee triplets with a bounded backscan
	// for the nearest advertiser tokens.
	rows = e.positionalScan(text)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "positional", Matched: len(rows) > 0})
	return rows
}

func (e *CM360Engine) matchAll(text string) []models.Row {
	var rows []models.Row
	for _, m := range cm360DetailPattern.FindAllStringSubmatch(text, -1) {
		rows = append(rows, models.Row{
			Type:          models.RowDetail,
			EntityName:    strings.TrimSpace(m[1]),
			EntityID:      m[2],
			SubEntityName: strings.TrimSpace(m[3]),
			SubEntityID:   m[4],
			BillingCode:   m[5],
			Fee:           m[6],
			UoM:           m[6],
			UnitPrice:     amountPtr(m[7]),
			Quantity:      amountPtr(m[8]),
			Amount:        amountPtr(m[9]),
		})
	}
	return rows
}

// positionalScan recovers rows whose labels were mangled beyond the
// anchored pattern: it finds trailing numeric triplets and backscans up
// to three lines for the nearest advertiser tokens. Best effort.
func (e *CM360Engine) positionalScan(text string) []models.Row {
	var rows []models.Row
	lines := nonEmptyLines(text)
	for i, line := range lines {
		m := cm360TripletTail.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := models.Row{
			Type:      models.RowDetail,
			Fee:       "CPM",
			UoM:       "CPM",
			UnitPrice: amountPtr(m[1]),
			Quantity:  amountPtr(m[2]),
			Amount:    amountPtr(m[3]),
		}
		for j := i; j >= 0 && j > i-4; j-- {
			if am := cm360AdvertiserLoose.FindStringSubmatch(lines[j]); am != nil {
				row.EntityName = strings.Trim(am[1], `" `)
				row.EntityID = am[2]
				break
			}
		}
		// Without nearby entity tokens the triplet is as likely to be
		// page furniture as a fee line; drop it.
		if row.EntityName == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
