package engine

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// GoogleAdsEngine handles Google Ads account-budget invoices.
//
// The detail pages interleave account header lines with charge lines:
//
//	Account ID: 493-2210-5534
//	Account: Acme Brand Search
//	Account budget: FY25 Q1 Search
//	Brand keywords Mar 1 - Mar 31 48,210 Clicks 12,052.50
//
// When the decoder recovers raw table cells they are preferred over the
// text scan, since the table already carries the column structure.
type GoogleAdsEngine struct{}

func (e *GoogleAdsEngine) FamilyName() string {
	return "Google Ads"
}

var (
	gadsAccountIDPattern = regexp.MustCompile(`^Account ID:\s*(\S+)`)
	gadsAccountPattern   = regexp.MustCompile(`^Account:\s*(.+)`)
	gadsBudgetPattern    = regexp.MustCompile(`^Account budget:\s*(.+)`)
	gadsDetailPattern    = regexp.MustCompile(`^(.+?)\s+([\d,]+)\s+(Clicks|Impressions)\s+\$?([\d,.]+)$`)

	gadsTotalPattern = regexp.MustCompile(`(?s)Total amount due.*?\$([\d,]+\.\d{2})`)
	gadsMonthPattern = regexp.MustCompile(`Summary for\s+(.+?\d{4})`)
)

func (e *GoogleAdsEngine) Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet {
	rs := &models.RowSet{Family: models.FamilyGoogleAds}
	first := pages.FirstPage()

	// The summary row always emits, with a null amount when the total
	// anchor is absent.
	summary := models.Row{Type: models.RowSummary, Fee: "Total amount due"}
	if m := gadsTotalPattern.FindStringSubmatch(first); m != nil {
		summary.Amount = amountPtr(m[1])
	}
	if dm := gadsMonthPattern.FindStringSubmatch(first); dm != nil {
		summary.Month = dm[1]
	}
	rs.Rows = append(rs.Rows, summary)

	// Tier 0: raw table cells, when the provider recovered any.
	rows := e.fromTables(pages)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "tables", Matched: len(rows) > 0})
	if len(rows) == 0 {
		// Tier 1: stateful line scan over every page in order.
		rows = e.scanLines(pages.FullText())
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "line-scan", Matched: len(rows) > 0})
	}
	if len(rows) == 0 {
		// Tier 2: spaced-letter repair, then rescan.
		rows = e.scanLines(collapseSpacedLetters(pages.FullText()))
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "spacing", Matched: len(rows) > 0})
	}

	rs.Rows = append(rs.Rows, rows...)
	return rs
}

// fromTables converts raw table rows (description, quantity, UoM, ...,
// amount) into detail rows. Malformed cells null the field, never drop
// the surrounding table.
func (e *GoogleAdsEngine) fromTables(pages *models.PageTextMap) []models.Row {
	var rows []models.Row
	for _, table := range pages.Tables() {
		if len(table) < 2 {
			continue
		}
		// First table row is the column header.
		for _, cells := range table[1:] {
			if len(cells) < 4 {
				continue
			}
			rows = append(rows, models.Row{
				Type:     models.RowDetail,
				Fee:      strings.TrimSpace(cells[0]),
				Quantity: amountPtr(cells[1]),
				UoM:      strings.TrimSpace(cells[2]),
				Amount:   amountPtr(cells[len(cells)-1]),
			})
		}
	}
	return rows
}

func (e *GoogleAdsEngine) scanLines(text string) []models.Row {
	var rows []models.Row
	var accountID, accountName, accountBudget string

	for _, line := range nonEmptyLines(text) {
		if m := gadsAccountIDPattern.FindStringSubmatch(line); m != nil {
			accountID = m[1]
			continue
		}
		if m := gadsAccountPattern.FindStringSubmatch(line); m != nil {
			accountName = strings.TrimSpace(m[1])
			continue
		}
		if m := gadsBudgetPattern.FindStringSubmatch(line); m != nil {
			accountBudget = strings.TrimSpace(m[1])
			continue
		}
		if m := gadsDetailPattern.FindStringSubmatch(line); m != nil {
			rows = append(rows, models.Row{
				Type:        models.RowDetail,
				EntityName:  accountName,
				EntityID:    accountID,
				BillingCode: accountBudget,
				Fee:         strings.TrimSpace(m[1]),
				Quantity:    amountPtr(m[2]),
				UoM:         m[3],
				Amount:      amountPtr(m[4]),
			})
		}
	}
	return rows
}
