package engine

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// SA360Engine handles Search Ads 360 invoices, the family with the most
// template drift. Every charge is a "% Media Spend" fee whose advertiser
// label, account ID and quantity / rate / amount triplet may sit on one
// line, spread across several, or lose their labels entirely. It carries
// the deepest fallback cascade of the six engines.
type SA360Engine struct{}

func (e *SA360Engine) FamilyName() string {
	return "Search Ads 360"
}

const sa360FeeLabel = "% Media Spend"

var (
	// Tier 1: compact one-line record.
	sa360PrimaryPattern = regexp.MustCompile(
		`(?i)Advertiser:\s*(.+?)\s+ID:\s*(\d+)\s*-\s*.*?Account ID:\s*([\d-]+)\s*([\d,]+)\s+([\d.]+)\s+([\d,]+\.\d{2})`,
	)

	sa360AdvertiserPattern = regexp.MustCompile(`Advertiser:\s*(.+?)\s+ID[:\s]+(\d+)`)
	sa360AccountPattern    = regexp.MustCompile(`Account ID[:\s]+([\d-]+)`)

	sa360TotalPattern    = regexp.MustCompile(`(?i)TOTAL AMOUNT \(USD\)\s*\$?([\d,]+\.\d{2})`)
	sa360SubtotalPattern = regexp.MustCompile(`(?i)SUBTOTAL.*?\$?([\d,]+\.\d{2})`)
)

func (e *SA360Engine) Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet {
	rs := &models.RowSet{Family: models.FamilySA360}
	full := pages.FullText()

	// Summary: the printed total, never a computed one. The row always
	// emits; both anchors missing leaves the amount null.
	summary := models.Row{Type: models.RowSummary, Fee: "Subtotal"}
	if m := sa360TotalPattern.FindStringSubmatch(full); m != nil {
		summary.Amount = amountPtr(m[1])
	} else if m := sa360SubtotalPattern.FindStringSubmatch(full); m != nil {
		summary.Amount = amountPtr(m[1])
	}
	rs.Rows = append(rs.Rows, summary)

	rs.Rows = append(rs.Rows, e.detailCascade(full, rs)...)
	return rs
}

func (e *SA360Engine) detailCascade(full string, rs *models.RowSet) []models.Row {
	// Tier 1: compact one-line records.
	rows := e.matchPrimary(full)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "whole-text", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 2: accumulate physical lines until the growing block holds
	// both an advertiser label and a financial triplet, then harvest it.
	rows = e.bufferedBlocks(full, rs)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "buffered-block", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 3: segment on the fee literal and match each segment leniently.
	rows = e.feeSegments(full, rs)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "fee-segment", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 4: line-wise state machine carrying the last seen advertiser.
	rows = e.lineScan(full)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "line-scan", Matched: len(rows) > 0})
	if len(rows) > 0 {
		return rows
	}

	// Tier 5: loose triplets anywhere in the text. Entity fields stay
	// empty; reviewers see the nulls rather than losing the amounts.
	rows = e.looseTriplets(full)
	rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "loose-triplets", Matched: len(rows) > 0})
	return rows
}

func (e *SA360Engine) matchPrimary(text string) []models.Row {
	var rows []models.Row
	for _, m := range sa360PrimaryPattern.FindAllStringSubmatch(text, -1) {
		rows = append(rows, models.Row{
			Type:        models.RowDetail,
			EntityName:  strings.TrimSpace(m[1]),
			EntityID:    m[2],
			SubEntityID: m[3],
			Fee:         sa360FeeLabel,
			Quantity:    amountPtr(m[4]),
			UnitPrice:   amountPtr(m[5]),
			Amount:      amountPtr(m[6]),
		})
	}
	return rows
}

// bufferedBlocks grows a block line by line and emits a row as soon as the
// block holds an advertiser label plus a financial triplet. Each field is
// extracted independently, so a block missing its account ID still yields
// a row with that field empty.
func (e *SA360Engine) bufferedBlocks(text string, rs *models.RowSet) []models.Row {
	var rows []models.Row
	var buffer []string

	for _, line := range nonEmptyLines(text) {
		buffer = append(buffer, line)
		block := strings.Join(buffer, " ")
		if numericTripletPattern.MatchString(block) && strings.Contains(block, "Advertiser:") {
			rows = append(rows, e.extractBlockFields(block))
			rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "buffered-block", Block: snippet(block), Matched: true})
			buffer = nil
		}
	}
	return rows
}

func (e *SA360Engine) extractBlockFields(block string) models.Row {
	row := models.Row{Type: models.RowDetail, Fee: sa360FeeLabel}
	if m := sa360AdvertiserPattern.FindStringSubmatch(block); m != nil {
		row.EntityName = strings.TrimSpace(m[1])
		row.EntityID = m[2]
	}
	if m := sa360AccountPattern.FindStringSubmatch(block); m != nil {
		row.SubEntityID = m[1]
	}
	if m := numericTripletPattern.FindStringSubmatch(block); m != nil {
		row.Quantity = amountPtr(m[1])
		row.UnitPrice = amountPtr(m[2])
		row.Amount = amountPtr(m[3])
	}
	return row
}

// feeSegments splits the text on the "% Media Spend" literal; every
// segment that still carries an advertiser and a triplet becomes a row.
func (e *SA360Engine) feeSegments(text string, rs *models.RowSet) []models.Row {
	var rows []models.Row
	segments := strings.Split(text, sa360FeeLabel)
	if len(segments) < 2 {
		return nil
	}
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		matched := sa360AdvertiserPattern.MatchString(seg) && numericTripletPattern.MatchString(seg)
		rs.Trace = append(rs.Trace, models.TraceEvent{Tier: "fee-segment", Block: snippet(seg), Matched: matched})
		if matched {
			rows = append(rows, e.extractBlockFields(seg))
		}
	}
	return rows
}

// lineScan walks the lines once, remembering the most recent advertiser
// and account labels, and emits a row for every triplet line that follows.
func (e *SA360Engine) lineScan(text string) []models.Row {
	var rows []models.Row
	var advertiser, advertiserID, accountID string

	for _, line := range nonEmptyLines(text) {
		if strings.Contains(strings.ToLower(line), "advertiser:") {
			if m := sa360AdvertiserPattern.FindStringSubmatch(line); m != nil {
				advertiser = strings.TrimSpace(m[1])
				advertiserID = m[2]
			}
			if m := sa360AccountPattern.FindStringSubmatch(line); m != nil {
				accountID = m[1]
			}
			continue
		}
		if m := numericTripletPattern.FindStringSubmatch(line); m != nil {
			rows = append(rows, models.Row{
				Type:        models.RowDetail,
				EntityName:  advertiser,
				EntityID:    advertiserID,
				SubEntityID: accountID,
				Fee:         sa360FeeLabel,
				Quantity:    amountPtr(m[1]),
				UnitPrice:   amountPtr(m[2]),
				Amount:      amountPtr(m[3]),
			})
		}
	}
	return rows
}

func (e *SA360Engine) looseTriplets(text string) []models.Row {
	var rows []models.Row
	for _, m := range numericTripletPattern.FindAllStringSubmatch(text, -1) {
		rows = append(rows, models.Row{
			Type:      models.RowDetail,
			Fee:       sa360FeeLabel,
			Quantity:  amountPtr(m[1]),
			UnitPrice: amountPtr(m[2]),
			Amount:    amountPtr(m[3]),
		})
	}
	return rows
}
