package engine

import (
	"testing"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func TestDV360Engine_Extract(t *testing.T) {
	e := &DV360Engine{}

	pages := pagesFrom(
		`Display and Video 360
Invoice number: 5301928374
Summary for Mar 1, 2025 - Mar 31, 2025
Total amount due
$4,812.50`,
		`Media Cost - Partner: Horizon Media - Constellation ID: 1048 - Advertiser: Acme Co ID: 912233 1,250,000 Impressions 4,812.50`,
	)

	rs := e.Extract(pages, models.HeaderMetadata{})

	if len(rs.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rs.Rows))
	}

	sum := rs.Rows[0]
	if sum.Type != models.RowSummary {
		t.Errorf("rows[0].Type: got %q, want summary", sum.Type)
	}
	if sum.Amount == nil || *sum.Amount != 4812.50 {
		t.Errorf("summary amount: got %v, want 4812.50", sum.Amount)
	}
	if sum.Month != "Mar 1, 2025 - Mar 31, 2025" {
		t.Errorf("summary month: got %q", sum.Month)
	}

	row := rs.Rows[1]
	if row.Fee != "Media Cost" {
		t.Errorf("fee: got %q, want %q", row.Fee, "Media Cost")
	}
	if row.EntityName != "Horizon Media" {
		t.Errorf("partner: got %q, want %q", row.EntityName, "Horizon Media")
	}
	if row.EntityID != "1048" {
		t.Errorf("constellation ID: got %q, want %q", row.EntityID, "1048")
	}
	if row.SubEntityName != "Acme Co" {
		t.Errorf("advertiser: got %q, want %q", row.SubEntityName, "Acme Co")
	}
	if row.SubEntityID != "912233" {
		t.Errorf("advertiser ID: got %q, want %q", row.SubEntityID, "912233")
	}
	if row.Quantity == nil || *row.Quantity != 1250000 {
		t.Errorf("quantity: got %v, want 1250000", row.Quantity)
	}
	if row.UoM != "Impressions" {
		t.Errorf("UoM: got %q, want %q", row.UoM, "Impressions")
	}
	if row.Amount == nil || *row.Amount != 4812.50 {
		t.Errorf("amount: got %v, want 4812.50", row.Amount)
	}
}

func TestDV360Engine_LineMergeRecoversSplitAdvertiser(t *testing.T) {
	e := &DV360Engine{}

	// Advertiser name split across lines; the continuation line carries no
	// block-start keyword so the merge tier rejoins it.
	pages := pagesFrom(
		`Display and Video 360`,
		`Media Cost - Partner: Horizon Media - Constellation ID: 1048 - Advertiser: Acme
Co ID: 912233 1,250,000 Impressions 4,812.50`,
	)

	rs := e.Extract(pages, models.HeaderMetadata{})

	if len(rs.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rs.Rows))
	}
	if rs.Rows[0].Type != models.RowSummary || rs.Rows[0].Amount != nil {
		t.Errorf("rows[0]: want anchorless summary with nil amount, got %+v", rs.Rows[0])
	}
	row := rs.Rows[1]
	if row.SubEntityName != "Acme Co" {
		t.Errorf("advertiser: got %q, want %q", row.SubEntityName, "Acme Co")
	}
	if row.Amount == nil || *row.Amount != 4812.50 {
		t.Errorf("amount: got %v, want 4812.50", row.Amount)
	}
}

func TestDV360Engine_PositionalFallback(t *testing.T) {
	e := &DV360Engine{}

	// No partner chain at all; just an advertiser label with the
	// quantity / UoM / amount tail further down.
	pages := pagesFrom(
		`Display and Video 360`,
		`Advertiser: Acme Co ID: 912233
Charges for the period
1,250,000 Impressions 4,812.50`,
	)

	rs := e.Extract(pages, models.HeaderMetadata{})

	if len(rs.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rs.Rows))
	}
	row := rs.Rows[1]
	if row.SubEntityName != "Acme Co" || row.SubEntityID != "912233" {
		t.Errorf("backscanned advertiser: got %q/%q", row.SubEntityName, row.SubEntityID)
	}
	if row.UoM != "Impressions" {
		t.Errorf("UoM: got %q, want %q", row.UoM, "Impressions")
	}
	if row.Amount == nil || *row.Amount != 4812.50 {
		t.Errorf("amount: got %v, want 4812.50", row.Amount)
	}
}

func TestDV360Engine_QuantityTimesPriceMatchesAmount(t *testing.T) {
	e := &DV360Engine{}

	// 1,250,000 impressions at $3.85 CPM.
	pages := pagesFrom(
		`Display and Video 360`,
		`Media Cost - Partner: Horizon Media - Constellation ID: 1048 - Advertiser: Acme Co ID: 912233 1,250,000 Impressions 4,812.50`,
	)

	rs := e.Extract(pages, models.HeaderMetadata{})
	if len(rs.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rs.Rows))
	}
	row := rs.Rows[1]
	if row.Quantity == nil || row.Amount == nil {
		t.Fatal("quantity and amount must both parse")
	}
	implied := *row.Quantity / 1000 * 3.85
	if diff := implied - *row.Amount; diff > 0.01 || diff < -0.01 {
		t.Errorf("CPM arithmetic drifted: %f vs %f", implied, *row.Amount)
	}
}
