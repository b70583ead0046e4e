// Package normalize projects family engine output onto the canonical
// fixed-width row schema so every family's rows can be concatenated into
// one table.
package normalize

import (
	"path/filepath"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// invoiceTypeNames maps family tags to the display names stamped into the
// InvoiceType column.
var invoiceTypeNames = map[models.Family]string{
	models.FamilyCM360:     "Campaign Manager 360",
	models.FamilyDV360:     "Display and Video 360",
	models.FamilyGoogleAds: "Google Ads",
	models.FamilyWorkspace: "Google Workspace",
	models.FamilyLinkedIn:  "LinkedIn",
	models.FamilySA360:     "Search Ads 360",
	models.FamilyUnknown:   "Unknown",
}

// InvoiceTypeFor returns the display name for a family tag.
func InvoiceTypeFor(f models.Family) string {
	if name, ok := invoiceTypeNames[f]; ok {
		return name
	}
	return string(f)
}

// Apply stamps the document-level columns onto every row of a row set and
// fills the blanks the engine left. Fields the engine extracted itself
// (a family-specific invoice number, a summary-page month) are kept;
// only empty columns are filled. Numeric fields stay typed and nullable;
// sentinel strings are the writers' concern.
func Apply(rs *models.RowSet, header models.HeaderMetadata, filename string) {
	base := filepath.Base(filename)
	for i := range rs.Rows {
		r := &rs.Rows[i]
		if r.InvoiceType == "" {
			r.InvoiceType = InvoiceTypeFor(rs.Family)
		}
		if r.InvoiceNumber == "" {
			r.InvoiceNumber = header.InvoiceNumber
		}
		if r.InvoiceNumber == "" {
			r.InvoiceNumber = "N/A"
		}
		if r.Month == "" {
			r.Month = header.Month
		}
		if r.DueDate == "" {
			r.DueDate = header.DueDate
		}
		r.Filename = base
		if r.Type == "" {
			r.Type = models.RowDetail
		}
	}
}

// ErrorRow builds the terminal record for a document that failed decode or
// classification: zero detail rows plus this explicit marker.
func ErrorRow(family models.Family, filename, msg string) models.Row {
	return models.Row{
		InvoiceType:   InvoiceTypeFor(family),
		InvoiceNumber: "N/A",
		Filename:      filepath.Base(filename),
		Type:          models.RowError,
		Note:          msg,
	}
}
