package engine

import (
	"regexp"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Header anchor patterns shared by the Google-issued invoice templates.
var (
	headerInvoiceNumberPattern = regexp.MustCompile(`(?i)Invoice number[:\s]*([0-9]{7,})`)
	headerInvoiceNumberLoose   = regexp.MustCompile(`(?i)Invoice Number\s*:?\s*(\d+)`)
	headerMonthRangePattern    = regexp.MustCompile(`(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},\s+\d{4}\s*[-\x{2013}]\s*(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},\s+\d{4}`)
	headerDueDatePattern       = regexp.MustCompile(`(?i)(?:Due date|Payment due(?: date)?)[:\s]*([A-Za-z]+\s+\d{1,2},\s+\d{4}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{2}-[A-Z]{3}-\d{4})`)
	headerBillingIDPattern     = regexp.MustCompile(`(?i)Billing ID[:\s]*([\d-]{4,})`)

	// SA360 invoices use their own header vocabulary; the generic anchors
	// above are absent from that template.
	sa360InvoicePattern = regexp.MustCompile(`(?i)INVOICE\s+#?:?\s*(\d{5,})`)
	sa360MonthPattern   = regexp.MustCompile(`(?i)Search Ads 360\s*[-\x{2013}]\s*(\w+\s+\d{4})`)
)

// ExtractHeader pulls the per-document scalar fields from the document
// text. Every field degrades to a sentinel ("N/A" for the invoice number,
// "" elsewhere) when its anchor is missing; it never fails.
func ExtractHeader(pages *models.PageTextMap) models.HeaderMetadata {
	full := pages.FullText()

	h := models.HeaderMetadata{InvoiceNumber: "N/A"}

	if m := headerInvoiceNumberPattern.FindStringSubmatch(full); m != nil {
		h.InvoiceNumber = m[1]
	} else if m := headerInvoiceNumberLoose.FindStringSubmatch(full); m != nil {
		h.InvoiceNumber = m[1]
	}

	if m := headerMonthRangePattern.FindString(full); m != "" {
		h.Month = m
	}
	if m := headerDueDatePattern.FindStringSubmatch(full); m != nil {
		h.DueDate = m[1]
	}
	if m := headerBillingIDPattern.FindStringSubmatch(full); m != nil {
		h.BillingCode = m[1]
	}

	return h
}

// OverrideHeader applies the per-family re-extraction pass for families
// whose header format diverges from the generic anchors. Today that is
// only SA360: its invoice number and billing month live in template-
// specific labels spread over the full document text.
func OverrideHeader(family models.Family, pages *models.PageTextMap, h *models.HeaderMetadata) {
	if family != models.FamilySA360 {
		return
	}
	full := pages.FullText()
	if m := sa360InvoicePattern.FindStringSubmatch(full); m != nil {
		h.InvoiceNumber = m[1]
	}
	if m := sa360MonthPattern.FindStringSubmatch(full); m != nil {
		h.Month = m[1]
	}
}
