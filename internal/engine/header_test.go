package engine

import (
	"testing"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func TestExtractHeader(t *testing.T) {
	pages := pagesFrom(`Google Ads
Invoice number: 5301928374
Billing ID: 4932-2105-5341
Mar 1, 2025 - Mar 31, 2025
Due date: Apr 30, 2025`)

	h := ExtractHeader(pages)

	if h.InvoiceNumber != "5301928374" {
		t.Errorf("invoice number: got %q, want %q", h.InvoiceNumber, "5301928374")
	}
	if h.Month != "Mar 1, 2025 - Mar 31, 2025" {
		t.Errorf("month: got %q", h.Month)
	}
	if h.DueDate != "Apr 30, 2025" {
		t.Errorf("due date: got %q", h.DueDate)
	}
	if h.BillingCode != "4932-2105-5341" {
		t.Errorf("billing ID: got %q", h.BillingCode)
	}
}

func TestExtractHeader_MissingAnchorsDegradeToSentinels(t *testing.T) {
	h := ExtractHeader(pagesFrom("Completely unrelated text"))

	if h.InvoiceNumber != "N/A" {
		t.Errorf("invoice number: got %q, want N/A", h.InvoiceNumber)
	}
	if h.Month != "" || h.DueDate != "" || h.BillingCode != "" {
		t.Errorf("missing fields must stay empty: %+v", h)
	}
}

func TestExtractHeader_PaymentDueVariant(t *testing.T) {
	h := ExtractHeader(pagesFrom("Payment due date: 04/30/2025"))
	if h.DueDate != "04/30/2025" {
		t.Errorf("due date: got %q, want %q", h.DueDate, "04/30/2025")
	}
}

func TestExtractHeader_EnDashMonthRange(t *testing.T) {
	h := ExtractHeader(pagesFrom("Mar 1, 2025 – Mar 31, 2025"))
	if h.Month == "" {
		t.Error("en-dash month range not recognized")
	}
}

func TestExtractHeader_LooseInvoiceNumberFallback(t *testing.T) {
	// Shorter numbers miss the strict anchor but are caught by the loose
	// variant used on older templates.
	h := ExtractHeader(pagesFrom("Invoice Number: 90144"))
	if h.InvoiceNumber != "90144" {
		t.Errorf("invoice number: got %q, want %q", h.InvoiceNumber, "90144")
	}
}

func TestOverrideHeader_SA360(t *testing.T) {
	pages := pagesFrom(`Search Ads 360 - March 2025
INVOICE #: 88211`)

	h := models.HeaderMetadata{InvoiceNumber: "N/A"}
	OverrideHeader(models.FamilySA360, pages, &h)

	if h.InvoiceNumber != "88211" {
		t.Errorf("invoice number: got %q, want %q", h.InvoiceNumber, "88211")
	}
	if h.Month != "March 2025" {
		t.Errorf("month: got %q, want %q", h.Month, "March 2025")
	}
}

func TestOverrideHeader_OtherFamiliesUntouched(t *testing.T) {
	pages := pagesFrom(`Search Ads 360 - March 2025
INVOICE #: 88211`)

	h := models.HeaderMetadata{InvoiceNumber: "5301928374", Month: "March 2025"}
	OverrideHeader(models.FamilyGoogleAds, pages, &h)

	if h.InvoiceNumber != "5301928374" {
		t.Errorf("non-SA360 override must not run, got %q", h.InvoiceNumber)
	}
}
