package models

// Family identifies one invoice product-family dialect.
type Family string

const (
	FamilyCM360     Family = "cm360"
	FamilyDV360     Family = "dv360"
	FamilyGoogleAds Family = "google_ads"
	FamilyWorkspace Family = "google_workspace"
	FamilyLinkedIn  Family = "linkedin"
	FamilySA360     Family = "sa360"
	FamilyUnknown   Family = "unknown"
)

// RowType discriminates the three kinds of output records.
type RowType string

const (
	RowSummary RowType = "summary"
	RowDetail  RowType = "detail"
	RowError   RowType = "error"
)

// Row is one normalized output record. The column set is fixed across all
// families; fields an engine could not recover stay at their zero value
// ("" for text, nil for numerics). Sentinel strings like "N/A" and "SUMMARY"
// are rendered by the writers, not stored here.
type Row struct {
	InvoiceType   string  `json:"invoiceType"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Month         string  `json:"month"`
	DueDate       string  `json:"dueDate,omitempty"`
	Filename      string  `json:"filename"`
	Type          RowType `json:"rowType"`

	EntityName    string `json:"entityName,omitempty"`
	EntityID      string `json:"entityId,omitempty"`
	SubEntityName string `json:"subEntityName,omitempty"`
	SubEntityID   string `json:"subEntityId,omitempty"`
	BillingCode   string `json:"billingCode,omitempty"`
	Fee           string `json:"fee,omitempty"`
	UoM           string `json:"uom,omitempty"`

	UnitPrice *float64 `json:"unitPrice,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`

	// Note carries the failure message on error rows.
	Note string `json:"note,omitempty"`
}

// TraceEvent records what an engine tier did with one block of input text.
// Engines emit these for observability; they are not part of the data contract.
type TraceEvent struct {
	Tier    string `json:"tier"`
	Block   string `json:"block,omitempty"`
	Matched bool   `json:"matched"`
}

// RowSet is the ordered output of one family engine for one document.
// By convention the summary row, when found, comes first; detail rows
// follow document page/line order.
type RowSet struct {
	Family Family       `json:"family"`
	Rows   []Row        `json:"rows"`
	Trace  []TraceEvent `json:"trace,omitempty"`
}

// HeaderMetadata holds the per-document scalar fields pulled from the
// invoice header. Missing fields resolve to "N/A" or "" sentinels.
type HeaderMetadata struct {
	InvoiceNumber string
	Month         string
	DueDate       string
	BillingCode   string
}

// FamilyBucket accumulates row sets per family across a batch run.
type FamilyBucket map[Family][]*RowSet

// Num is a convenience for building *float64 literals in tests and fixtures.
func Num(v float64) *float64 { return &v }
