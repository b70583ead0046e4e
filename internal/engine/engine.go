package engine

import (
	"fmt"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Engine converts a document's page-text map plus header metadata into a
// row set for one invoice family. Engines are pure functions of their
// inputs: they keep no state between documents and are safe to run in
// parallel across documents.
type Engine interface {
	// Extract produces the summary and detail rows for one document.
	// It never fails: unparseable blocks contribute no rows, and field
	// parse failures degrade the field to its empty value.
	Extract(pages *models.PageTextMap, header models.HeaderMetadata) *models.RowSet
	// FamilyName returns the human-readable product family name.
	FamilyName() string
}

// New returns the extraction engine for the given family.
func New(family models.Family) (Engine, error) {
	switch family {
	case models.FamilyCM360:
		return &CM360Engine{}, nil
	case models.FamilyDV360:
		return &DV360Engine{}, nil
	case models.FamilyGoogleAds:
		return &GoogleAdsEngine{}, nil
	case models.FamilyWorkspace:
		return &WorkspaceEngine{}, nil
	case models.FamilyLinkedIn:
		return &LinkedInEngine{}, nil
	case models.FamilySA360:
		return &SA360Engine{}, nil
	default:
		return nil, fmt.Errorf("unsupported invoice family: %q", family)
	}
}
