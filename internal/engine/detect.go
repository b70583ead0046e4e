package engine

import (
	"strings"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// familySignatures are the brand phrases that identify each product family.
// Order matters: it is the tie-break policy when a document incidentally
// mentions more than one product (cross-references in footers are common).
// "Campaign Manager 360" must be checked before "Google Ads" because CM360
// invoices carry Google Ads boilerplate, and the generic "LinkedIn" check
// sits before DV360/SA360 whose invoices never mention LinkedIn.
var familySignatures = []struct {
	family  models.Family
	phrases []string
}{
	{models.FamilyCM360, []string{"Campaign Manager 360"}},
	{models.FamilyGoogleAds, []string{"Google Ads"}},
	{models.FamilyWorkspace, []string{"Google Workspace"}},
	{models.FamilyLinkedIn, []string{"LinkedIn"}},
	{models.FamilyDV360, []string{"Display and Video 360", "Display & Video 360"}},
	{models.FamilySA360, []string{"Search Ads 360"}},
}

// Detect identifies the invoice family from the document's full text.
// First matching signature wins; FamilyUnknown when nothing matches.
// Pure and deterministic: the same text always yields the same family.
func Detect(pages *models.PageTextMap) models.Family {
	full := pages.FullText()
	for _, sig := range familySignatures {
		for _, phrase := range sig.phrases {
			if strings.Contains(full, phrase) {
				return sig.family
			}
		}
	}
	return models.FamilyUnknown
}
