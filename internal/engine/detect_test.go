package engine

import (
	"testing"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Family
	}{
		{"cm360", "Campaign Manager 360 Invoice", models.FamilyCM360},
		{"google ads", "Google Ads invoice for March", models.FamilyGoogleAds},
		{"workspace", "Google Workspace subscription", models.FamilyWorkspace},
		{"linkedin", "LinkedIn Corporation Invoice", models.FamilyLinkedIn},
		{"dv360", "Display and Video 360 Summary", models.FamilyDV360},
		{"dv360 ampersand", "Display & Video 360 Summary", models.FamilyDV360},
		{"sa360", "Search Ads 360 - March 2025", models.FamilySA360},
		{"unknown", "Utility bill for water service", models.FamilyUnknown},
		{"empty", "", models.FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(pagesFrom(tt.text))
			if got != tt.want {
				t.Errorf("Detect: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_PriorityOrder(t *testing.T) {
	// CM360 invoices carry Google Ads boilerplate in the footer; the CM360
	// signature must win.
	pages := pagesFrom(`Campaign Manager 360
Billed via the Google Ads platform`)
	if got := Detect(pages); got != models.FamilyCM360 {
		t.Errorf("got %q, want cm360 despite Google Ads mention", got)
	}

	// And a Google Ads invoice that cross-references Workspace stays Ads.
	pages = pagesFrom(`Google Ads
Bundled with your Google Workspace subscription`)
	if got := Detect(pages); got != models.FamilyGoogleAds {
		t.Errorf("got %q, want google_ads despite Workspace mention", got)
	}
}

func TestDetect_SignatureOnLaterPage(t *testing.T) {
	pages := pagesFrom(
		"Invoice",
		"Terms and conditions",
		"Search Ads 360 billing detail",
	)
	if got := Detect(pages); got != models.FamilySA360 {
		t.Errorf("got %q, want sa360", got)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	pages := pagesFrom("Display and Video 360 invoice mentioning LinkedIn ads")
	first := Detect(pages)
	for i := 0; i < 50; i++ {
		if got := Detect(pages); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}
