package engine

import (
	"testing"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// pagesFrom builds a page map from raw page texts, in order.
func pagesFrom(texts ...string) *models.PageTextMap {
	m := models.NewPageTextMap()
	for _, text := range texts {
		m.Add(text, nil)
	}
	return m
}

func TestNewReturnsEngineForEveryKnownFamily(t *testing.T) {
	families := []models.Family{
		models.FamilyCM360,
		models.FamilyDV360,
		models.FamilyGoogleAds,
		models.FamilyWorkspace,
		models.FamilyLinkedIn,
		models.FamilySA360,
	}
	for _, f := range families {
		eng, err := New(f)
		if err != nil {
			t.Errorf("New(%s): unexpected error: %v", f, err)
			continue
		}
		if eng == nil {
			t.Errorf("New(%s): nil engine", f)
		}
	}
}

func TestNewRejectsUnknownFamily(t *testing.T) {
	if _, err := New(models.FamilyUnknown); err == nil {
		t.Error("expected error for unknown family")
	}
	if _, err := New(models.Family("fax")); err == nil {
		t.Error("expected error for unrecognized family tag")
	}
}
