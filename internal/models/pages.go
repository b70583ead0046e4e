package models

import (
	"fmt"
	"strings"
)

// Page holds the raw extracted text of one PDF page, plus any raw table
// cells the decoder recovered for that page.
type Page struct {
	Text      string
	TableRows [][]string
}

// PageTextMap is the ordered page_1, page_2, ... mapping produced once per
// document by the page text provider. It is read-only for the lifetime of
// an extraction.
type PageTextMap struct {
	keys  []string
	pages map[string]Page
}

func NewPageTextMap() *PageTextMap {
	return &PageTextMap{pages: make(map[string]Page)}
}

// Add appends the next page in document order.
func (m *PageTextMap) Add(text string, tableRows [][]string) {
	key := fmt.Sprintf("page_%d", len(m.keys)+1)
	m.keys = append(m.keys, key)
	m.pages[key] = Page{Text: text, TableRows: tableRows}
}

// Len returns the number of pages.
func (m *PageTextMap) Len() int { return len(m.keys) }

// Keys returns the page keys in document order.
func (m *PageTextMap) Keys() []string { return m.keys }

// Page returns the page stored under key, if any.
func (m *PageTextMap) Page(key string) (Page, bool) {
	p, ok := m.pages[key]
	return p, ok
}

// FullText joins every page's text in document order.
func (m *PageTextMap) FullText() string {
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, m.pages[k].Text)
	}
	return strings.Join(parts, "\n")
}

// FirstPage returns the text of page_1, or "" for an empty document.
func (m *PageTextMap) FirstPage() string {
	if len(m.keys) == 0 {
		return ""
	}
	return m.pages[m.keys[0]].Text
}

// DetailText joins every page after page_1. Single-page documents keep
// their only page as detail text, since the line items share the page
// with the header there.
func (m *PageTextMap) DetailText() string {
	if len(m.keys) <= 1 {
		return m.FullText()
	}
	parts := make([]string, 0, len(m.keys)-1)
	for _, k := range m.keys[1:] {
		parts = append(parts, m.pages[k].Text)
	}
	return strings.Join(parts, "\n")
}

// Tables returns every page's raw table rows in document order.
func (m *PageTextMap) Tables() [][][]string {
	var out [][][]string
	for _, k := range m.keys {
		if rows := m.pages[k].TableRows; len(rows) > 0 {
			out = append(out, rows)
		}
	}
	return out
}
