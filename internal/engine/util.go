package engine

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseAmount converts a locale-formatted string like "1,234.56" or
// "-$1,234.56" to a float64.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	// Remove currency symbols and whitespace (including Unicode variants)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space

	if s == "" || s == "-" {
		return 0, strconv.ErrSyntax
	}

	return strconv.ParseFloat(s, 64)
}

// amountPtr parses a captured amount string. A capture that fails numeric
// coercion degrades to nil: the field is nulled, the row still emits.
func amountPtr(s string) *float64 {
	v, err := parseAmount(s)
	if err != nil {
		return nil
	}
	return &v
}

// numericTripletPattern matches the trailing quantity / unit-price / amount
// triplet found on media-billing detail lines: "10,000 5.25 52.50".
var numericTripletPattern = regexp.MustCompile(`([\d,]+)\s+([\d.]+)\s+([\d,]+\.\d{2})`)

// standaloneAmountPattern matches a line that is nothing but one amount.
var standaloneAmountPattern = regexp.MustCompile(`^\$?\s*([\d,]+\.\d{2})$`)

// collapseSpacedLetters repairs the OCR artifact where every character of a
// word is separated by a space: "H o r i z a n t" becomes "Horizant".
// Only runs of three or more single-letter tokens are collapsed, so that
// genuine single-character fields and digit columns are left alone.
func collapseSpacedLetters(s string) string {
	lines := strings.Split(s, "\n")
	for li, line := range lines {
		fields := strings.Fields(line)
		var out []string
		i := 0
		for i < len(fields) {
			j := i
			for j < len(fields) && isSingleLetter(fields[j]) {
				j++
			}
			if j-i >= 3 {
				out = append(out, strings.Join(fields[i:j], ""))
				i = j
				continue
			}
			out = append(out, fields[i])
			i++
		}
		lines[li] = strings.Join(out, " ")
	}
	return strings.Join(lines, "\n")
}

func isSingleLetter(tok string) bool {
	if utf8.RuneCountInString(tok) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsLetter(r)
}

// mergeBlocks re-segments text into logical blocks: any line matching the
// blockStart pattern begins a new block, and following lines are merged
// into it until the next block start. This recovers records whose fields
// were split across physical lines by the text-extraction step.
func mergeBlocks(text string, blockStart *regexp.Regexp) []string {
	var blocks []string
	var buffer string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if blockStart.MatchString(line) {
			if buffer != "" {
				blocks = append(blocks, strings.TrimSpace(buffer))
			}
			buffer = line
		} else if buffer != "" {
			buffer += " " + line
		}
	}
	if buffer != "" {
		blocks = append(blocks, strings.TrimSpace(buffer))
	}
	return blocks
}

// lookaheadAmount scans the next 1-4 lines after index i for a standalone
// amount token. Used when a labeled amount is split onto the line(s) below
// its label. Returns nil when no such line exists in the window.
func lookaheadAmount(lines []string, i int) *float64 {
	for j := i + 1; j <= i+4 && j < len(lines); j++ {
		if m := standaloneAmountPattern.FindStringSubmatch(strings.TrimSpace(lines[j])); m != nil {
			return amountPtr(m[1])
		}
	}
	return nil
}

// snippet truncates block text for trace events so diagnostic payloads
// stay bounded.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120]
	}
	return s
}

// nonEmptyLines splits text into trimmed, non-empty lines.
func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
