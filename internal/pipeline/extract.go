package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdf2tables/backend/internal/models"
)

// columnSplitter matches runs of two or more spaces, the layout gap
// between columns in text extracted from a PDF.
var columnSplitter = regexp.MustCompile(`\s{2,}|\t+|\s*\|\s*`)

// looseSplitter splits on any whitespace; used only by the deep
// fallback when the primary pass finds nothing.
var looseSplitter = regexp.MustCompile(`\s+`)

// ExtractNative walks a text PDF page by page and detects tables from
// the layout of the extracted text.
func ExtractNative(path string) ([]models.Table, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var tables []models.Table
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageTables := tablesFromLines(strings.Split(text, "\n"), i, columnSplitter, "grid")
		tables = append(tables, pageTables...)
	}
	return tables, nil
}

// ExtractFromText detects tables in OCR output, which carries no page
// structure; everything is attributed to page 1.
func ExtractFromText(text string) []models.Table {
	return tablesFromLines(strings.Split(text, "\n"), 1, columnSplitter, "stream")
}

// ExtractDeep is the feature-gated fallback pass with a looser column
// rule, used when the primary pass yields zero tables.
func ExtractDeep(text string) []models.Table {
	return tablesFromLines(strings.Split(text, "\n"), 1, looseSplitter, "deep")
}

// tablesFromLines groups consecutive multi-column lines into tables. A
// table needs at least two rows sharing at least two columns.
func tablesFromLines(lines []string, page int, splitter *regexp.Regexp, flavor string) []models.Table {
	var tables []models.Table
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			data := normalizeWidths(current)
			tables = append(tables, models.Table{
				Page:   page,
				Order:  len(tables) + 1,
				Flavor: flavor,
				Data:   data,
			})
		}
		current = nil
	}

	for _, line := range lines {
		cells := splitRow(line, splitter)
		if len(cells) >= 2 {
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func splitRow(line string, splitter *regexp.Regexp) []string {
	trimmed := strings.Trim(line, " |\t\r")
	if trimmed == "" {
		return nil
	}
	parts := splitter.Split(trimmed, -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// normalizeWidths pads ragged rows so every row has the same number of
// columns as the widest one.
func normalizeWidths(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
