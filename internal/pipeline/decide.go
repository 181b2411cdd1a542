package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textRatioThreshold is the text-per-page density below which a PDF is
// treated as scanned.
const textRatioThreshold = 0.1

// IsScanned reports whether a source document appears to be image-based
// only. Non-PDF inputs (PNG, JPEG) are always scanned. For PDFs the
// decision uses the ratio of extractable text to page count.
func IsScanned(path string) (bool, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return true, nil
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	if totalPages < 1 {
		totalPages = 1
	}

	totalText := 0
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		totalText += len(strings.TrimSpace(text))
	}

	ratio := float64(totalText) / (float64(totalPages) * 1000)
	return ratio < textRatioThreshold, nil
}
