package generator

import (
	"bytes"
	"encoding/json"

	"github.com/kapu/gamegen-go/internal/domain"
)

// FormatJSON renders records as two-space indented JSON without escaping the
// HTML inside EXCERPT and SEO_ARTICLE_FULL.
func FormatJSON(records []domain.GameRecord) ([]byte, error) {
	if records == nil {
		records = []domain.GameRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
