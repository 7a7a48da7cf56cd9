package domain

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kapu/gamegen-go/internal/constants"
)

// GameRecord is the generated metadata for one game URL. The JSON keys are the
// wire format consumed by the game portal importer.
type GameRecord struct {
	Name         string   `json:"GAME_NAME"`
	Slug         string   `json:"SLUG"`
	IframeURL    string   `json:"IFRAME_URL"`
	IconURL      string   `json:"ICON_URL"`
	Excerpt      string   `json:"EXCERPT"`
	Article      string   `json:"SEO_ARTICLE_FULL"`
	RelatedGames []string `json:"RELATED_GAMES"`
}

// placeholderSeq keeps placeholder slugs distinct within one millisecond.
var placeholderSeq atomic.Uint64

// NewPlaceholderRecord builds the substitute record for a URL whose generation
// failed. It has the same shape as a successful record. The slug is
// error-<unix millis>-<sequence>, unique within the process.
func NewPlaceholderRecord(url string, cause error, now time.Time) GameRecord {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	return GameRecord{
		Name:         constants.GameDefaults.FailedName,
		Slug:         fmt.Sprintf("error-%d-%d", now.UnixMilli(), placeholderSeq.Add(1)),
		IframeURL:    url,
		IconURL:      "",
		Excerpt:      constants.GameDefaults.FailedExcerpt,
		Article:      "Error: " + msg,
		RelatedGames: []string{},
	}
}

// IsPlaceholder reports whether r was produced by NewPlaceholderRecord.
func (r GameRecord) IsPlaceholder() bool {
	return r.Name == constants.GameDefaults.FailedName &&
		r.Excerpt == constants.GameDefaults.FailedExcerpt &&
		strings.HasPrefix(r.Slug, "error-")
}

// MissingFields lists the required keys that are empty. A nil RelatedGames
// means the key was absent or null; an empty list is accepted.
func (r GameRecord) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "GAME_NAME")
	}
	if strings.TrimSpace(r.Slug) == "" {
		missing = append(missing, "SLUG")
	}
	if strings.TrimSpace(r.Excerpt) == "" {
		missing = append(missing, "EXCERPT")
	}
	if strings.TrimSpace(r.Article) == "" {
		missing = append(missing, "SEO_ARTICLE_FULL")
	}
	if r.RelatedGames == nil {
		missing = append(missing, "RELATED_GAMES")
	}
	return missing
}

// ProgressEvent is emitted once per finished item of a batch, in completion
// order.
type ProgressEvent struct {
	BatchID string     `json:"batch_id"`
	Index   int        `json:"index"`
	Total   int        `json:"total"`
	URL     string     `json:"url"`
	Failed  bool       `json:"failed"`
	Record  GameRecord `json:"record"`
}

// BatchResult is what a finished batch hands to history storage.
type BatchResult struct {
	BatchID     string
	Records     []GameRecord
	StartedAt   time.Time
	CompletedAt time.Time
}

// FailedCount returns the number of placeholder records in the batch.
func (b BatchResult) FailedCount() int {
	n := 0
	for _, r := range b.Records {
		if r.IsPlaceholder() {
			n++
		}
	}
	return n
}
