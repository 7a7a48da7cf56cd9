// Package generator turns a list of game URLs into game records, one model
// call per URL, all in flight at once.
package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/internal/input"
	"github.com/kapu/gamegen-go/internal/prompt"
	"github.com/kapu/gamegen-go/internal/service/ai"
	"github.com/kapu/gamegen-go/internal/service/pagehint"
	"github.com/kapu/gamegen-go/internal/util"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// RecordCache stores successful records by source URL.
type RecordCache interface {
	GetRecord(ctx context.Context, sourceURL string) (*domain.GameRecord, bool)
	SetRecord(ctx context.Context, rec domain.GameRecord, ttl time.Duration) error
}

// HistoryStore archives finished batches.
type HistoryStore interface {
	SaveBatch(ctx context.Context, batch domain.BatchResult) error
}

// HintSource looks at the game page before the model is asked about it.
type HintSource interface {
	Inspect(ctx context.Context, pageURL string) pagehint.Hints
}

// ProgressFunc receives one event per finished item. Calls are serialized.
type ProgressFunc func(domain.ProgressEvent)

type Config struct {
	// MaxConcurrency caps in-flight model calls; 0 dispatches every URL at once.
	MaxConcurrency int
	// ItemTimeout bounds a single URL; 0 means wait as long as the provider does.
	ItemTimeout time.Duration
	IconBaseURL string
	CacheTTL    time.Duration
}

type Generator struct {
	invoker ai.ModelInvoker
	prompts *prompt.PromptBuilder
	hints   HintSource
	cache   RecordCache
	history HistoryStore
	cfg     Config
	logger  *zap.Logger

	now        func() time.Time
	newBatchID func() string
}

type Option func(*Generator)

func WithCache(cache RecordCache) Option {
	return func(g *Generator) { g.cache = cache }
}

func WithHistory(history HistoryStore) Option {
	return func(g *Generator) { g.history = history }
}

func WithHints(hints HintSource) Option {
	return func(g *Generator) { g.hints = hints }
}

func NewGenerator(invoker ai.ModelInvoker, cfg Config, logger *zap.Logger, opts ...Option) *Generator {
	if cfg.IconBaseURL == "" {
		cfg.IconBaseURL = "https://playszgames.com/wp-content/uploads/thumbs/custom"
	}
	cfg.IconBaseURL = strings.TrimRight(cfg.IconBaseURL, "/")

	g := &Generator{
		invoker:    invoker,
		prompts:    prompt.NewPromptBuilder(),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		newBatchID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateFromText parses operator input and runs a batch. The only error it
// returns is the validation error for an empty list.
func (g *Generator) GenerateFromText(ctx context.Context, raw string) ([]domain.GameRecord, error) {
	urls, err := input.ParseURLList(raw)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, urls), nil
}

// Generate returns exactly one record per URL, record i for urls[i].
func (g *Generator) Generate(ctx context.Context, urls []string) []domain.GameRecord {
	return g.GenerateWithProgress(ctx, urls, nil)
}

// GenerateWithProgress is Generate with a callback fired as each item
// finishes. Every item runs to completion or to its own failure; no item
// cancels another.
func (g *Generator) GenerateWithProgress(ctx context.Context, urls []string, onProgress ProgressFunc) []domain.GameRecord {
	batchID := g.newBatchID()
	started := g.now()
	results := make([]domain.GameRecord, len(urls))

	g.logger.Info("Batch started",
		zap.String("batch_id", batchID),
		zap.Int("total", len(urls)),
		zap.Int("max_concurrency", g.cfg.MaxConcurrency),
	)

	var progressMu sync.Mutex
	p := pool.New()
	if g.cfg.MaxConcurrency > 0 {
		p = p.WithMaxGoroutines(g.cfg.MaxConcurrency)
	}

	for idx, url := range urls {
		p.Go(func() {
			rec := g.processSafely(ctx, url)
			results[idx] = rec

			if onProgress != nil {
				progressMu.Lock()
				defer progressMu.Unlock()
				onProgress(domain.ProgressEvent{
					BatchID: batchID,
					Index:   idx,
					Total:   len(urls),
					URL:     url,
					Failed:  rec.IsPlaceholder(),
					Record:  rec,
				})
			}
		})
	}
	p.Wait()

	batch := domain.BatchResult{
		BatchID:     batchID,
		Records:     results,
		StartedAt:   started,
		CompletedAt: g.now(),
	}

	g.logger.Info("Batch finished",
		zap.String("batch_id", batchID),
		zap.Int("total", len(results)),
		zap.Int("failed", batch.FailedCount()),
		zap.Duration("duration", batch.CompletedAt.Sub(started)),
	)

	g.archive(ctx, batch)

	return results
}

// processSafely turns any failure of one URL, including a panic, into a
// placeholder for that URL.
func (g *Generator) processSafely(ctx context.Context, url string) domain.GameRecord {
	var (
		rec domain.GameRecord
		err error
	)

	var catcher panics.Catcher
	catcher.Try(func() {
		rec, err = g.process(ctx, url)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		g.logger.Error("Failed to process URL", zap.String("url", url), zap.Error(err))
		return domain.NewPlaceholderRecord(url, err, g.now())
	}
	return rec
}

func (g *Generator) process(ctx context.Context, url string) (domain.GameRecord, error) {
	if g.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.ItemTimeout)
		defer cancel()
	}

	if limit := constants.AIInputLimits.MaxURLLength; len(url) > limit {
		return domain.GameRecord{}, fmt.Errorf("URL is longer than %d characters", limit)
	}

	if g.cache != nil {
		if cached, ok := g.cache.GetRecord(ctx, url); ok {
			g.logger.Debug("Record cache hit", zap.String("url", url))
			rec := *cached
			rec.IframeURL = url
			return rec, nil
		}
	}

	data := prompt.GameMetadataData{
		URL:          url,
		IconBaseURL:  g.cfg.IconBaseURL,
		RelatedCount: constants.GameDefaults.RelatedCount,
	}
	var hints pagehint.Hints
	if g.hints != nil {
		hints = g.hints.Inspect(ctx, url)
		if hints.Empty() {
			g.logger.Debug("No page hints found", zap.String("url", url))
		}
		data.PageTitle = hints.Title
		data.PageDescription = hints.Description
	}

	promptText, err := g.prompts.BuildGameMetadata(data)
	if err != nil {
		g.logger.Warn("Prompt template failed, using fallback prompt", zap.Error(err))
	}

	var rec domain.GameRecord
	metadata, err := g.invoker.GenerateJSON(ctx, promptText, ai.PresetArticle, &rec, &ai.GenerateOptions{
		Schema: ai.GameRecordSchema(),
	})
	if err != nil {
		return domain.GameRecord{}, err
	}

	if missing := rec.MissingFields(); len(missing) > 0 {
		return domain.GameRecord{}, fmt.Errorf("response is missing required fields: %s", strings.Join(missing, ", "))
	}

	rec = g.finalize(rec, url, hints.Image)

	if metadata != nil {
		g.logger.Debug("Record generated",
			zap.String("url", url),
			zap.String("game", rec.Name),
			zap.String("provider", metadata.Provider),
			zap.String("model", metadata.Model),
			zap.Bool("fallback", metadata.UsedFallback),
		)
	}

	if g.cache != nil {
		if err := g.cache.SetRecord(ctx, rec, g.cfg.CacheTTL); err != nil {
			g.logger.Warn("Failed to cache record", zap.String("url", url), zap.Error(err))
		}
	}

	return rec, nil
}

// finalize pins the source URL to the input and tidies model output. An empty
// ICON_URL is filled from the page image, then from the thumbnail layout.
func (g *Generator) finalize(rec domain.GameRecord, url, pageImage string) domain.GameRecord {
	rec.IframeURL = url
	rec.Name = strings.TrimSpace(rec.Name)

	if slug := util.Slugify(rec.Slug); slug != "" {
		rec.Slug = slug
	} else if slug := util.Slugify(rec.Name); slug != "" {
		rec.Slug = slug
	} else {
		rec.Slug = strings.TrimSpace(rec.Slug)
	}

	if strings.TrimSpace(rec.IconURL) == "" {
		rec.IconURL = pageImage
	}
	if strings.TrimSpace(rec.IconURL) == "" {
		rec.IconURL = g.iconURL(rec)
	}

	related := make([]string, 0, len(rec.RelatedGames))
	for _, title := range rec.RelatedGames {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			related = append(related, trimmed)
		}
	}
	rec.RelatedGames = related

	return rec
}

// iconURL follows the portal's thumbnail layout: <base>/<Letter>/<slug>-150x150.webp
func (g *Generator) iconURL(rec domain.GameRecord) string {
	letter := util.FirstLetter(rec.Name)
	if letter == "" {
		letter = util.FirstLetter(rec.Slug)
	}
	if letter == "" || rec.Slug == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s%s%s",
		g.cfg.IconBaseURL, letter, rec.Slug,
		constants.GameDefaults.IconSizeSuffix, constants.GameDefaults.IconExtension,
	)
}

func (g *Generator) archive(ctx context.Context, batch domain.BatchResult) {
	if g.history == nil || len(batch.Records) == 0 {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := g.history.SaveBatch(saveCtx, batch); err != nil {
		g.logger.Warn("Failed to archive batch", zap.String("batch_id", batch.BatchID), zap.Error(err))
	}
}
