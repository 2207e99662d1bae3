package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/classify"
	"gridpulse/backend/services/grid-service/internal/extract"
	"gridpulse/backend/services/grid-service/internal/models"
)

const (
	DefaultMaxInsert   = 5
	DefaultDedupWindow = 50

	DefaultSentinelTitle       = "NERC Updates Available"
	DefaultSentinelDescription = "Check nerc.gov.ng for the latest regulatory updates and announcements."

	descriptionTitleLen = 100
)

// NewsStore is the news table contract used by the job.
type NewsStore interface {
	Insert(ctx context.Context, item *models.NewsItem) error
	RecentTitles(ctx context.Context, limit int) ([]string, error)
}

// NewsSource describes the news listing and the per-run insert policy.
type NewsSource struct {
	URL     string
	Headers map[string]string
	// Label names the publisher in generated descriptions.
	Label string
	// MaxInsert caps new items per run.
	MaxInsert int
	// DedupWindow is how many of the newest stored titles are checked before insert.
	DedupWindow int

	SentinelTitle       string
	SentinelDescription string
}

func (s *NewsSource) defaults() {
	if s.MaxInsert <= 0 {
		s.MaxInsert = DefaultMaxInsert
	}
	if s.DedupWindow <= 0 {
		s.DedupWindow = DefaultDedupWindow
	}
	if s.Label == "" {
		s.Label = "NERC"
	}
	if s.SentinelTitle == "" {
		s.SentinelTitle = DefaultSentinelTitle
	}
	if s.SentinelDescription == "" {
		s.SentinelDescription = DefaultSentinelDescription
	}
}

// NewsJob runs fetch, extract, classify and persist for the news stream.
type NewsJob struct {
	source    NewsSource
	fetcher   PageFetcher
	extractor *extract.NewsExtractor
	store     NewsStore
	logger    *zap.Logger
}

// NewNewsJob builds job. A nil extractor uses the default strategies for source.URL.
func NewNewsJob(source NewsSource, fetcher PageFetcher, extractor *extract.NewsExtractor, store NewsStore, logger *zap.Logger) *NewsJob {
	source.defaults()
	if extractor == nil {
		extractor = extract.NewNewsExtractor(source.URL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsJob{
		source:    source,
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// Run performs one ingestion and returns the items actually inserted.
//
// When the page yields no titles a single sentinel item is inserted instead. Titles
// already present among the newest stored items are skipped, then at most MaxInsert
// items are written. A failed insert is logged and its siblings are still attempted;
// the run only fails at the persisting stage when every attempted insert failed.
func (j *NewsJob) Run(ctx context.Context) ([]models.NewsItem, error) {
	r := newRun(models.StreamNews, j.logger)

	r.enter(StageFetching)
	html, err := j.fetcher.Fetch(ctx, j.source.URL, j.source.Headers)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(StageExtracting)
	titles, strategy := j.extractor.TitlesWithStrategy(html)
	r.logger.Debug("titles extracted", zap.Int("count", len(titles)), zap.String("strategy", strategy))

	r.enter(StageClassifying)
	var candidates []models.NewsItem
	if len(titles) == 0 {
		r.logger.Info("no news titles found, inserting sentinel")
		candidates = []models.NewsItem{j.sentinel()}
	} else {
		stored, err := j.store.RecentTitles(ctx, j.source.DedupWindow)
		if err != nil {
			return nil, r.fail(fmt.Errorf("load recent titles: %w", err))
		}
		candidates = j.classify(titles, stored)
	}

	r.enter(StagePersisting)
	inserted := make([]models.NewsItem, 0, len(candidates))
	var errs []error
	for i := range candidates {
		item := candidates[i]
		if err := j.store.Insert(ctx, &item); err != nil {
			r.logger.Error("failed to insert news item", zap.String("title", item.Title), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		inserted = append(inserted, item)
	}
	if len(candidates) > 0 && len(inserted) == 0 {
		return nil, r.fail(errors.Join(errs...))
	}

	r.done(
		zap.Int("extracted", len(titles)),
		zap.Int("inserted", len(inserted)),
		zap.Int("failed", len(errs)),
	)
	return inserted, nil
}

// classify turns fresh titles into items, skipping ones already stored.
func (j *NewsJob) classify(titles, stored []string) []models.NewsItem {
	known := make(map[string]struct{}, len(stored))
	for _, t := range stored {
		known[t] = struct{}{}
	}

	items := make([]models.NewsItem, 0, j.source.MaxInsert)
	for _, raw := range titles {
		title := truncate(raw, models.MaxNewsTitleLen)
		if _, ok := known[title]; ok {
			continue
		}
		known[title] = struct{}{}

		description := fmt.Sprintf("Latest update from %s regarding %s...", j.source.Label, truncate(raw, descriptionTitleLen))
		items = append(items, models.NewsItem{
			Title:       title,
			Description: &description,
			Type:        classify.NewsType(title),
		})
		if len(items) == j.source.MaxInsert {
			break
		}
	}
	return items
}

func (j *NewsJob) sentinel() models.NewsItem {
	description := j.source.SentinelDescription
	return models.NewsItem{
		Title:       truncate(j.source.SentinelTitle, models.MaxNewsTitleLen),
		Description: &description,
		Type:        models.NewsInfo,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
