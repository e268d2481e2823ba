package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daybreak-app/daybreak/internal/model"
	"github.com/daybreak-app/daybreak/internal/news"
	"github.com/daybreak-app/daybreak/internal/store"
)

// maxPerTopic caps how many provider results each topic contributes.
const maxPerTopic = 3

// Placeholder values for provider fields that come back empty.
const (
	defaultTitle       = "No title"
	defaultDescription = "No description available"
	defaultLink        = "#"
)

var (
	// ErrNoPreferences is returned by Rebuild when the email has no stored
	// topic set.
	ErrNoPreferences = errors.New("no preferences")

	// ErrNotFound is returned by GetCached when no digest has been built.
	ErrNotFound = errors.New("digest not found")
)

// Builder assembles and persists per-user digests from the news provider.
type Builder struct {
	prefs   *store.PreferenceStore
	digests *store.DigestStore
	news    *news.Service
	logger  *slog.Logger
}

func NewBuilder(ps *store.PreferenceStore, ds *store.DigestStore, ns *news.Service, logger *slog.Logger) *Builder {
	return &Builder{
		prefs:   ps,
		digests: ds,
		news:    ns,
		logger:  logger,
	}
}

// Rebuild queries the provider for each subscribed topic in catalog order,
// keeps at most three articles per topic, and fully replaces the stored
// digest. A failing topic contributes zero articles instead of failing the
// build. Concurrent rebuilds for the same email are last-writer-wins.
func (b *Builder) Rebuild(ctx context.Context, email string) (*model.Digest, error) {
	topics, err := b.prefs.Get(email)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("rebuild digest for %s: %w", email, ErrNoPreferences)
	}

	subscribed := make(map[string]bool, len(topics))
	for _, t := range topics {
		subscribed[t] = true
	}

	articles := []model.ArticleSummary{}
	for _, topic := range model.Topics {
		if !subscribed[topic] {
			continue
		}

		results, err := b.news.Search(ctx, topic)
		if err != nil {
			b.logger.Warn("topic fetch failed", "email", email, "topic", topic, "error", err)
			continue
		}

		if len(results) > maxPerTopic {
			results = results[:maxPerTopic]
		}
		for _, a := range results {
			articles = append(articles, summarize(a))
		}
	}

	if err := b.digests.Upsert(email, articles); err != nil {
		return nil, err
	}

	return &model.Digest{
		Email:    email,
		Articles: articles,
		BuiltAt:  time.Now().UTC(),
	}, nil
}

// GetCached returns the last persisted digest without touching the provider.
func (b *Builder) GetCached(email string) (*model.Digest, error) {
	d, err := b.digests.Get(email)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("get digest for %s: %w", email, ErrNotFound)
	}
	return d, nil
}

func summarize(a news.Article) model.ArticleSummary {
	s := model.ArticleSummary{
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Link:        a.Link,
	}
	if s.Title == "" {
		s.Title = defaultTitle
	}
	if s.Description == "" {
		s.Description = defaultDescription
	}
	if s.Link == "" {
		s.Link = defaultLink
	}
	return s
}
