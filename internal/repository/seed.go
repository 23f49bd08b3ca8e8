package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waynefred/ocean-journal/internal/metrics"
	"github.com/waynefred/ocean-journal/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Articles []seedArticle `yaml:"articles"`
}

type seedArticle struct {
	Title      string        `yaml:"title"`
	Author     string        `yaml:"author"`
	Excerpt    string        `yaml:"excerpt"`
	Content    string        `yaml:"content"`
	CoverImage string        `yaml:"coverImage"`
	Tags       []string      `yaml:"tags"`
	Status     models.Status `yaml:"status"`
	DaysAgo    int           `yaml:"daysAgo"`
}

// SeedArticles parses the embedded demo content. Ids are seed-1, seed-2 and so
// on; timestamps are counted back from now.
func SeedArticles(now time.Time) ([]models.Article, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]models.Article, 0, len(f.Articles))
	for i, s := range f.Articles {
		created := now.Add(-time.Duration(s.DaysAgo) * 24 * time.Hour).UTC()
		status := s.Status
		if status == "" {
			status = models.StatusPublished
		}
		if !status.Valid() {
			return nil, fmt.Errorf("seed article %d: invalid status %q", i+1, status)
		}
		tags := s.Tags
		if tags == nil {
			tags = []string{}
		}
		author := s.Author
		if author == "" {
			author = models.DefaultAuthor
		}
		out = append(out, models.Article{
			ID:         fmt.Sprintf("seed-%d", i+1),
			Title:      s.Title,
			Content:    s.Content,
			Excerpt:    s.Excerpt,
			Author:     author,
			CoverImage: s.CoverImage,
			Tags:       tags,
			Status:     status,
			LikedBy:    []string{},
			CreatedAt:  created,
			UpdatedAt:  created,
		})
	}
	return out, nil
}

// SeedIfEmpty writes the demo articles when the collection has none and
// returns how many were written. A failed write is logged and the demo
// articles are served from memory for the life of the repository.
func (r *ArticleRepository) SeedIfEmpty(ctx context.Context) (int, error) {
	existing, err := r.articles.ListAll(ctx)
	if err != nil {
		metrics.SeedOutcomes.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		metrics.SeedOutcomes.WithLabelValues("skipped").Inc()
		return 0, nil
	}

	seed, err := SeedArticles(r.opts.now())
	if err != nil {
		return 0, err
	}
	for i, a := range seed {
		if err := r.articles.Upsert(ctx, a); err != nil {
			r.opts.logger.Warn("seed write failed, serving demo articles from memory",
				"id", a.ID, "written", i, "error", err)
			r.fallbackMu.Lock()
			r.fallback = seed
			r.fallbackMu.Unlock()
			metrics.SeedOutcomes.WithLabelValues("fallback").Inc()
			return i, nil
		}
	}
	r.opts.logger.Info("seeded demo articles", "count", len(seed))
	metrics.SeedOutcomes.WithLabelValues("seeded").Inc()
	return len(seed), nil
}
