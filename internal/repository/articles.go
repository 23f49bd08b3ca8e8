package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/waynefred/ocean-journal/internal/metrics"
	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/store"
)

type ArticleRepository struct {
	articles store.Collection[models.Article]
	locks    *keyLock
	opts     options

	// fallback holds the demo articles when seeding could not persist them.
	fallbackMu sync.RWMutex
	fallback   []models.Article
}

func NewArticleRepository(articles store.Collection[models.Article], opts ...Option) *ArticleRepository {
	return &ArticleRepository{
		articles: articles,
		locks:    newKeyLock(),
		opts:     buildOptions(opts),
	}
}

// ListPublished returns one 1-indexed page of published articles, newest first.
// A page past the end has no items but still reports the total.
func (r *ArticleRepository) ListPublished(ctx context.Context, page, pageSize int) (models.Page[models.Article], error) {
	if page < 1 || pageSize < 1 {
		return models.Page[models.Article]{}, fmt.Errorf("page %d size %d: %w", page, pageSize, ErrInvalidPage)
	}
	all, err := r.loadAll(ctx)
	if err != nil {
		return models.Page[models.Article]{}, err
	}

	published := make([]models.Article, 0, len(all))
	for _, a := range all {
		if a.IsPublished() {
			published = append(published, a)
		}
	}
	sortNewestFirst(published)

	out := models.Page[models.Article]{Items: []models.Article{}, TotalCount: len(published)}
	start := (page - 1) * pageSize
	if start >= len(published) {
		return out, nil
	}
	end := min(start+pageSize, len(published))
	out.Items = published[start:end]
	return out, nil
}

// ListAll returns every article regardless of status, newest first.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]models.Article, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(all)
	return all, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (models.Article, error) {
	a, err := r.articles.GetByID(ctx, id)
	if err == nil {
		return a, nil
	}
	if fb, ok := r.fallbackByID(id); ok {
		return fb, nil
	}
	return models.Article{}, err
}

func (r *ArticleRepository) Create(ctx context.Context, form models.ArticleForm) (models.Article, error) {
	now := r.opts.now().UTC()
	a := models.Article{
		ID:         r.opts.newID(),
		Title:      form.Title,
		Content:    form.Content,
		Excerpt:    form.Excerpt,
		Author:     form.Author,
		CoverImage: form.CoverImage,
		Tags:       slices.Clone(form.Tags),
		Status:     form.Status,
		Likes:      0,
		LikedBy:    []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if strings.TrimSpace(a.Author) == "" {
		a.Author = models.DefaultAuthor
	}
	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if err := r.articles.Upsert(ctx, a); err != nil {
		return models.Article{}, fmt.Errorf("create article: %w", err)
	}
	r.opts.logger.Info("article created", "id", a.ID, "status", a.Status)
	return a, nil
}

// Update merges the non-nil fields of patch into the stored article.
func (r *ArticleRepository) Update(ctx context.Context, id string, patch models.ArticlePatch) (models.Article, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	a, err := r.articles.GetByID(ctx, id)
	if err != nil {
		return models.Article{}, fmt.Errorf("update article %s: %w", id, err)
	}
	applyPatch(&a, patch)
	a.UpdatedAt = r.opts.now().UTC()
	if err := r.articles.Upsert(ctx, a); err != nil {
		return models.Article{}, fmt.Errorf("update article %s: %w", id, err)
	}
	return a, nil
}

// Remove deletes the article, including a demo article only held in memory
// after a failed seed. Its comments are left in place.
func (r *ArticleRepository) Remove(ctx context.Context, id string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	err := r.articles.DeleteByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("remove article %s: %w", id, err)
	}
	dropped := r.dropFallback(id)
	if err != nil && !dropped {
		return fmt.Errorf("remove article %s: %w", id, err)
	}
	r.opts.logger.Info("article removed", "id", id, "fallback", dropped)
	return nil
}

// ToggleLike flips userID's like on the article and persists the result.
// UpdatedAt is left alone. Nothing is written when the load or save fails.
func (r *ArticleRepository) ToggleLike(ctx context.Context, id, userID string) (models.Article, error) {
	if userID == "" {
		return models.Article{}, errors.New("toggle like: empty user id")
	}
	unlock := r.locks.Lock(id)
	defer unlock()

	a, err := r.articles.GetByID(ctx, id)
	if err != nil {
		metrics.LikeToggles.WithLabelValues("error").Inc()
		return models.Article{}, fmt.Errorf("toggle like %s: %w", id, err)
	}

	result := "liked"
	if idx := slices.Index(a.LikedBy, userID); idx >= 0 {
		a.LikedBy = slices.DeleteFunc(slices.Clone(a.LikedBy), func(u string) bool { return u == userID })
		a.Likes = max(a.Likes-1, 0)
		result = "unliked"
	} else {
		a.LikedBy = append(slices.Clone(a.LikedBy), userID)
		a.Likes++
	}
	if a.LikedBy == nil {
		a.LikedBy = []string{}
	}

	if err := r.articles.Upsert(ctx, a); err != nil {
		metrics.LikeToggles.WithLabelValues("error").Inc()
		return models.Article{}, fmt.Errorf("toggle like %s: %w", id, err)
	}
	metrics.LikeToggles.WithLabelValues(result).Inc()
	return a, nil
}

// loadAll reads the collection. After a failed seed, demo articles missing
// from the store are appended, and an unreadable store serves them alone.
func (r *ArticleRepository) loadAll(ctx context.Context) ([]models.Article, error) {
	all, err := r.articles.ListAll(ctx)
	fb := r.fallbackArticles()
	if fb == nil {
		if err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		return all, nil
	}
	if err != nil {
		r.opts.logger.Warn("article store unreadable, serving demo articles", "error", err)
		return fb, nil
	}
	stored := make(map[string]struct{}, len(all))
	for _, a := range all {
		stored[a.ID] = struct{}{}
	}
	for _, a := range fb {
		if _, ok := stored[a.ID]; !ok {
			all = append(all, a)
		}
	}
	return all, nil
}

func (r *ArticleRepository) fallbackArticles() []models.Article {
	r.fallbackMu.RLock()
	defer r.fallbackMu.RUnlock()
	if r.fallback == nil {
		return nil
	}
	out := make([]models.Article, len(r.fallback))
	for i, a := range r.fallback {
		out[i] = a.Clone()
	}
	return out
}

// dropFallback forgets the in-memory demo article id and reports whether it was held.
func (r *ArticleRepository) dropFallback(id string) bool {
	r.fallbackMu.Lock()
	defer r.fallbackMu.Unlock()
	for i, a := range r.fallback {
		if a.ID == id {
			r.fallback = slices.Delete(r.fallback, i, i+1)
			return true
		}
	}
	return false
}

func (r *ArticleRepository) fallbackByID(id string) (models.Article, bool) {
	r.fallbackMu.RLock()
	defer r.fallbackMu.RUnlock()
	for _, a := range r.fallback {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return models.Article{}, false
}

func applyPatch(a *models.Article, p models.ArticlePatch) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Excerpt != nil {
		a.Excerpt = *p.Excerpt
	}
	if p.Author != nil {
		a.Author = *p.Author
	}
	if p.CoverImage != nil {
		a.CoverImage = *p.CoverImage
	}
	if p.Tags != nil {
		a.Tags = slices.Clone(*p.Tags)
		if a.Tags == nil {
			a.Tags = []string{}
		}
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.LikedBy != nil {
		a.LikedBy = dedupe(*p.LikedBy)
		a.Likes = len(a.LikedBy)
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sortNewestFirst orders by CreatedAt descending, keeping storage order on ties.
func sortNewestFirst(articles []models.Article) {
	slices.SortStableFunc(articles, func(a, b models.Article) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
