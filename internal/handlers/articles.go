package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	appmiddleware "github.com/waynefred/ocean-journal/internal/middleware"
	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/pagination"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type ArticlesResponse struct {
	Data []ArticleCard `json:"data"`
	pagination.Meta
}

// ArticleCard is a listing entry: the article plus the summary shown on its card.
type ArticleCard struct {
	Article models.Article
}

func (c ArticleCard) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(c.Article)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	summary, err := json.Marshal(c.Article.Summary())
	if err != nil {
		return nil, err
	}
	fields["summary"] = summary
	return json.Marshal(fields)
}

func newArticleCards(articles []models.Article) []ArticleCard {
	cards := make([]ArticleCard, len(articles))
	for i, a := range articles {
		cards[i] = ArticleCard{Article: a}
	}
	return cards
}

type ArticleDetailResponse struct {
	Article    models.Article   `json:"article"`
	Paragraphs []string         `json:"paragraphs"`
	Comments   []models.Comment `json:"comments"`
}

func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	page := parsePositiveInt(r.URL.Query().Get("page"), 1)
	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	result, err := h.Articles.ListPublished(r.Context(), page, limit)
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to load articles")
		return
	}
	respondJSON(w, http.StatusOK, ArticlesResponse{
		Data: newArticleCards(result.Items),
		Meta: pagination.NewMeta(page, limit, result.TotalCount),
	})
}

// GetArticle loads the article and its comments together. Drafts are only
// visible to admins.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		article  models.Article
		comments []models.Comment
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		a, err := h.Articles.GetByID(ctx, id)
		article = a
		return err
	})
	g.Go(func() error {
		c, err := h.Comments.ListForArticle(ctx, id)
		comments = c
		return err
	})
	if err := g.Wait(); err != nil {
		respondFailure(w, h.Logger, err, "failed to load article")
		return
	}

	if !article.IsPublished() && !appmiddleware.HasAdminToken(h.JWTSecret, r) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, ArticleDetailResponse{
		Article:    article,
		Paragraphs: article.Paragraphs(),
		Comments:   comments,
	})
}

// ToggleLike flips the like of the caller's browser identity.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, err := h.provider(w, r).UserID()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session error")
		return
	}
	article, err := h.Articles.ToggleLike(r.Context(), id, userID)
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to toggle like")
		return
	}
	respondJSON(w, http.StatusOK, article)
}
