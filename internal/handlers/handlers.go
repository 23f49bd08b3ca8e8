// Package handlers serves the JSON API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/waynefred/ocean-journal/internal/identity"
	"github.com/waynefred/ocean-journal/internal/metrics"
	appmiddleware "github.com/waynefred/ocean-journal/internal/middleware"
	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/upload"
)

type ArticleService interface {
	ListPublished(ctx context.Context, page, pageSize int) (models.Page[models.Article], error)
	ListAll(ctx context.Context) ([]models.Article, error)
	GetByID(ctx context.Context, id string) (models.Article, error)
	Create(ctx context.Context, form models.ArticleForm) (models.Article, error)
	Update(ctx context.Context, id string, patch models.ArticlePatch) (models.Article, error)
	Remove(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id, userID string) (models.Article, error)
}

type CommentService interface {
	ListForArticle(ctx context.Context, articleID string) ([]models.Comment, error)
	Add(ctx context.Context, articleID, name, email, content string) (models.Comment, error)
	Remove(ctx context.Context, id string) error
}

type Assistant interface {
	Excerpt(ctx context.Context, content string) string
	ImproveWriting(ctx context.Context, text string) string
}

type Deps struct {
	Articles ArticleService
	Comments CommentService
	Assist   Assistant
	Uploader upload.Uploader

	AdminPassword      string
	JWTSecret          []byte
	SecureCookies      bool
	CorsAllowedOrigins []string

	Logger *slog.Logger
}

type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Uploader == nil {
		deps.Uploader = upload.Disabled{}
	}
	return &Handler{Deps: deps}
}

// corsOptions only allows credentialed requests when every origin is named.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: len(origins) > 0 && !slices.Contains(origins, "*"),
		MaxAge:           300,
	}
}

// Routes builds the full router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.New(corsOptions(h.CorsAllowedOrigins)).Handler)

	r.Get("/health", Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// 5 login attempts per minute per IP
		loginRateLimiter := appmiddleware.NewRateLimiter(5, time.Minute)
		r.With(loginRateLimiter.Limit).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)

		publicLimiter := appmiddleware.NewRateLimiter(60, time.Minute)
		r.With(publicLimiter.Limit).Get("/articles", h.ListPublished)
		r.Get("/articles/{id}", h.GetArticle)
		r.With(publicLimiter.Limit).Post("/articles/{id}/like", h.ToggleLike)
		r.Get("/articles/{id}/comments", h.ListComments)
		r.With(publicLimiter.Limit).Post("/articles/{id}/comments", h.AddComment)

		r.Route("/admin", func(r chi.Router) {
			r.Use(appmiddleware.AdminAuth(h.JWTSecret))
			r.Get("/articles", h.AdminListArticles)
			r.Post("/articles", h.CreateArticle)
			r.Patch("/articles/{id}", h.UpdateArticle)
			r.Delete("/articles/{id}", h.DeleteArticle)
			r.Delete("/comments/{id}", h.DeleteComment)
			r.Post("/excerpt", h.SuggestExcerpt)
			r.Post("/improve", h.ImproveWriting)
			r.Post("/uploads", h.UploadImage)
		})
	})
	return r
}

func Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// provider returns the caller's identity backed by request cookies.
func (h *Handler) provider(w http.ResponseWriter, r *http.Request) *identity.Provider {
	return identity.NewProvider(identity.NewCookieStorage(w, r, h.SecureCookies))
}
