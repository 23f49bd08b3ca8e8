package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/upload"
)

const maxUploadBytes = 10 << 20

type ExcerptRequest struct {
	Content string `json:"content" validate:"required"`
}

type ExcerptResponse struct {
	Excerpt string `json:"excerpt"`
}

type ImproveRequest struct {
	Text string `json:"text" validate:"required"`
}

type ImproveResponse struct {
	Text string `json:"text"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

func (h *Handler) AdminListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Articles.ListAll(r.Context())
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to load articles")
		return
	}
	respondJSON(w, http.StatusOK, articles)
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var form models.ArticleForm
	if err := decodeJSON(w, r, &form); err != nil {
		respondFailure(w, h.Logger, err, "failed to create article")
		return
	}
	created, err := h.Articles.Create(r.Context(), form)
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to create article")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var patch models.ArticlePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondFailure(w, h.Logger, err, "failed to update article")
		return
	}
	updated, err := h.Articles.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to update article")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteArticle removes the article only; its comments are kept.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.Articles.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondFailure(w, h.Logger, err, "failed to delete article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.Comments.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondFailure(w, h.Logger, err, "failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SuggestExcerpt always answers 200; an empty excerpt means no suggestion.
func (h *Handler) SuggestExcerpt(w http.ResponseWriter, r *http.Request) {
	var req ExcerptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFailure(w, h.Logger, err, "failed to suggest excerpt")
		return
	}
	excerpt := ""
	if h.Assist != nil {
		excerpt = h.Assist.Excerpt(r.Context(), req.Content)
	}
	respondJSON(w, http.StatusOK, ExcerptResponse{Excerpt: excerpt})
}

func (h *Handler) ImproveWriting(w http.ResponseWriter, r *http.Request) {
	var req ImproveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFailure(w, h.Logger, err, "failed to improve text")
		return
	}
	text := req.Text
	if h.Assist != nil {
		text = h.Assist.ImproveWriting(r.Context(), req.Text)
	}
	respondJSON(w, http.StatusOK, ImproveResponse{Text: text})
}

// UploadImage stores the multipart "file" field and returns its public URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	url, err := h.Uploader.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		if errors.Is(err, upload.ErrDisabled) {
			respondError(w, http.StatusServiceUnavailable, "image upload disabled")
			return
		}
		h.Logger.Error("image upload failed", "filename", header.Filename, "error", err)
		respondError(w, http.StatusBadGateway, "upload failed")
		return
	}
	respondJSON(w, http.StatusCreated, UploadResponse{URL: url})
}
