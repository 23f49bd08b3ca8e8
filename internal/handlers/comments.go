package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waynefred/ocean-journal/internal/models"
)

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Comments.ListForArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to load comments")
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// AddComment validates the form and stores the comment. The article must
// exist and be published.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")
	var form models.CommentForm
	if err := decodeJSON(w, r, &form); err != nil {
		respondFailure(w, h.Logger, err, "failed to add comment")
		return
	}

	article, err := h.Articles.GetByID(r.Context(), articleID)
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to add comment")
		return
	}
	if !article.IsPublished() {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	comment, err := h.Comments.Add(r.Context(), articleID, form.Name, form.Email, form.Content)
	if err != nil {
		respondFailure(w, h.Logger, err, "failed to add comment")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}
