package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/store"
)

type CommentRepository struct {
	comments store.Collection[models.Comment]
	opts     options
}

func NewCommentRepository(comments store.Collection[models.Comment], opts ...Option) *CommentRepository {
	return &CommentRepository{comments: comments, opts: buildOptions(opts)}
}

// ListForArticle returns the article's comments, newest first. The article
// itself is not checked, so comments of a removed article are still listed.
func (r *CommentRepository) ListForArticle(ctx context.Context, articleID string) ([]models.Comment, error) {
	all, err := r.comments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]models.Comment, 0)
	for _, c := range all {
		if c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	// Reverse first so equal timestamps come out latest-inserted first.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b models.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// Add stores a new comment. Inputs are not validated here.
func (r *CommentRepository) Add(ctx context.Context, articleID, name, email, content string) (models.Comment, error) {
	c := models.Comment{
		ID:             r.opts.newID(),
		ArticleID:      articleID,
		CommenterName:  name,
		CommenterEmail: email,
		Content:        content,
		CreatedAt:      r.opts.now().UTC(),
	}
	if err := r.comments.Upsert(ctx, c); err != nil {
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	r.opts.logger.Debug("comment added", "id", c.ID, "article", articleID)
	return c, nil
}

// Remove deletes a comment by id. Callers gate who may do this.
func (r *CommentRepository) Remove(ctx context.Context, id string) error {
	if err := r.comments.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("remove comment %s: %w", id, err)
	}
	r.opts.logger.Info("comment removed", "id", id)
	return nil
}
