package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

const (
	DefaultAuthor = "Ocean Journal"

	// excerptRunes is how much of the content a derived excerpt keeps.
	excerptRunes = 100
)

type Article struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Author     string   `json:"author"`
	CoverImage string   `json:"coverImage,omitempty"`
	Tags       []string `json:"tags"`
	// Status can be "draft" or "published"
	Status    Status    `json:"status"`
	Likes     int       `json:"likes"`
	LikedBy   []string  `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	extra map[string]json.RawMessage
}

// ArticleForm is the editor payload for a new article.
type ArticleForm struct {
	Title      string   `json:"title" validate:"required,max=300"`
	Content    string   `json:"content" validate:"required"`
	Excerpt    string   `json:"excerpt" validate:"max=1000"`
	Author     string   `json:"author" validate:"max=200"`
	CoverImage string   `json:"coverImage" validate:"omitempty,url"`
	Tags       []string `json:"tags" validate:"max=20,dive,max=50"`
	Status     Status   `json:"status" validate:"omitempty,oneof=draft published"`
}

// ArticlePatch carries the fields of a partial update; nil means unchanged.
type ArticlePatch struct {
	Title      *string   `json:"title" validate:"omitempty,min=1,max=300"`
	Content    *string   `json:"content" validate:"omitempty,min=1"`
	Excerpt    *string   `json:"excerpt" validate:"omitempty,max=1000"`
	Author     *string   `json:"author" validate:"omitempty,max=200"`
	CoverImage *string   `json:"coverImage" validate:"omitempty,max=2048"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=20"`
	Status     *Status   `json:"status" validate:"omitempty,oneof=draft published"`
	LikedBy    *[]string `json:"likedBy"`
}

func (a Article) RecordID() string { return a.ID }

func (a Article) IsPublished() bool { return a.Status == StatusPublished }

// LikedByUser reports whether userID is in the like set.
func (a Article) LikedByUser(userID string) bool {
	for _, id := range a.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Summary returns the excerpt, or the start of the content when there is none.
func (a Article) Summary() string {
	if strings.TrimSpace(a.Excerpt) != "" {
		return a.Excerpt
	}
	runes := []rune(a.Content)
	if len(runes) <= excerptRunes {
		return a.Content
	}
	return string(runes[:excerptRunes]) + "..."
}

// Paragraphs splits the content on line breaks, dropping blank lines.
func (a Article) Paragraphs() []string {
	lines := strings.Split(strings.ReplaceAll(a.Content, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// Clone returns a deep copy so callers can mutate without touching shared slices.
func (a Article) Clone() Article {
	c := a
	c.Tags = append([]string(nil), a.Tags...)
	c.LikedBy = append([]string(nil), a.LikedBy...)
	c.extra = cloneExtra(a.extra)
	return c
}

func (a Article) MarshalJSON() ([]byte, error) {
	type plain Article
	p := plain(a)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	return marshalWithExtra(p, a.extra)
}

func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, articleFields)
	if err != nil {
		return err
	}
	*a = Article(p)
	a.extra = extra
	return nil
}

var articleFields = jsonFieldNames(Article{})
