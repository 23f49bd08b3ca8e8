package models

import (
	"encoding/json"
	"time"
)

type Comment struct {
	ID             string    `json:"id"`
	ArticleID      string    `json:"articleId"`
	CommenterName  string    `json:"commenterName"`
	CommenterEmail string    `json:"commenterEmail"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`

	extra map[string]json.RawMessage
}

type CommentForm struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Content string `json:"content" validate:"required,max=5000"`
}

func (c Comment) RecordID() string { return c.ID }

func (c Comment) MarshalJSON() ([]byte, error) {
	type plain Comment
	return marshalWithExtra(plain(c), c.extra)
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, commentFields)
	if err != nil {
		return err
	}
	*c = Comment(p)
	c.extra = extra
	return nil
}

var commentFields = jsonFieldNames(Comment{})
