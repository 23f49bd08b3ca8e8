package models

// Session is the per-browser identity handed to operations that need it.
type Session struct {
	IsAdmin bool   `json:"isAdmin"`
	UserID  string `json:"userId"`
}

// Page is one window of a listing plus the size of the full result.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}
