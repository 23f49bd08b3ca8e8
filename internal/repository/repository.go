// Package repository holds the article and comment data-access facades.
package repository

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/waynefred/ocean-journal/internal/store"
)

var (
	ErrNotFound    = store.ErrNotFound
	ErrUnavailable = store.ErrUnavailable

	// ErrInvalidPage is returned for a page or page size below 1.
	ErrInvalidPage = errors.New("invalid page")
)

type options struct {
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type Option func(*options)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDs replaces the uuid generator for new records.
func WithIDs(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
