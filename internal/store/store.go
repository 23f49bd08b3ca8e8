package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when the backing store cannot be read or written.
	ErrUnavailable = errors.New("store unavailable")
)

const (
	ArticlesCollection = "articles"
	CommentsCollection = "comments"
)

// collections is the fixed set of collection names a backend provisions.
var collections = []string{ArticlesCollection, CommentsCollection}

type Record interface {
	RecordID() string
}

// Collection is the per-collection persistence contract the repositories use.
type Collection[T Record] interface {
	ListAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Upsert(ctx context.Context, rec T) error
	DeleteByID(ctx context.Context, id string) error
}

// Backend stores raw JSON documents keyed by collection and id.
// List must return documents in first-insertion order; re-putting an
// existing id keeps its position.
type Backend interface {
	List(ctx context.Context, collection string) ([][]byte, error)
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Put(ctx context.Context, collection, id string, doc []byte) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

type jsonCollection[T Record] struct {
	backend Backend
	name    string
}

// NewCollection exposes one collection of a backend as typed records.
func NewCollection[T Record](backend Backend, name string) Collection[T] {
	return &jsonCollection[T]{backend: backend, name: name}
}

func (c *jsonCollection[T]) ListAll(ctx context.Context) ([]T, error) {
	docs, err := c.backend.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w: %w", c.name, ErrUnavailable, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *jsonCollection[T]) GetByID(ctx context.Context, id string) (T, error) {
	var rec T
	doc, err := c.backend.Get(ctx, c.name, id)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("decode %s/%s: %w: %w", c.name, id, ErrUnavailable, err)
	}
	return rec, nil
}

func (c *jsonCollection[T]) Upsert(ctx context.Context, rec T) error {
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("upsert %s: empty id", c.name)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.backend.Put(ctx, c.name, id, doc)
}

func (c *jsonCollection[T]) DeleteByID(ctx context.Context, id string) error {
	return c.backend.Delete(ctx, c.name, id)
}

func knownCollection(name string) error {
	for _, c := range collections {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("unknown collection %q", name)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
