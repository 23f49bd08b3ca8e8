package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/waynefred/ocean-journal/internal/models"
)

const (
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Options struct {
	Backend string

	// DataDir holds the badger and sqlite files.
	DataDir string
	// InMemory selects the in-memory variant of badger or sqlite.
	InMemory bool

	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	Logger *slog.Logger
}

// Stores is the opened backend plus its two typed collections.
type Stores struct {
	Backend  Backend
	Articles Collection[models.Article]
	Comments Collection[models.Comment]
}

// Open selects a backend by name; switching backends is configuration only.
func Open(ctx context.Context, opts Options) (*Stores, error) {
	var (
		backend Backend
		err     error
	)
	switch opts.Backend {
	case BackendBadger, "":
		cfg := DefaultBadgerConfig(filepath.Join(opts.DataDir, "badger"))
		if opts.InMemory {
			cfg = InMemoryBadgerConfig()
		}
		cfg.Logger = opts.Logger
		backend, err = OpenBadger(cfg)
	case BackendSQLite:
		dir := opts.DataDir
		if opts.InMemory {
			dir = ":memory:"
		}
		backend, err = OpenSQLite(dir)
	case BackendPostgres:
		backend, err = OpenPostgres(ctx, opts.DatabaseURL)
	case BackendMongo:
		backend, err = OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}
	return NewStores(backend), nil
}

func NewStores(backend Backend) *Stores {
	return &Stores{
		Backend:  backend,
		Articles: NewCollection[models.Article](backend, ArticlesCollection),
		Comments: NewCollection[models.Comment](backend, CommentsCollection),
	}
}

func (s *Stores) Close() error {
	return s.Backend.Close()
}
