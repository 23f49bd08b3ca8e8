package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces every key this application writes.
const keyPrefix = "oceanjournal/"

type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	InMemory   bool
	SyncWrites bool

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64

	Logger *slog.Logger
}

func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog to badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

var errNeedSequence = errors.New("record needs a sequence number")

// envelope is the stored value: the record plus its insertion sequence.
type envelope struct {
	Seq uint64          `json:"seq"`
	Doc json.RawMessage `json:"doc"`
}

// BadgerBackend keeps one key per record, so every mutation is a single
// transaction and never rewrites the rest of the collection.
type BadgerBackend struct {
	db     *badger.DB
	logger *slog.Logger

	mu   sync.Mutex
	seqs map[string]*badger.Sequence

	stopGC chan struct{}
	gcDone chan struct{}
}

func OpenBadger(cfg BadgerConfig) (*BadgerBackend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	b := &BadgerBackend{
		db:     db,
		logger: logger,
		seqs:   make(map[string]*badger.Sequence),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		b.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return b, nil
}

func (b *BadgerBackend) Close() error {
	if b.stopGC != nil {
		close(b.stopGC)
		<-b.gcDone
	}
	b.mu.Lock()
	for name, seq := range b.seqs {
		if err := seq.Release(); err != nil {
			b.logger.Warn("release badger sequence", "collection", name, "error", err)
		}
	}
	b.seqs = map[string]*badger.Sequence{}
	b.mu.Unlock()
	return b.db.Close()
}

func recordPrefix(collection string) []byte {
	return []byte(keyPrefix + collection + "/rec/")
}

func recordKey(collection, id string) []byte {
	return append(recordPrefix(collection), id...)
}

func (b *BadgerBackend) sequence(collection string) (*badger.Sequence, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq, ok := b.seqs[collection]; ok {
		return seq, nil
	}
	seq, err := b.db.GetSequence([]byte(keyPrefix+collection+"/seq"), 64)
	if err != nil {
		return nil, err
	}
	b.seqs[collection] = seq
	return seq, nil
}

func (b *BadgerBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var envs []envelope
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := recordPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var env envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return err
			}
			envs = append(envs, env)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("list "+collection, err)
	}

	sort.Slice(envs, func(i, j int) bool { return envs[i].Seq < envs[j].Seq })
	docs := make([][]byte, len(envs))
	for i, env := range envs {
		docs[i] = env.Doc
	}
	return docs, nil
}

func (b *BadgerBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var env envelope
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(collection, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get "+collection+"/"+id, err)
	}
	return env.Doc, nil
}

func (b *BadgerBackend) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := recordKey(collection, id)
	var (
		next    uint64
		haveSeq bool
	)
	write := func(txn *badger.Txn) error {
		env := envelope{Doc: doc}
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var prev envelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			}); err != nil {
				return err
			}
			env.Seq = prev.Seq
		case errors.Is(err, badger.ErrKeyNotFound):
			if !haveSeq {
				return errNeedSequence
			}
			env.Seq = next
		default:
			return err
		}
		val, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	}

	err := b.db.Update(write)
	if errors.Is(err, errNeedSequence) {
		// Leasing a sequence number writes to badger, so it happens outside the record transaction.
		seq, serr := b.sequence(collection)
		if serr != nil {
			return unavailable("sequence "+collection, serr)
		}
		if next, err = seq.Next(); err != nil {
			return unavailable("sequence "+collection, err)
		}
		haveSeq = true
		err = b.db.Update(write)
	}
	if err != nil {
		return unavailable("put "+collection+"/"+id, err)
	}
	return nil
}

func (b *BadgerBackend) Delete(ctx context.Context, collection, id string) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		key := recordKey(collection, id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("delete "+collection+"/"+id, err)
	}
	return nil
}

func (b *BadgerBackend) startGC(interval time.Duration, ratio float64) {
	b.stopGC = make(chan struct{})
	b.gcDone = make(chan struct{})
	go func() {
		defer close(b.gcDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stopGC:
				return
			case <-ticker.C:
				// ErrNoRewrite only means there was nothing to collect.
				if err := b.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					b.logger.Warn("badger value log GC error", "error", err)
				}
			}
		}
	}()
}
