// Package identity issues the stable per-browser user id and keeps the admin flag.
//
// Neither value is a security boundary: the admin flag only gates UI, and the
// user id only de-duplicates likes.
package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/waynefred/ocean-journal/internal/models"
)

const (
	// Namespace prefixes every stored key.
	Namespace = "oceanJournal."

	UserIDKey  = Namespace + "userId"
	IsAdminKey = Namespace + "isAdmin"

	UserIDPrefix = "user_"
	userIDLength = 9
	alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Storage is durable per-browser storage for scalar values.
type Storage interface {
	Value(key string) (string, bool, error)
	SetValue(key, value string) error
	DeleteValue(key string) error
}

type Provider struct {
	storage Storage
}

func NewProvider(storage Storage) *Provider {
	return &Provider{storage: storage}
}

// UserID returns the stored id, generating and persisting one on first use.
func (p *Provider) UserID() (string, error) {
	id, ok, err := p.storage.Value(UserIDKey)
	if err != nil {
		return "", fmt.Errorf("read user id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}
	id, err = NewUserID()
	if err != nil {
		return "", err
	}
	if err := p.storage.SetValue(UserIDKey, id); err != nil {
		return "", fmt.Errorf("store user id: %w", err)
	}
	return id, nil
}

func (p *Provider) IsAdmin() (bool, error) {
	v, ok, err := p.storage.Value(IsAdminKey)
	if err != nil {
		return false, fmt.Errorf("read admin flag: %w", err)
	}
	return ok && v == "true", nil
}

func (p *Provider) SetAdmin(admin bool) error {
	if !admin {
		return p.storage.DeleteValue(IsAdminKey)
	}
	return p.storage.SetValue(IsAdminKey, "true")
}

// Session snapshots both values, issuing a user id if needed.
func (p *Provider) Session() (models.Session, error) {
	id, err := p.UserID()
	if err != nil {
		return models.Session{}, err
	}
	admin, err := p.IsAdmin()
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{IsAdmin: admin, UserID: id}, nil
}

// NewUserID returns "user_" plus nine random base-36 characters.
func NewUserID() (string, error) {
	buf := make([]byte, userIDLength)
	base := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("generate user id: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return UserIDPrefix + string(buf), nil
}

// MemoryStorage keeps values in a map; used by tests and one-shot tools.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Value(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetValue(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) DeleteValue(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
