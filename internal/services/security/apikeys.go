package security

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/storage"
)

// KeyPrefix marks raw API keys issued by this server
const KeyPrefix = "ts_"

var (
	ErrKeyNotFound  = errors.New("api key not found")
	ErrAmbiguousKey = errors.New("api key prefix matches more than one key")
	ErrKeyName      = errors.New("api key name is required")
)

// APIKeyManager issues and validates API keys. Only key hashes are stored.
type APIKeyManager struct {
	store  storage.APIKeyStore
	pepper []byte
	log    *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	keys map[string]*models.APIKey
}

// NewAPIKeyManager loads existing keys from store. A non-empty pepper
// switches hashing from SHA-256 to HMAC-SHA256.
func NewAPIKeyManager(ctx context.Context, store storage.APIKeyStore, pepper string, log *zap.Logger) (*APIKeyManager, error) {
	m := &APIKeyManager{
		store: store,
		log:   log,
		now:   time.Now,
		keys:  make(map[string]*models.APIKey),
	}
	if pepper != "" {
		m.pepper = []byte(pepper)
	}

	keys, err := store.LoadKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load api keys: %w", err)
	}
	for _, k := range keys {
		m.keys[k.Hash] = k
	}

	return m, nil
}

// GenerateKey creates a key and returns the raw value. It is never stored
// and cannot be recovered after this call.
func (m *APIKeyManager) GenerateKey(ctx context.Context, name string, permissions []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrKeyName
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	raw := KeyPrefix + hex.EncodeToString(b)

	if permissions == nil {
		permissions = []string{}
	}
	rec := &models.APIKey{
		Hash:        m.hash(raw),
		Name:        name,
		Permissions: append([]string(nil), permissions...),
		Created:     m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveKey(ctx, rec); err != nil {
		return "", fmt.Errorf("save api key: %w", err)
	}
	m.keys[rec.Hash] = rec

	return raw, nil
}

// ValidateKey looks up a raw key and records its use. It returns nil, nil
// for a key that was never issued.
func (m *APIKeyManager) ValidateKey(ctx context.Context, raw string) (*models.APIKey, error) {
	if raw == "" {
		return nil, nil
	}
	h := m.hash(raw)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.keys[h]
	if !ok {
		return nil, nil
	}

	now := m.now().UTC()
	rec.LastUsed = &now
	rec.UsageCount++

	// Usage stats are best-effort
	if err := m.store.SaveKey(ctx, rec); err != nil {
		m.log.Warn("failed to persist api key usage", zap.String("name", rec.Name), zap.Error(err))
	}

	out := *rec
	out.Permissions = append([]string(nil), rec.Permissions...)
	return &out, nil
}

// RevokeKey deletes a key given the raw key, its full hash, or a unique
// hash prefix of at least 16 characters as shown by ListKeys.
func (m *APIKeyManager) RevokeKey(ctx context.Context, rawOrHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.resolveLocked(rawOrHash)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := m.store.DeleteKey(ctx, h); err != nil {
		return false, fmt.Errorf("delete api key: %w", err)
	}
	delete(m.keys, h)
	return true, nil
}

// ListKeys returns all keys with truncated hashes, oldest first
func (m *APIKeyManager) ListKeys() []models.APIKey {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.APIKey, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, k.Masked())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Count returns the number of active keys
func (m *APIKeyManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (m *APIKeyManager) resolveLocked(rawOrHash string) (string, error) {
	if strings.HasPrefix(rawOrHash, KeyPrefix) {
		h := m.hash(rawOrHash)
		if _, ok := m.keys[h]; ok {
			return h, nil
		}
		return "", ErrKeyNotFound
	}

	prefix := strings.TrimSuffix(rawOrHash, "...")
	if _, ok := m.keys[prefix]; ok {
		return prefix, nil
	}
	if len(prefix) < 16 {
		return "", ErrKeyNotFound
	}

	match := ""
	for h := range m.keys {
		if strings.HasPrefix(h, prefix) {
			if match != "" {
				return "", ErrAmbiguousKey
			}
			match = h
		}
	}
	if match == "" {
		return "", ErrKeyNotFound
	}
	return match, nil
}

func (m *APIKeyManager) hash(raw string) string {
	if m.pepper != nil {
		mac := hmac.New(sha256.New, m.pepper)
		mac.Write([]byte(raw))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
