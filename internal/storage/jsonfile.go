package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tillerstead/admin/internal/models"
)

// jsonMapFile is a JSON object on disk keyed by string. Every mutation
// rewrites the whole file through a temp file and rename; mu keeps a
// single writer per file.
type jsonMapFile[T any] struct {
	path string
	mu   sync.Mutex
}

func (f *jsonMapFile[T]) read() (map[string]T, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	m := map[string]T{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return m, nil
}

func (f *jsonMapFile[T]) write(m map[string]T) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(f.path, data)
}

// WriteFileAtomic writes data to a sibling temp file and renames it over
// path, creating the parent directory when needed
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// values returns the map contents ordered by key
func (f *jsonMapFile[T]) values() ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out, nil
}

func (f *jsonMapFile[T]) put(key string, v T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return err
	}
	m[key] = v
	return f.write(m)
}

func (f *jsonMapFile[T]) remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return f.write(m)
}

// FileUserStore keeps users in config/users.json
type FileUserStore struct {
	file jsonMapFile[*models.User]
}

// NewFileUserStore creates a user store backed by path
func NewFileUserStore(path string) *FileUserStore {
	return &FileUserStore{file: jsonMapFile[*models.User]{path: path}}
}

func (s *FileUserStore) LoadUsers(ctx context.Context) ([]*models.User, error) {
	return s.file.values()
}

func (s *FileUserStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.file.put(user.Username, user)
}

func (s *FileUserStore) DeleteUser(ctx context.Context, username string) error {
	return s.file.remove(username)
}

// FileAPIKeyStore keeps API keys in config/api-keys.json
type FileAPIKeyStore struct {
	file jsonMapFile[*models.APIKey]
}

// NewFileAPIKeyStore creates a key store backed by path
func NewFileAPIKeyStore(path string) *FileAPIKeyStore {
	return &FileAPIKeyStore{file: jsonMapFile[*models.APIKey]{path: path}}
}

func (s *FileAPIKeyStore) LoadKeys(ctx context.Context) ([]*models.APIKey, error) {
	return s.file.values()
}

func (s *FileAPIKeyStore) SaveKey(ctx context.Context, key *models.APIKey) error {
	return s.file.put(key.Hash, key)
}

func (s *FileAPIKeyStore) DeleteKey(ctx context.Context, hash string) error {
	return s.file.remove(hash)
}

// FileTwoFactorStore keeps 2FA records in config/2fa.json
type FileTwoFactorStore struct {
	file jsonMapFile[*models.TwoFactorRecord]
}

// NewFileTwoFactorStore creates a 2FA store backed by path
func NewFileTwoFactorStore(path string) *FileTwoFactorStore {
	return &FileTwoFactorStore{file: jsonMapFile[*models.TwoFactorRecord]{path: path}}
}

func (s *FileTwoFactorStore) LoadTwoFactor(ctx context.Context) ([]*models.TwoFactorRecord, error) {
	return s.file.values()
}

func (s *FileTwoFactorStore) SaveTwoFactor(ctx context.Context, rec *models.TwoFactorRecord) error {
	return s.file.put(rec.Username, rec)
}

func (s *FileTwoFactorStore) DeleteTwoFactor(ctx context.Context, username string) error {
	return s.file.remove(username)
}
