package project

import (
	"encoding/json"
	"fmt"
	"time"
)

// Export is the downloadable backup document
type Export struct {
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	Projects   []Project `json:"projects"`
	Settings   Settings  `json:"settings"`
}

// Export serializes every project and the settings as indented JSON
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	doc := Export{
		ExportDate: s.now().UTC(),
		Version:    s.version,
		Projects:   s.data.Projects,
		Settings:   s.data.Settings,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return raw, nil
}

type importDoc struct {
	Projects []Project `json:"projects"`
	Settings *Settings `json:"settings"`
}

// Import replaces all projects with those in data, and the settings when
// the document carries them. It returns the number of projects imported.
func (s *Store) Import(data []byte) (int, error) {
	var doc importDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if doc.Projects == nil {
		return 0, ErrInvalidImport
	}
	for i := range doc.Projects {
		doc.Projects[i] = normalize(doc.Projects[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.withProjects(doc.Projects)
	if doc.Settings != nil {
		next.Settings = *doc.Settings
	}
	if err := s.commit(next); err != nil {
		return 0, err
	}
	return len(doc.Projects), nil
}
