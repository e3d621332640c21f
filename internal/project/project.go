// Package project stores TillerPro projects: named groups of saved
// calculations with notes, a running total area and app settings.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tillerstead/admin/internal/storage"
)

// DataFile is the app data file name under the data directory
const DataFile = "tillerstead_app_data.json"

// DefaultName is used when a project is created without a name
const DefaultName = "New Project"

var (
	ErrNotFound           = errors.New("project not found")
	ErrInvalidImport      = errors.New("invalid import file")
	ErrInvalidCalculation = errors.New("invalid calculation")
)

// Calculation is one saved calculator run
type Calculation struct {
	Inputs  json.RawMessage `json:"inputs"`
	Results json.RawMessage `json:"results"`
	SavedAt time.Time       `json:"savedAt"`
}

// Room is a named measured space within a project
type Room struct {
	Name     string  `json:"name"`
	LengthFt float64 `json:"lengthFt"`
	WidthFt  float64 `json:"widthFt"`
}

// Project groups calculations by calculator id
type Project struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
	Calculations map[string]Calculation `json:"calculations"`
	Notes        string                 `json:"notes"`
	TotalArea    float64                `json:"totalArea"`
	Rooms        []Room                 `json:"rooms"`
}

func (p Project) clone() Project {
	calcs := make(map[string]Calculation, len(p.Calculations))
	for k, v := range p.Calculations {
		calcs[k] = v
	}
	p.Calculations = calcs
	p.Rooms = append([]Room{}, p.Rooms...)
	return p
}

// Settings are the app preferences saved alongside projects
type Settings struct {
	AutoSave      bool   `json:"autoSave"`
	Notifications bool   `json:"notifications"`
	DarkMode      bool   `json:"darkMode"`
	Units         string `json:"units"`
}

// DefaultSettings returns the preferences of a fresh install
func DefaultSettings() Settings {
	return Settings{AutoSave: true, Notifications: true, DarkMode: true, Units: "imperial"}
}

// AppData is the persisted document
type AppData struct {
	Projects []Project `json:"projects"`
	Settings Settings  `json:"settings"`
	Version  string    `json:"version"`
}

// Update holds the fields a caller may change; nil leaves a field alone
type Update struct {
	Name      *string  `json:"name"`
	Notes     *string  `json:"notes"`
	TotalArea *float64 `json:"totalArea"`
	Rooms     []Room   `json:"rooms"`
}

// Store keeps AppData in memory and rewrites the file on every change
type Store struct {
	path    string
	version string
	now     func() time.Time
	newID   func() string

	mu   sync.Mutex
	data AppData
}

// Open loads path, or starts empty when the file does not exist yet
func Open(path, version string) (*Store, error) {
	s := &Store{
		path:    path,
		version: version,
		now:     time.Now,
		newID:   func() string { return "proj_" + uuid.NewString() },
		data:    AppData{Projects: []Project{}, Settings: DefaultSettings(), Version: version},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	// stored settings are merged over the defaults
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.data.Projects == nil {
		s.data.Projects = []Project{}
	}
	for i := range s.data.Projects {
		s.data.Projects[i] = normalize(s.data.Projects[i])
	}
	s.data.Version = version
	return s, nil
}

func normalize(p Project) Project {
	if p.Calculations == nil {
		p.Calculations = map[string]Calculation{}
	}
	if p.Rooms == nil {
		p.Rooms = []Room{}
	}
	for id, c := range p.Calculations {
		c.Inputs = compactJSON(c.Inputs)
		c.Results = compactJSON(c.Results)
		p.Calculations[id] = c
	}
	return p
}

// compactJSON strips insignificant whitespace so a saved calculation
// compares equal after an export and import
func compactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// commit persists next and makes it current; on error nothing changes
func (s *Store) commit(next AppData) error {
	raw, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(s.path, raw); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *Store) index(id string) int {
	for i, p := range s.data.Projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// withProjects copies the current data with a new project slice
func (s *Store) withProjects(projects []Project) AppData {
	next := s.data
	next.Projects = projects
	return next
}

// List returns every project, most recently created first
func (s *Store) List() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Project, len(s.data.Projects))
	for i, p := range s.data.Projects {
		out[i] = p.clone()
	}
	return out
}

// Create adds an empty project at the front of the list
func (s *Store) Create(name string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.create(name)
	if err := s.commit(s.withProjects(append([]Project{p}, s.data.Projects...))); err != nil {
		return nil, err
	}
	out := p.clone()
	return &out, nil
}

func (s *Store) create(name string) Project {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	now := s.now().UTC()
	return Project{
		ID:           s.newID(),
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
		Calculations: map[string]Calculation{},
		Rooms:        []Room{},
	}
}

// Get returns a copy of project id
func (s *Store) Get(id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	out := s.data.Projects[i].clone()
	return &out, nil
}

// Update applies u to project id and bumps its updatedAt
func (s *Store) Update(id string, u Update) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.modify(id, func(p *Project) {
		if u.Name != nil {
			if name := strings.TrimSpace(*u.Name); name != "" {
				p.Name = name
			}
		}
		if u.Notes != nil {
			p.Notes = *u.Notes
		}
		if u.TotalArea != nil && *u.TotalArea >= 0 {
			p.TotalArea = *u.TotalArea
		}
		if u.Rooms != nil {
			p.Rooms = append([]Room{}, u.Rooms...)
		}
	})
}

func (s *Store) modify(id string, fn func(p *Project)) (*Project, error) {
	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	projects := append([]Project{}, s.data.Projects...)
	p := projects[i].clone()
	fn(&p)
	p.UpdatedAt = s.now().UTC()
	projects[i] = p

	if err := s.commit(s.withProjects(projects)); err != nil {
		return nil, err
	}
	out := p.clone()
	return &out, nil
}

// Delete removes project id
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	projects := make([]Project, 0, len(s.data.Projects)-1)
	projects = append(projects, s.data.Projects[:i]...)
	projects = append(projects, s.data.Projects[i+1:]...)
	return s.commit(s.withProjects(projects))
}

// Duplicate copies project id under a new id with " (Copy)" appended
func (s *Store) Duplicate(id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	now := s.now().UTC()
	cp := s.data.Projects[i].clone()
	cp.ID = s.newID()
	cp.Name += " (Copy)"
	cp.CreatedAt = now
	cp.UpdatedAt = now

	if err := s.commit(s.withProjects(append([]Project{cp}, s.data.Projects...))); err != nil {
		return nil, err
	}
	out := cp.clone()
	return &out, nil
}

// Recent returns up to limit projects ordered by updatedAt, newest first
func (s *Store) Recent(limit int) []Project {
	if limit <= 0 {
		limit = 5
	}
	all := s.List()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SaveCalculation stores a calculator run on projectID, replacing any
// earlier run of the same calculator. An empty projectID creates a new
// project first. Saving a tile calculation sets the project's total area.
func (s *Store) SaveCalculation(projectID, calcID string, inputs, results json.RawMessage) (*Project, error) {
	if calcID == "" {
		return nil, fmt.Errorf("%w: calculator id is required", ErrInvalidCalculation)
	}
	for _, raw := range []json.RawMessage{inputs, results} {
		if len(raw) > 0 && !json.Valid(raw) {
			return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidCalculation, calcID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.Projects
	if projectID == "" {
		p := s.create(DefaultName)
		s.data.Projects = append([]Project{p}, s.data.Projects...)
		projectID = p.ID
	}

	calc := Calculation{Inputs: compactJSON(inputs), Results: compactJSON(results), SavedAt: s.now().UTC()}
	out, err := s.modify(projectID, func(p *Project) {
		p.Calculations[calcID] = calc
		if calcID == "tile" {
			if area, ok := inputArea(inputs); ok {
				p.TotalArea = area
			}
		}
	})
	if err != nil {
		s.data.Projects = prev
		return nil, err
	}
	return out, nil
}

// inputArea reads "area" from calculator inputs, as a number or a numeric string
func inputArea(inputs json.RawMessage) (float64, bool) {
	var in struct {
		Area any `json:"area"`
	}
	if err := json.Unmarshal(inputs, &in); err != nil {
		return 0, false
	}
	switch v := in.Area.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, true
		}
		return f, true
	}
	return 0, false
}

// Settings returns the saved preferences
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Settings
}

// UpdateSettings replaces the saved preferences
func (s *Store) UpdateSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data
	next.Settings = settings
	return s.commit(next)
}

// Clear deletes every project and resets settings
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(AppData{Projects: []Project{}, Settings: DefaultSettings(), Version: s.version})
}
