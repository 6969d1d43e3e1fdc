package character

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// file is the on-disk YAML shape of a character definition.
type file struct {
	Name           string                    `yaml:"name"`
	Title          string                    `yaml:"title"`
	StartingYear   *int                      `yaml:"starting_year"`
	InitialCapital *int                      `yaml:"initial_capital"`
	KeyPrinciples  []string                  `yaml:"key_principles"`
	Decisions      map[string]Decision       `yaml:"decisions"`
	Analysis       map[Tier]AnalysisTemplate `yaml:"analysis_templates"`
}

// Store holds the loaded character table. Reload swaps the whole table
// atomically; readers never observe a partially replaced table.
type Store struct {
	dir string

	mu    sync.RWMutex
	table map[string]*Character
}

// NewStore creates a Store reading definitions from dir. Call Reload to
// populate it.
func NewStore(dir string) *Store {
	return &Store{dir: dir, table: make(map[string]*Character)}
}

// LoadDir creates a Store for dir and performs the initial load. A missing
// directory on first load yields an empty store, not an error.
func LoadDir(dir string) (*Store, error) {
	s := NewStore(dir)
	if _, err := s.Reload(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("dir", dir).Msg("Characters directory not found, starting empty")
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Reload re-scans the directory and replaces the character table. Files
// that fail to parse or validate are logged and skipped; they never poison
// the rest of the load. Returns the number of characters loaded. If the
// directory itself is unreadable the previous table is kept.
func (s *Store) Reload() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read characters dir: %w", err)
	}

	table := make(map[string]*Character)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ext)
		c, err := loadFile(id, filepath.Join(s.dir, entry.Name()))
		if err != nil {
			log.Error().Err(err).Str("character", id).Msg("Skipping invalid character file")
			continue
		}
		table[id] = c
		log.Info().Str("character", id).Str("name", c.Name).Msg("Loaded character")
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()

	log.Info().Int("count", len(table)).Str("dir", s.dir).Msg("Character table loaded")
	return len(table), nil
}

// Get returns a character by exact ID, or nil.
func (s *Store) Get(id string) *Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table[id]
}

// List returns summaries of all characters, sorted by ID.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.table))
	for _, c := range s.table {
		out = append(out, c.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded characters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// LoadFile parses and validates a single character file. The character ID
// is derived from the file name.
func LoadFile(path string) (*Character, error) {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	return loadFile(id, path)
}

func loadFile(id, path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := validate(id, &f); err != nil {
		return nil, err
	}

	c := &Character{
		ID:             id,
		Name:           f.Name,
		Title:          f.Title,
		StartingYear:   *f.StartingYear,
		InitialCapital: *f.InitialCapital,
		KeyPrinciples:  f.KeyPrinciples,
		Decisions:      orderDecisions(f.Decisions),
		Analysis:       f.Analysis,
	}
	if c.Analysis == nil {
		c.Analysis = map[Tier]AnalysisTemplate{}
	}
	return c, nil
}

// validate enforces the structural rules a definition must meet before it
// is accepted. Missing analysis templates only warn.
func validate(id string, f *file) error {
	switch {
	case f.Name == "":
		return fmt.Errorf("character %s: missing required field: name", id)
	case f.Title == "":
		return fmt.Errorf("character %s: missing required field: title", id)
	case f.StartingYear == nil:
		return fmt.Errorf("character %s: missing required field: starting_year", id)
	case f.InitialCapital == nil:
		return fmt.Errorf("character %s: missing required field: initial_capital", id)
	case len(f.KeyPrinciples) == 0:
		return fmt.Errorf("character %s: missing required field: key_principles", id)
	case len(f.Decisions) == 0:
		return fmt.Errorf("character %s: has no decisions", id)
	}

	for key, d := range f.Decisions {
		switch {
		case d.Year == 0:
			return fmt.Errorf("character %s, decision %s: missing required field: year", id, key)
		case d.Context == "":
			return fmt.Errorf("character %s, decision %s: missing required field: context", id, key)
		case d.Question == "":
			return fmt.Errorf("character %s, decision %s: missing required field: question", id, key)
		case len(d.Choices) == 0:
			return fmt.Errorf("character %s, decision %s: has no choices", id, key)
		case d.CorrectChoice == "":
			return fmt.Errorf("character %s, decision %s: missing required field: correct_choice", id, key)
		}
		if _, ok := d.Choices[d.CorrectChoice]; !ok {
			return fmt.Errorf("character %s, decision %s: correct_choice %q not among choices", id, key, d.CorrectChoice)
		}
	}

	if len(f.Analysis) == 0 {
		log.Warn().Str("character", id).Msg("Character has no analysis templates")
	}
	return nil
}
