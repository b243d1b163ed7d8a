package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

const (
	// DefinitionsFile holds the array of workspace definitions.
	DefinitionsFile = "workspaces.json"
	// ButtonsFile holds the per-workspace toolbar button configs.
	ButtonsFile = "workspace-buttons.json"
)

// ButtonConfigDocument is the on-disk shape of the button config store.
type ButtonConfigDocument struct {
	Configs     []types.WorkspaceButtonConfig `json:"configs"`
	LastUpdated time.Time                     `json:"last_updated"`
}

// Store reads and writes the workspace documents under one directory.
// Writes are atomic; a store-level mutex is held across every operation,
// including the full read-modify-write of the upsert and delete paths,
// so concurrent mutations never lose each other's updates.
type Store struct {
	dir string
	mu  sync.Mutex
	log *logging.Logger
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the directory the store persists into.
func (s *Store) Dir() string { return s.dir }

// LoadDefinitions reads all workspace definitions. A missing or malformed
// file yields an empty list, never an error.
func (s *Store) LoadDefinitions() ([]types.WorkspaceDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadDefinitionsLocked()
}

// SaveDefinitions writes all workspace definitions atomically.
func (s *Store) SaveDefinitions(defs []types.WorkspaceDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveDefinitionsLocked(defs)
}

// LoadButtonConfigs reads the button config document. A missing or
// malformed file yields an empty document.
func (s *Store) LoadButtonConfigs() (*ButtonConfigDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadButtonConfigsLocked()
}

// SaveButtonConfigs writes the button config document atomically, stamping
// LastUpdated.
func (s *Store) SaveButtonConfigs(doc *ButtonConfigDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveButtonConfigsLocked(doc)
}

// UpsertDefinition inserts or replaces one workspace definition by id.
func (s *Store) UpsertDefinition(def types.WorkspaceDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.loadDefinitionsLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range defs {
		if defs[i].ID == def.ID {
			defs[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		defs = append(defs, def)
	}
	return s.saveDefinitionsLocked(defs)
}

// DeleteDefinition removes a workspace definition and its button config.
// Deleting an unknown id is a no-op.
func (s *Store) DeleteDefinition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.loadDefinitionsLocked()
	if err != nil {
		return err
	}
	kept := defs[:0]
	for _, def := range defs {
		if def.ID != id {
			kept = append(kept, def)
		}
	}
	if err := s.saveDefinitionsLocked(kept); err != nil {
		return err
	}

	doc, err := s.loadButtonConfigsLocked()
	if err != nil {
		return err
	}
	keptCfg := doc.Configs[:0]
	for _, cfg := range doc.Configs {
		if cfg.WorkspaceID != id {
			keptCfg = append(keptCfg, cfg)
		}
	}
	doc.Configs = keptCfg
	return s.saveButtonConfigsLocked(doc)
}

// UpsertButtonConfig inserts or replaces one button config by workspace id.
func (s *Store) UpsertButtonConfig(cfg types.WorkspaceButtonConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadButtonConfigsLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range doc.Configs {
		if doc.Configs[i].WorkspaceID == cfg.WorkspaceID {
			doc.Configs[i] = cfg
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Configs = append(doc.Configs, cfg)
	}
	return s.saveButtonConfigsLocked(doc)
}

func (s *Store) loadDefinitionsLocked() ([]types.WorkspaceDefinition, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, DefinitionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read workspace definitions: %w", err)
	}

	var defs []types.WorkspaceDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		s.log.Warn("malformed workspace definitions, using empty list", zap.Error(err))
		return nil, nil
	}
	return defs, nil
}

func (s *Store) saveDefinitionsLocked(defs []types.WorkspaceDefinition) error {
	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workspace definitions: %w", err)
	}
	return s.writeAtomic(DefinitionsFile, data)
}

func (s *Store) loadButtonConfigsLocked() (*ButtonConfigDocument, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ButtonsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &ButtonConfigDocument{}, nil
		}
		return nil, fmt.Errorf("failed to read button configs: %w", err)
	}

	var doc ButtonConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("malformed button configs, using defaults", zap.Error(err))
		return &ButtonConfigDocument{}, nil
	}
	return &doc, nil
}

func (s *Store) saveButtonConfigsLocked(doc *ButtonConfigDocument) error {
	doc.LastUpdated = time.Now()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode button configs: %w", err)
	}
	return s.writeAtomic(ButtonsFile, data)
}

// writeAtomic writes data to name via a temp file in the same directory
// followed by a rename. Must be called with s.mu held.
func (s *Store) writeAtomic(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
