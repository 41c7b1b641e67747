package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists plans as one JSON document per plan ID under a base
// directory. Suited to the desktop use case where plans survive restarts.
type FileStore struct {
	basePath string
	mu       sync.Mutex
}

// NewFileStore creates a file store rooted at basePath
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create plan directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) planPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid plan ID: %q", id)
	}
	return filepath.Join(s.basePath, id+".json"), nil
}

// Save writes the plan to disk, replacing any previous version
func (s *FileStore) Save(p *Plan) error {
	path, err := s.planPath(p.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

// Get loads a plan by ID
func (s *FileStore) Get(id string) (*Plan, error) {
	path, err := s.planPath(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path) // #nosec G304 - planPath rejects traversal
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &p, nil
}

// List loads all plans under the base directory
func (s *FileStore) List() ([]*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan directory: %w", err)
	}

	plans := make([]*Plan, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.basePath, entry.Name())) // #nosec G304 - names come from ReadDir
		if err != nil {
			return nil, fmt.Errorf("failed to read plan file %s: %w", entry.Name(), err)
		}

		var p Plan
		if err := json.Unmarshal(data, &p); err != nil {
			// Skip files that are not plans rather than failing the listing
			continue
		}
		plans = append(plans, &p)
	}
	return plans, nil
}

// Delete removes a plan by ID
func (s *FileStore) Delete(id string) error {
	path, err := s.planPath(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete plan file: %w", err)
	}
	return nil
}
