package plan

import (
	"fmt"
	"sync"
)

// Store persists instrumentation plans. The CLI selects a MemoryStore when
// no plans directory is configured and a FileStore otherwise.
type Store interface {
	Save(p *Plan) error
	Get(id string) (*Plan, error)
	List() ([]*Plan, error)
	Delete(id string) error
}

// MemoryStore keeps plans for the lifetime of the process
type MemoryStore struct {
	plans map[string]*Plan
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans: make(map[string]*Plan),
	}
}

// Save stores the plan, replacing any previous version
func (s *MemoryStore) Save(p *Plan) error {
	if p.ID == "" {
		return fmt.Errorf("plan has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = p
	return nil
}

// Get retrieves a plan by its ID
func (s *MemoryStore) Get(id string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.plans[id]
	if !exists {
		return nil, fmt.Errorf("plan %s not found", id)
	}
	return p, nil
}

// List returns all stored plans
func (s *MemoryStore) List() ([]*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]*Plan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	return plans, nil
}

// Delete removes a plan by its ID
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; !exists {
		return fmt.Errorf("plan %s not found", id)
	}
	delete(s.plans, id)
	return nil
}
