package host

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It behaves like a design tool's local
// variable store: ids are opaque strings, new collections start with a
// "Mode 1" mode, and variable names are unique per collection.
//
// It is safe for concurrent use. Returned entities are copies.
type MemoryStore struct {
	mu sync.RWMutex

	collections []*Collection
	variables   []*Variable
	nextID      int
	revision    int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s:%d", prefix, s.nextID)
}

// Revision counts successful writes since the store was created or loaded.
func (s *MemoryStore) Revision(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, nil
}

func (s *MemoryStore) Collections(_ context.Context) ([]*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Variables(_ context.Context) ([]*Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Variable, 0, len(s.variables))
	for _, v := range s.variables {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (s *MemoryStore) CollectionByID(_ context.Context, id string) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collection(id)
	if c == nil {
		return nil, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) VariableByID(_ context.Context, id string) (*Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.variable(id)
	if v == nil {
		return nil, fmt.Errorf("variable %q: %w", id, ErrNotFound)
	}
	return v.Clone(), nil
}

func (s *MemoryStore) CreateCollection(_ context.Context, name string) (*Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection name: %w", ErrInvalidName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Collection{ID: s.newID("VariableCollectionId")}
	c.Name = name
	c.Modes = []Mode{{ID: s.newID("Mode"), Name: DefaultModeName}}
	s.collections = append(s.collections, c)
	s.revision++
	return c.Clone(), nil
}

func (s *MemoryStore) AddMode(_ context.Context, collectionID, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("mode name: %w", ErrInvalidName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collectionID)
	if c == nil {
		return "", fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
	}
	id := s.newID("Mode")
	c.Modes = append(c.Modes, Mode{ID: id, Name: name})
	s.revision++
	return id, nil
}

func (s *MemoryStore) RenameMode(_ context.Context, collectionID, modeID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("mode name: %w", ErrInvalidName)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collectionID)
	if c == nil {
		return fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
	}
	for i := range c.Modes {
		if c.Modes[i].ID == modeID {
			c.Modes[i].Name = name
			s.revision++
			return nil
		}
	}
	return fmt.Errorf("mode %q: %w", modeID, ErrNotFound)
}

func (s *MemoryStore) CreateVariable(_ context.Context, name, collectionID string, t ResolvedType) (*Variable, error) {
	if err := ValidateVariable(name, t); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection(collectionID) == nil {
		return nil, fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
	}
	for _, v := range s.variables {
		if v.CollectionID == collectionID && v.Name == name {
			return nil, fmt.Errorf("variable %q: %w", name, ErrDuplicate)
		}
	}
	v := &Variable{
		ID:           s.newID("VariableID"),
		Name:         name,
		CollectionID: collectionID,
		Type:         t,
		Values:       map[string]Value{},
	}
	s.variables = append(s.variables, v)
	s.revision++
	return v.Clone(), nil
}

func (s *MemoryStore) SetValue(_ context.Context, variableID, modeID string, val Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.variable(variableID)
	if v == nil {
		return fmt.Errorf("variable %q: %w", variableID, ErrNotFound)
	}
	c := s.collection(v.CollectionID)
	if c == nil || !hasMode(c, modeID) {
		return fmt.Errorf("mode %q: %w", modeID, ErrNotFound)
	}
	if err := CheckValue(v.Type, val); err != nil {
		return fmt.Errorf("variable %q: %w", v.Name, err)
	}
	if a, ok := val.(Alias); ok {
		if a.ID == v.ID {
			return fmt.Errorf("variable %q: alias to itself", v.Name)
		}
		if s.variable(a.ID) == nil {
			return fmt.Errorf("alias target %q: %w", a.ID, ErrNotFound)
		}
	}
	v.Values[modeID] = val
	s.revision++
	return nil
}

func (s *MemoryStore) RemoveCollection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.collections {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	s.collections = append(s.collections[:idx], s.collections[idx+1:]...)
	kept := s.variables[:0]
	for _, v := range s.variables {
		if v.CollectionID != id {
			kept = append(kept, v)
		}
	}
	s.variables = kept
	s.revision++
	return nil
}

func (s *MemoryStore) collection(id string) *Collection {
	for _, c := range s.collections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *MemoryStore) variable(id string) *Variable {
	for _, v := range s.variables {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func hasMode(c *Collection, modeID string) bool {
	for _, m := range c.Modes {
		if m.ID == modeID {
			return true
		}
	}
	return false
}
