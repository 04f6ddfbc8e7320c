//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "sync"

// SelectionSet is the set of item ids chosen for a bulk action.
type SelectionSet struct {
	mu    sync.Mutex
	order []string
	ids   map[string]struct{}
}

// NewSelectionSet creates a selection pre-populated with ids.
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{ids: map[string]struct{}{}}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add selects id. Empty ids are ignored.
func (s *SelectionSet) Add(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

// Toggle flips the selection state of id and reports whether it is now selected.
func (s *SelectionSet) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Remove deselects id.
func (s *SelectionSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Has reports whether id is selected.
func (s *SelectionSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids in selection order.
func (s *SelectionSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Clear deselects everything.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.ids = map[string]struct{}{}
}
