package fastctx

import "sync"

// subscriberSet is an ID-keyed set of listeners.
// Order is insertion order but nothing relies on it.
type subscriberSet struct {
	mu    sync.RWMutex
	subs  []Listener
	index map[uint64]int
}

// add registers l. It returns false if a listener with the same ID is
// already present.
func (s *subscriberSet) add(l Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := l.ID()
	if _, ok := s.index[id]; ok {
		return false
	}
	if s.index == nil {
		s.index = make(map[uint64]int)
	}
	s.index[id] = len(s.subs)
	s.subs = append(s.subs, l)
	return true
}

// remove drops the listener with the given ID. It returns false if it was
// not present.
func (s *subscriberSet) remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}

	// Swap with last element
	last := len(s.subs) - 1
	if i != last {
		s.subs[i] = s.subs[last]
		s.index[s.subs[i].ID()] = i
	}
	s.subs[last] = nil
	s.subs = s.subs[:last]
	delete(s.index, id)
	return true
}

func (s *subscriberSet) contains(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// snapshot copies the current listeners so they can be notified without
// holding the lock.
func (s *subscriberSet) snapshot() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Listener, len(s.subs))
	copy(out, s.subs)
	return out
}

func (s *subscriberSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
