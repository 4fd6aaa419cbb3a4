package testsupport

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrSessionFailure is returned by MapSession when failures are injected.
var ErrSessionFailure = errors.New("session storage failure")

// MapSession is an in-memory session storage with failure injection.
type MapSession struct {
	mu         sync.Mutex
	items      map[string]string
	FailReads  bool
	FailWrites bool
	writes     int
}

// NewMapSession creates an empty MapSession.
func NewMapSession() *MapSession {
	return &MapSession{items: map[string]string{}}
}

func (m *MapSession) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return "", false, ErrSessionFailure
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MapSession) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrSessionFailure
	}
	m.items[key] = value
	m.writes++
	return nil
}

func (m *MapSession) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrSessionFailure
	}
	delete(m.items, key)
	return nil
}

func (m *MapSession) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return nil, ErrSessionFailure
	}
	var keys []string
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MapSession) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string]string{}
	return nil
}

// Writes returns the number of successful SetItem calls.
func (m *MapSession) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Len returns the number of stored items.
func (m *MapSession) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
