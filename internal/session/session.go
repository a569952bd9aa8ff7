package session

import (
	"fmt"
	"strings"
	"sync"
)

// Store persists the bearer token between process runs.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Listener is invoked with the new token after every change. An empty token
// means the session was cleared.
type Listener func(token string)

// Session is the process-wide credential holder. It is passed by reference to
// every component that issues authenticated calls.
type Session struct {
	mu        sync.RWMutex
	token     string
	store     Store
	listeners map[int]Listener
	nextID    int
}

// New creates a session backed by store. A nil store keeps the token in memory only.
func New(store Store) *Session {
	return &Session{store: store, listeners: make(map[int]Listener)}
}

// Load reads the persisted token into memory.
func (s *Session) Load() error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	s.swap(strings.TrimSpace(token))
	return nil
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Set stores a new token and notifies listeners.
func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear()
	}
	if s.store != nil {
		if err := s.store.Save(token); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	s.swap(token)
	return nil
}

// Clear drops the token in memory and in the store, then notifies listeners.
// The in-memory token is cleared even when the store fails.
func (s *Session) Clear() error {
	var storeErr error
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			storeErr = fmt.Errorf("clear session: %w", err)
		}
	}
	s.swap("")
	return storeErr
}

// Subscribe registers fn for token changes and returns a function that removes it.
func (s *Session) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) swap(token string) {
	s.mu.Lock()
	changed := s.token != token
	s.token = token
	listeners := make([]Listener, 0, len(s.listeners))
	if changed {
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(token)
	}
}
