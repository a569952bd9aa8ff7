package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"podcastplus/internal/session"
)

type failingStore struct{}

func (failingStore) Load() (string, error) { return "", errors.New("boom") }
func (failingStore) Save(string) error     { return errors.New("boom") }
func (failingStore) Clear() error          { return errors.New("boom") }

func TestSetClearAndSubscribe(t *testing.T) {
	s := session.New(nil)
	var seen []string
	unsubscribe := s.Subscribe(func(token string) { seen = append(seen, token) })

	if s.Authenticated() {
		t.Fatal("expected empty session")
	}
	if err := s.Set(" abc "); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if s.Token() != "abc" {
		t.Fatalf("unexpected token %q", s.Token())
	}
	if err := s.Set("abc"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	unsubscribe()
	unsubscribe()
	if err := s.Set("def"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if len(seen) != 2 || seen[0] != "abc" || seen[1] != "" {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestSetEmptyClears(t *testing.T) {
	s := session.New(nil)
	_ = s.Set("abc")
	if err := s.Set("   "); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("expected blank token to clear the session")
	}
}

func TestClearDropsTokenEvenWhenStoreFails(t *testing.T) {
	s := session.New(failingStore{})
	if err := s.Set("abc"); err == nil {
		t.Fatal("expected save failure")
	}
	if s.Authenticated() {
		t.Fatal("failed save must not set the token")
	}
	if err := s.Clear(); err == nil {
		t.Fatal("expected clear failure to surface")
	}
	if err := s.Load(); err == nil {
		t.Fatal("expected load failure to surface")
	}
}

func TestFileStorePersistsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	first := session.New(session.NewFileStore(path))
	if err := first.Load(); err != nil {
		t.Fatalf("Load on empty store returned error: %v", err)
	}
	if first.Authenticated() {
		t.Fatal("expected no token before login")
	}
	if err := first.Set("token-1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	second := session.New(session.NewFileStore(path))
	if err := second.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if second.Token() != "token-1" {
		t.Fatalf("expected persisted token, got %q", second.Token())
	}

	if err := second.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected session file removed, err=%v", err)
	}
	if err := second.Clear(); err != nil {
		t.Fatalf("second Clear returned error: %v", err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := session.NewFileStore(path).Load(); err == nil {
		t.Fatal("expected decode error")
	}
}
