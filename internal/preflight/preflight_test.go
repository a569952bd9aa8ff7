package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcastplus/internal/config"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
)

type fakeIdentity struct {
	user *podcastapi.User
	err  error
}

func (f fakeIdentity) Me(context.Context) (*podcastapi.User, error) {
	return f.user, f.err
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckAPI(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ok.Close()
	if result := CheckAPI(context.Background(), ok.URL); !result.Passed {
		t.Fatalf("a 404 still proves reachability, got: %s", result.Detail)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	if result := CheckAPI(context.Background(), broken.URL); result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected server error, got: %+v", result)
	}

	if result := CheckAPI(context.Background(), " "); result.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestCheckSession(t *testing.T) {
	ctx := context.Background()
	if result := CheckSession(ctx, fakeIdentity{}, false); result.Passed {
		t.Fatal("expected failure when logged out")
	}
	rejected := fakeIdentity{err: services.Wrap(services.ErrUnauthorized, "podcastapi", "me", "", errors.New("401"))}
	if result := CheckSession(ctx, rejected, true); result.Passed || !strings.Contains(result.Detail, "rejected") {
		t.Fatalf("expected rejected token, got %+v", result)
	}
	good := fakeIdentity{user: &podcastapi.User{Email: "host@example.com"}}
	if result := CheckSession(ctx, good, true); !result.Passed || !strings.Contains(result.Detail, "host@example.com") {
		t.Fatalf("expected pass, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil, false); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Paths.StateDir = t.TempDir()
	cfg.Logging.ToFile = false

	results := RunAll(context.Background(), &cfg, fakeIdentity{user: &podcastapi.User{Email: "a@b.c"}}, true)
	if len(results) != 3 {
		t.Fatalf("expected state dir, api, session checks, got %+v", results)
	}
	if Failed(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}
}

func TestRunAll_SkipsSessionWhenAPIDown(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "http://127.0.0.1:1"
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.Logging.ToFile = true

	results := RunAll(context.Background(), &cfg, fakeIdentity{}, true)
	if len(results) != 3 {
		t.Fatalf("expected state dir, log dir, api checks, got %+v", results)
	}
	if !Failed(results) {
		t.Fatal("expected failures")
	}
}
