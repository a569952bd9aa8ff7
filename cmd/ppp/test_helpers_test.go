package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"podcastplus/internal/config"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/segments"
	"podcastplus/internal/testsupport"
)

const testToken = "tok-1"

// fakeAPI stands in for the Podcast Plus backend.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	templates []segments.Template
	statuses  []podcastapi.JobStatus
	polls     int
	jobs      int
	puts      int
	uploads   []string
	assembled []podcastapi.AssembleRequest
	published []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		t:         t,
		templates: []segments.Template{testTemplate()},
		statuses: []podcastapi.JobStatus{
			{Status: podcastapi.JobProcessing},
			{Status: podcastapi.JobProcessed, Episode: &podcastapi.Episode{ID: "ep-9", Title: "My First Episode", Status: "processed"}},
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", api.handleToken)
	mux.HandleFunc("GET /api/auth/me", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]any{"user": map[string]any{"id": "u-1", "email": "host@example.com", "first_name": "Pat", "tier": "pro"}})
	}))
	mux.HandleFunc("GET /api/templates/{$}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		writeTestJSON(w, api.templates)
	}))
	mux.HandleFunc("GET /api/templates/{id}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		for _, tpl := range api.templates {
			if tpl.ID == r.PathValue("id") {
				writeTestJSON(w, tpl)
				return
			}
		}
		http.Error(w, `{"detail":"Template not found"}`, http.StatusNotFound)
	}))
	mux.HandleFunc("PUT /api/templates/{id}", api.authed(api.handlePutTemplate))
	mux.HandleFunc("GET /api/podcasts/{$}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []podcastapi.Show{{ID: "show-1", Name: "Morning Show"}})
	}))
	mux.HandleFunc("GET /api/media/{$}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []podcastapi.MediaItem{
			{ID: "m-1", Category: "intro", Filename: "intro.mp3", Filesize: 2048},
			{ID: "m-2", Category: "outro", Filename: "outro.mp3"},
		})
	}))
	mux.HandleFunc("POST /api/media/upload/{category}", api.authed(api.handleUpload))
	mux.HandleFunc("POST /api/episodes/assemble", api.authed(api.handleAssemble))
	mux.HandleFunc("GET /api/episodes/status/{id}", api.authed(api.handleStatus))
	mux.HandleFunc("GET /api/episodes/{$}", api.authed(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []podcastapi.Episode{{ID: "ep-9", Title: "My First Episode", Status: "processed"}})
	}))
	mux.HandleFunc("POST /api/episodes/{id}/publish", api.authed(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.published = append(api.published, r.PathValue("id"))
		api.mu.Unlock()
		writeTestJSON(w, podcastapi.PublishResponse{Message: "Publishing started", JobID: "pub-1"})
	}))
	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Not authenticated"}`)
			return
		}
		next(w, r)
	}
}

func (a *fakeAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != "host@example.com" || r.PostForm.Get("password") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Incorrect email or password"}`)
		return
	}
	writeTestJSON(w, map[string]string{"access_token": testToken, "token_type": "bearer"})
}

func (a *fakeAPI) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl segments.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		a.t.Errorf("decode template: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.puts++
	for i := range a.templates {
		if a.templates[i].ID == r.PathValue("id") {
			a.templates[i] = tpl
		}
	}
	writeTestJSON(w, tpl)
}

func (a *fakeAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("files")
	if err != nil {
		a.t.Errorf("upload form: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)
	stored := "srv-" + header.Filename
	a.mu.Lock()
	a.uploads = append(a.uploads, r.PathValue("category")+"/"+header.Filename)
	a.mu.Unlock()
	writeTestJSON(w, []podcastapi.MediaItem{{ID: "m-up", Category: r.PathValue("category"), Filename: stored}})
}

func (a *fakeAPI) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var req podcastapi.AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.t.Errorf("decode assemble: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	a.jobs++
	a.assembled = append(a.assembled, req)
	id := fmt.Sprintf("job-%d", a.jobs)
	a.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
	writeTestJSON(w, podcastapi.AssembleResponse{JobID: id, Status: "queued", EpisodeID: "ep-9"})
}

func (a *fakeAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.polls
	if idx >= len(a.statuses) {
		idx = len(a.statuses) - 1
	}
	a.polls++
	writeTestJSON(w, a.statuses[idx])
}

func (a *fakeAPI) pollCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.polls
}

func (a *fakeAPI) putCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.puts
}

func (a *fakeAPI) template(id string) segments.Template {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, tpl := range a.templates {
		if tpl.ID == id {
			return tpl
		}
	}
	return segments.Template{}
}

func (a *fakeAPI) assembleRequests() []podcastapi.AssembleRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]podcastapi.AssembleRequest(nil), a.assembled...)
}

func (a *fakeAPI) uploadList() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.uploads...)
}

func (a *fakeAPI) publishedList() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.published...)
}

func (a *fakeAPI) setStatuses(statuses ...podcastapi.JobStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses = statuses
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testTemplate() segments.Template {
	return segments.Template{
		ID:   "tpl-1",
		Name: "Weekly",
		Segments: []segments.Segment{
			{ID: "seg-intro", Kind: segments.KindIntro, Source: segments.Source{Type: segments.SourceTTS}},
			{ID: "seg-content", Kind: segments.KindContent, Source: segments.Source{Type: segments.SourceStatic, Filename: "{main}"}},
			{ID: "seg-outro", Kind: segments.KindOutro, Source: segments.Source{Type: segments.SourceStatic, Filename: "outro.mp3"}},
		},
	}
}

type cliTestEnv struct {
	api        *fakeAPI
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config pointing at a fake API. When token is
// non-empty it is configured as a static token.
func setupCLITestEnv(t *testing.T, token string, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	api := newFakeAPI(t)
	opts = append([]testsupport.ConfigOption{testsupport.WithAPI(api.server.URL), testsupport.WithToken(token)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("PODCASTPLUS_API_URL", "")
	t.Setenv("PODCASTPLUS_TOKEN", "")

	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)
	return &cliTestEnv{api: api, cfg: cfg, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "media", name)
	testsupport.WriteFile(t, path, 4096)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, text, substr string) {
	t.Helper()
	if !strings.Contains(text, substr) {
		t.Fatalf("expected %q in output:\n%s", substr, text)
	}
}
