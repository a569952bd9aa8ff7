package podcastapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podcastplus/internal/segments"
	"podcastplus/internal/services"
	"podcastplus/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sess := session.New(nil)
	client, err := New(srv.URL+"/", sess, WithHTTPClient(srv.Client()), WithUploadClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, sess
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a url"} {
		if _, err := New(raw, nil); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoginStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.PostForm.Get("username") != "host@example.com" || r.PostForm.Get("password") != "secret" {
			http.Error(w, `{"detail":"Incorrect email or password"}`, http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"bearer"}`)
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		_, _ = io.WriteString(w, `{"user":{"id":"u1","email":"host@example.com","tier":"pro"}}`)
	})
	client, sess := newTestClient(t, mux)

	if err := client.Login(context.Background(), "host@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token() != "tok-1" {
		t.Fatalf("token = %q", sess.Token())
	}
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.Email != "host@example.com" || user.Tier != "pro" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	err := client.Login(context.Background(), " ", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	}))
	if err := sess.Set("stale"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var cleared bool
	sess.Subscribe(func(token string) { cleared = token == "" })

	_, err := client.ListShows(context.Background())
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Detail != "Could not validate credentials" {
		t.Fatalf("unexpected status error %#v", err)
	}
	if sess.Authenticated() || !cleared {
		t.Fatal("expected session to be cleared")
	}
}

func TestRequestIDHeader(t *testing.T) {
	seen := make(chan string, 2)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(headerRequestID)
		_, _ = io.WriteString(w, `[]`)
	}))

	ctx := services.WithRequestID(context.Background(), "req-fixed")
	if _, err := client.ListMedia(ctx); err != nil {
		t.Fatalf("ListMedia: %v", err)
	}
	if got := <-seen; got != "req-fixed" {
		t.Fatalf("request id = %q", got)
	}
	if _, err := client.ListMedia(context.Background()); err != nil {
		t.Fatalf("ListMedia: %v", err)
	}
	if got := <-seen; len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestTemplatesRoundTrip(t *testing.T) {
	intro := segments.NewSegment(segments.KindIntro, segments.Source{Type: segments.SourceTTS, Script: "Welcome", VoiceID: segments.DefaultVoiceID})
	content := segments.NewSegment(segments.KindContent, segments.Source{Type: segments.SourceStatic, Filename: "{main}"})
	stored := Template{ID: "t1", Name: "Weekly", Segments: []segments.Segment{intro, content}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/templates/{$}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Template{stored})
	})
	mux.HandleFunc("GET /api/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "t1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Template not found"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(stored)
	})
	mux.HandleFunc("PUT /api/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body Template
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		body.UserID = "u1"
		_ = json.NewEncoder(w).Encode(body)
	})
	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	list, err := client.ListTemplates(ctx)
	if err != nil || len(list) != 1 || list[0].Segments[0].Kind != segments.KindIntro {
		t.Fatalf("ListTemplates = %+v, %v", list, err)
	}
	if _, err := client.GetTemplate(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	tpl, err := client.GetTemplate(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	tpl.Name = "Weekly Show"
	saved, err := client.UpdateTemplate(ctx, tpl)
	if err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	if saved.Name != "Weekly Show" || saved.UserID != "u1" {
		t.Fatalf("unexpected saved template %+v", saved)
	}
}

func TestUpdateTemplateValidatesBeforeSending(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	bad := &Template{ID: "t1", Name: "", Segments: nil}
	if _, err := client.UpdateTemplate(context.Background(), bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadSendsMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/media/upload/main_content" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "ep1.wav" || string(data) != "RIFF-data" {
			t.Errorf("unexpected file %s %q", header.Filename, data)
		}
		if got := r.FormValue("friendly_names"); got != `["ep1"]` {
			t.Errorf("friendly_names = %s", got)
		}
		_, _ = io.WriteString(w, `[{"id":"m1","category":"main_content","filename":"a1b2_ep1.wav"}]`)
	}))

	item, err := client.Upload(context.Background(), CategoryMainContent, "/tmp/audio/ep1.wav", strings.NewReader("RIFF-data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if item.Filename != "a1b2_ep1.wav" {
		t.Fatalf("filename = %q", item.Filename)
	}
}

func TestUploadRejectsEmptyResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `[]`)
	}))
	if _, err := client.Upload(context.Background(), CategoryMainContent, "ep1.wav", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty upload response")
	}
}

func TestAssembleAndStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/episodes/assemble", func(w http.ResponseWriter, r *http.Request) {
		var req AssembleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req.MainContentFilename != "srv-ep1.wav" || req.EpisodeDetails.Title != "Pilot" || req.OutputFilename != "pilot" {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = io.WriteString(w, `{"job_id":"job-42","status":"queued","episode_id":"e1"}`)
	})
	mux.HandleFunc("GET /api/episodes/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","error":"ffmpeg failure"}`)
	})
	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	resp, err := client.Assemble(ctx, AssembleRequest{
		TemplateID:          "t1",
		PodcastID:           "s1",
		MainContentFilename: "srv-ep1.wav",
		OutputFilename:      "pilot",
		EpisodeDetails:      EpisodeDetails{Title: "Pilot"},
	})
	if err != nil || resp.JobID != "job-42" {
		t.Fatalf("Assemble = %+v, %v", resp, err)
	}
	status, err := client.JobStatus(ctx, "job-42")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status.JobID != "job-42" || status.Status != JobError || !status.Status.Terminal() || status.Error != "ffmpeg failure" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestServerErrorDetail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","podcast_id"],"msg":"field required"}]}`)
	}))
	_, err := client.Assemble(context.Background(), AssembleRequest{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity || statusErr.Detail != "podcast_id: field required" {
		t.Fatalf("unexpected error %+v", statusErr)
	}
}

func TestEpisodesAndPublish(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/episodes/{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"e1","title":"Pilot","status":"processed"}]`)
	})
	mux.HandleFunc("POST /api/episodes/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"queued","job_id":"pub-1"}`)
	})
	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	episodes, err := client.ListEpisodes(ctx)
	if err != nil || len(episodes) != 1 || episodes[0].Title != "Pilot" {
		t.Fatalf("ListEpisodes = %+v, %v", episodes, err)
	}
	resp, err := client.PublishEpisode(ctx, "e1")
	if err != nil || resp.JobID != "pub-1" {
		t.Fatalf("PublishEpisode = %+v, %v", resp, err)
	}
}
