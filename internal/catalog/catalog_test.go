package catalog

import (
	"context"
	"errors"
	"testing"

	"podcastplus/internal/logging"
	"podcastplus/internal/podcastapi"
)

type fakeSource struct {
	templates []podcastapi.Template
	shows     []podcastapi.Show
	media     []podcastapi.MediaItem
	showsErr  error
}

func (f *fakeSource) ListTemplates(ctx context.Context) ([]podcastapi.Template, error) {
	return f.templates, nil
}

func (f *fakeSource) ListShows(ctx context.Context) ([]podcastapi.Show, error) {
	if f.showsErr != nil {
		return nil, f.showsErr
	}
	return f.shows, nil
}

func (f *fakeSource) ListMedia(ctx context.Context) ([]podcastapi.MediaItem, error) {
	return f.media, nil
}

func TestLoadCollectsEverything(t *testing.T) {
	src := &fakeSource{
		templates: []podcastapi.Template{{ID: "t1", Name: "Weekly"}},
		shows:     []podcastapi.Show{{ID: "s1", Name: "Morning Show"}},
		media: []podcastapi.MediaItem{
			{ID: "m1", Category: "intro", Filename: "intro.mp3"},
			{ID: "m2", Category: "music", Filename: "bed.mp3"},
		},
	}
	c, err := Load(context.Background(), src, logging.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tpl, ok := c.Template("weekly"); !ok || tpl.ID != "t1" {
		t.Fatalf("Template lookup by name failed: %+v", tpl)
	}
	if show, ok := c.Show("s1"); !ok || show.Name != "Morning Show" {
		t.Fatalf("Show lookup by id failed: %+v", show)
	}
	if _, ok := c.Show("missing"); ok {
		t.Fatal("expected missing show")
	}
	if got := c.MediaByCategory("music"); len(got) != 1 || got[0].ID != "m2" {
		t.Fatalf("MediaByCategory = %+v", got)
	}
}

func TestLoadFailsWhole(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{showsErr: boom}
	c, err := Load(context.Background(), src, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c != nil {
		t.Fatal("expected no partial catalog")
	}
}
