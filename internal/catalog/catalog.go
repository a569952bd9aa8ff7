// Package catalog loads the reference data the episode wizard chooses from.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"podcastplus/internal/logging"
	"podcastplus/internal/podcastapi"
)

// Source is the subset of the API client the catalog reads from.
type Source interface {
	ListTemplates(ctx context.Context) ([]podcastapi.Template, error)
	ListShows(ctx context.Context) ([]podcastapi.Show, error)
	ListMedia(ctx context.Context) ([]podcastapi.MediaItem, error)
}

// Catalog is the user's templates, shows and media library at one point in time.
type Catalog struct {
	Templates []podcastapi.Template
	Shows     []podcastapi.Show
	Media     []podcastapi.MediaItem
}

// Load fetches every list concurrently. Any failure fails the whole load;
// a partial catalog is never returned.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*Catalog, error) {
	logger = logging.NewComponentLogger(logger, "catalog")
	group, gctx := errgroup.WithContext(ctx)
	var c Catalog

	group.Go(func() error {
		templates, err := src.ListTemplates(gctx)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		c.Templates = templates
		return nil
	})
	group.Go(func() error {
		shows, err := src.ListShows(gctx)
		if err != nil {
			return fmt.Errorf("load shows: %w", err)
		}
		c.Shows = shows
		return nil
	})
	group.Go(func() error {
		media, err := src.ListMedia(gctx)
		if err != nil {
			return fmt.Errorf("load media: %w", err)
		}
		c.Media = media
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded",
		slog.Int("templates", len(c.Templates)),
		slog.Int("shows", len(c.Shows)),
		slog.Int("media", len(c.Media)),
	)
	return &c, nil
}

// Template finds a template by id or case-insensitive name.
func (c *Catalog) Template(ref string) (*podcastapi.Template, bool) {
	ref = strings.TrimSpace(ref)
	for i := range c.Templates {
		if c.Templates[i].ID == ref {
			return &c.Templates[i], true
		}
	}
	for i := range c.Templates {
		if strings.EqualFold(c.Templates[i].Name, ref) {
			return &c.Templates[i], true
		}
	}
	return nil, false
}

// Show finds a show by id or case-insensitive name.
func (c *Catalog) Show(ref string) (*podcastapi.Show, bool) {
	ref = strings.TrimSpace(ref)
	for i := range c.Shows {
		if c.Shows[i].ID == ref {
			return &c.Shows[i], true
		}
	}
	for i := range c.Shows {
		if strings.EqualFold(c.Shows[i].Name, ref) {
			return &c.Shows[i], true
		}
	}
	return nil, false
}

// MediaByCategory returns library items in category.
func (c *Catalog) MediaByCategory(category string) []podcastapi.MediaItem {
	var out []podcastapi.MediaItem
	for _, item := range c.Media {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}
