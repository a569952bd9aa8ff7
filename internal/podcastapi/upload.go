package podcastapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

// Upload categories accepted by the media endpoint.
const (
	CategoryMainContent  = "main_content"
	CategoryEpisodeCover = "episode_cover"
	CategoryIntro        = "intro"
	CategoryOutro        = "outro"
	CategoryMusic        = "music"
	CategoryCommercial   = "commercial"
	CategorySoundEffect  = "sfx"
)

// Upload streams a single file to the media library and returns the stored
// item. The server-assigned filename is what assembly requests reference.
func (c *Client) Upload(ctx context.Context, category, name string, content io.Reader) (*MediaItem, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.New("upload category required")
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, errors.New("upload filename required")
	}
	if content == nil {
		return nil, errors.New("upload content required")
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadBody(writer, name, content))
	}()
	defer pr.Close()

	var items []MediaItem
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/media/upload/" + url.PathEscape(category),
		body:        pr,
		contentType: writer.FormDataContentType(),
		upload:      true,
	}, &items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || strings.TrimSpace(items[0].Filename) == "" {
		return nil, errors.New("upload response missing filename")
	}
	return &items[0], nil
}

func writeUploadBody(writer *multipart.Writer, name string, content io.Reader) error {
	part, err := writer.CreateFormFile("files", name)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("stream upload: %w", err)
	}
	friendly, err := json.Marshal([]string{strings.TrimSuffix(name, filepath.Ext(name))})
	if err != nil {
		return err
	}
	if err := writer.WriteField("friendly_names", string(friendly)); err != nil {
		return fmt.Errorf("write friendly names: %w", err)
	}
	return writer.Close()
}
