package media

import (
	"context"
	"fmt"
	"path/filepath"

	"google.golang.org/genai"

	"verifylens/internal/models"
)

// GeminiUploader stores files with the Gemini Files API.
type GeminiUploader struct {
	client *genai.Client
}

func NewGeminiUploader(client *genai.Client) *GeminiUploader {
	return &GeminiUploader{client: client}
}

func (g *GeminiUploader) Upload(ctx context.Context, path, mimeType string) (*models.UploadedMedia, error) {
	file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", path, err)
	}

	return &models.UploadedMedia{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
	}, nil
}
