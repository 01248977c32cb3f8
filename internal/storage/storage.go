// Package storage keeps uploaded images on local disk or in an
// S3-compatible bucket. Stored files are addressed by the public reference
// returned from Save, which is what products and profiles persist.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/config"
)

const MaxImageSize = 5 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

type Storage interface {
	Save(ctx context.Context, folder, ext string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ImageExtension validates an uploaded image by name and size and returns its
// lowercased extension.
func ImageExtension(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", ext)
	}
	if size > MaxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}
	return ext, nil
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, cfg, log)
	default:
		return NewLocal(cfg.UploadDir, cfg.PublicBaseURL, log)
	}
}
