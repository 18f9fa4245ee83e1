// Package storage puts uploaded media somewhere a browser can fetch it.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zfogg/chirp/internal/logger"
	"go.uber.org/zap"
)

// UploadResult contains the result of an upload
type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// MediaStore is implemented by every storage backend (S3, MinIO, local disk, memory)
type MediaStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds an object key of the form {prefix}/{year}/{month}/{userID}/{uuid}{ext}
func NewKey(prefix, userID, filename string) string {
	extension := strings.ToLower(filepath.Ext(filename))
	now := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%s/%s%s", prefix, now.Year(), now.Month(), userID, uuid.New().String(), extension)
}

// UploadFile streams one multipart upload into the store under prefix
func UploadFile(ctx context.Context, store MediaStore, prefix, userID string, fh *multipart.FileHeader, contentType string) (*UploadResult, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	if contentType == "" {
		contentType = getContentType(filepath.Ext(fh.Filename))
	}
	return store.Upload(ctx, NewKey(prefix, userID, fh.Filename), f, fh.Size, contentType)
}

// DeleteAll removes every key, logging failures instead of returning them.
// Used after a database commit, when the rows are already gone.
func DeleteAll(ctx context.Context, store MediaStore, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			logger.Log.Warn("Failed to delete media object", zap.String("key", key), zap.Error(err))
		}
	}
}

// getContentType returns the appropriate MIME type for file extensions
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".pdf":
		return "application/pdf"
	}
	if byExt := mime.TypeByExtension(strings.ToLower(extension)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func publicURL(baseURL, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), key)
}
