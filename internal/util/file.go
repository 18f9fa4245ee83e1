package util

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/zfogg/chirp/internal/errors"
)

// MediaKind groups content types that share a size limit
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaGIF      MediaKind = "gif"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

const (
	megabyte = 1 << 20

	MaxImageSize    = 5 * megabyte
	MaxVideoSize    = 10 * megabyte
	MaxDocumentSize = 10 * megabyte
)

var imageTypes = map[string]MediaKind{
	"image/jpeg":    MediaImage,
	"image/jpg":     MediaImage,
	"image/png":     MediaImage,
	"image/webp":    MediaImage,
	"image/svg+xml": MediaImage,
	"image/gif":     MediaGIF,
}

var videoTypes = map[string]MediaKind{
	"video/mp4":       MediaVideo,
	"video/quicktime": MediaVideo,
	"video/x-msvideo": MediaVideo,
	"video/webm":      MediaVideo,
}

var documentTypes = map[string]MediaKind{
	"application/pdf":    MediaDocument,
	"application/msword": MediaDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": MediaDocument,
	"text/plain":      MediaDocument,
	"application/rtf": MediaDocument,
}

// MediaPolicy describes which uploads an endpoint accepts
type MediaPolicy struct {
	MaxFiles int
	Allowed  []map[string]MediaKind
}

var (
	// TweetMediaPolicy: up to 4 images, gifs or videos
	TweetMediaPolicy = MediaPolicy{MaxFiles: 4, Allowed: []map[string]MediaKind{imageTypes, videoTypes}}
	// MessageMediaPolicy: up to 5 attachments, documents included
	MessageMediaPolicy = MediaPolicy{MaxFiles: 5, Allowed: []map[string]MediaKind{imageTypes, videoTypes, documentTypes}}
	// ProfileImagePolicy: a single still or animated image
	ProfileImagePolicy = MediaPolicy{MaxFiles: 1, Allowed: []map[string]MediaKind{imageTypes}}
)

// MaxSizeFor returns the byte limit for a kind of media
func MaxSizeFor(kind MediaKind) int64 {
	switch kind {
	case MediaVideo:
		return MaxVideoSize
	case MediaDocument:
		return MaxDocumentSize
	default:
		return MaxImageSize
	}
}

// ContentTypeOf returns the declared content type of an upload, falling back to the extension
func ContentTypeOf(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct != "" && ct != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return strings.ToLower(mediaType)
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename))); byExt != "" {
		mediaType, _, _ := mime.ParseMediaType(byExt)
		return strings.ToLower(mediaType)
	}
	return "application/octet-stream"
}

// Classify returns the kind of an upload under the policy, or false if it is not accepted
func (p MediaPolicy) Classify(contentType string) (MediaKind, bool) {
	for _, allowed := range p.Allowed {
		if kind, ok := allowed[contentType]; ok {
			return kind, true
		}
	}
	return "", false
}

// Validate checks count, type and size of every file
func (p MediaPolicy) Validate(files []*multipart.FileHeader) error {
	if len(files) > p.MaxFiles {
		return errors.ValidationError("files", fmt.Sprintf("at most %d files are allowed", p.MaxFiles))
	}
	for _, fh := range files {
		ct := ContentTypeOf(fh)
		kind, ok := p.Classify(ct)
		if !ok {
			return errors.ValidationError("files", fmt.Sprintf("unsupported file type %q", ct))
		}
		if limit := MaxSizeFor(kind); fh.Size > limit {
			return errors.ValidationError("files",
				fmt.Sprintf("%s exceeds the %dMB limit for %s files", fh.Filename, limit/megabyte, kind))
		}
	}
	return nil
}
