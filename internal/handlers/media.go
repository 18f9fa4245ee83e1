package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/util"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// formFiles returns the uploads sent as files or files[]
func formFiles(c *gin.Context) []*multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File["files"]...)
	return append(files, form.File["files[]"]...)
}

// uploadMedia validates and stores every file. On failure the files already
// stored are removed again.
func (h *Handlers) uploadMedia(c *gin.Context, policy util.MediaPolicy, prefix, userID string, files []*multipart.FileHeader) (models.MediaList, error) {
	media := models.MediaList{}
	if len(files) == 0 {
		return media, nil
	}
	if err := policy.Validate(files); err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	for _, fh := range files {
		ct := util.ContentTypeOf(fh)
		kind, _ := policy.Classify(ct)
		result, err := storage.UploadFile(ctx, h.media, prefix, userID, fh, ct)
		if err != nil {
			storage.DeleteAll(ctx, h.media, media.Keys())
			return nil, err
		}
		media = append(media, models.MediaItem{
			URL:  result.URL,
			Type: string(kind),
			Name: fh.Filename,
			Key:  result.Key,
		})
	}
	return media, nil
}
