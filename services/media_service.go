package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	errs "github.com/techagentng/firesafe/errors"
	"github.com/techagentng/firesafe/models"
)

const (
	MaxUploadSize   = 20 * 1024 * 1024 // 20 MB
	thumbnailWidth  = 320
	thumbnailHeight = 240
)

var UploadFolders = []string{"photos", "documents", "plans"}

var supportedUploadTypes = map[string]string{
	".png":  "image/png",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

type UploadResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type MediaService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, folder string, userID uint) (*UploadResult, error)
}

type mediaService struct {
	Config  *config.Config
	storage db.ObjectStorage
	log     *logrus.Logger
}

// NewMediaService accepts a nil storage; uploads then fail with a
// configuration error.
func NewMediaService(storage db.ObjectStorage, conf *config.Config, log *logrus.Logger) MediaService {
	return &mediaService{
		Config:  conf,
		storage: storage,
		log:     log,
	}
}

func CheckSupportedFile(filename string) (string, bool) {
	contentType, ok := supportedUploadTypes[strings.ToLower(filepath.Ext(filename))]
	return contentType, ok
}

func generateObjectKey(folder string, userID uint, extension string) string {
	return fmt.Sprintf("%s/%d/%d_%s%s", folder, userID, time.Now().UnixNano(), uuid.New(), strings.ToLower(extension))
}

// Upload stores the file under folder and, for raster images, a 320x240
// thumbnail next to it. A thumbnail failure is logged and the upload still
// succeeds.
func (m *mediaService) Upload(ctx context.Context, file *multipart.FileHeader, folder string, userID uint) (*UploadResult, error) {
	if m.storage == nil {
		return nil, errs.Configuration("object storage")
	}
	folder = strings.ToLower(strings.TrimSpace(folder))
	if !models.Contains(UploadFolders, folder) {
		return nil, errs.NewWithCode(fmt.Sprintf("folder must be one of %s", strings.Join(UploadFolders, ", ")), errs.CodeValidation, http.StatusBadRequest)
	}
	if file.Size > MaxUploadSize {
		return nil, errs.NewWithCode("file size exceeds the maximum allowed size", errs.CodeValidation, http.StatusBadRequest)
	}
	contentType, ok := CheckSupportedFile(file.Filename)
	if !ok {
		return nil, errs.NewWithCode("unsupported file type", errs.CodeValidation, http.StatusBadRequest)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	key := generateObjectKey(folder, userID, filepath.Ext(file.Filename))
	url, err := m.storage.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}
	result := &UploadResult{URL: url}

	if contentType == "image/png" || contentType == "image/jpeg" {
		thumb, err := generateThumbnail(data)
		if err != nil {
			m.log.WithError(err).WithField("key", key).Warn("unable to generate thumbnail")
			return result, nil
		}
		thumbKey := strings.TrimSuffix(key, filepath.Ext(key)) + "_thumb.jpg"
		thumbURL, err := m.storage.Upload(ctx, thumbKey, thumb, "image/jpeg")
		if err != nil {
			m.log.WithError(err).WithField("key", thumbKey).Warn("unable to upload thumbnail")
			return result, nil
		}
		result.ThumbnailURL = thumbURL
	}
	return result, nil
}

func generateThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fill(img, thumbnailWidth, thumbnailHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
