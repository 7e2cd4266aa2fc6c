package upload

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxFileSize = 25 << 20 // 25 MB

// Storage persists multipart uploads on local disk and hands back the
// attachment metadata that gets embedded in projects and tasks.
type Storage interface {
	Save(c *fiber.Ctx, file *multipart.FileHeader, uploadedBy primitive.ObjectID) (models.Attachment, error)
	Remove(storedName string) error
}

type DiskStorage struct {
	BasePath string
	BaseURL  string
	Logger   *zap.Logger
}

func NewStorage(cfg *config.Config, logger *zap.Logger) Storage {
	return &DiskStorage{
		BasePath: cfg.FSPath,
		BaseURL:  cfg.FSURL,
		Logger:   logger,
	}
}

func (s *DiskStorage) Save(c *fiber.Ctx, file *multipart.FileHeader, uploadedBy primitive.ObjectID) (models.Attachment, error) {
	if file.Size > maxFileSize {
		return models.Attachment{}, fmt.Errorf("file exceeds 25MB limit: %w", apperr.ErrValidation)
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return models.Attachment{}, err
	}

	ext := filepath.Ext(file.Filename)
	storedName := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), primitive.NewObjectID().Hex(), ext)
	dest := filepath.Join(s.BasePath, storedName)

	if err := c.SaveFile(file, dest); err != nil {
		s.Logger.Error("failed to store upload", zap.Error(err), zap.String("file", file.Filename))
		return models.Attachment{}, err
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return models.Attachment{
		ID:          primitive.NewObjectID(),
		FileName:    file.Filename,
		StoredName:  storedName,
		URL:         strings.TrimRight(s.BaseURL, "/") + "/" + storedName,
		Size:        file.Size,
		ContentType: contentType,
		UploadedBy:  uploadedBy,
		UploadedAt:  time.Now(),
	}, nil
}

func (s *DiskStorage) Remove(storedName string) error {
	// Refuse anything that could escape the upload directory.
	if storedName == "" || strings.Contains(storedName, "/") || strings.Contains(storedName, "..") {
		return fmt.Errorf("invalid stored file name: %w", apperr.ErrValidation)
	}
	err := os.Remove(filepath.Join(s.BasePath, storedName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
