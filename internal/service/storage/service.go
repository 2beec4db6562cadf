package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ChaseRain/storycards/internal/infra/logger"
	"github.com/ChaseRain/storycards/pkg/errors"
)

type Service struct {
	storageType string
	basePath    string
	baseURL     string
	logger      *logger.Logger
}

func New(storageType, basePath, baseURL string, log *logger.Logger) *Service {
	return &Service{
		storageType: storageType,
		basePath:    basePath,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		logger:      log,
	}
}

// Save writes data under name and returns its URL. A name without an
// extension gets one detected from the content.
func (s *Service) Save(ctx context.Context, name string, data []byte) (string, error) {
	switch s.storageType {
	case "", "local":
		return s.saveLocal(name, data)
	default:
		return "", errors.New(errors.ErrCodeStorage, fmt.Sprintf("storage type %q not supported", s.storageType))
	}
}

func (s *Service) saveLocal(name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New(errors.ErrCodeInvalidReq, "file name is required")
	}
	if path.Ext(name) == "" {
		name += s.detectExtension(data)
	}

	filePath, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to create output directory")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to write file")
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, name)
	s.logger.Info("saved file locally", "path", filePath, "url", url, "size", len(data))

	return url, nil
}

// resolve maps a slash-separated name into basePath, rejecting names that
// would escape it.
func (s *Service) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return "", errors.New(errors.ErrCodeInvalidReq, fmt.Sprintf("invalid file name %q", name))
	}
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *Service) detectExtension(data []byte) string {
	if len(data) < 4 {
		return ".bin"
	}
	// PNG
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return ".png"
	}
	// JPEG
	if data[0] == 0xFF && data[1] == 0xD8 {
		return ".jpg"
	}
	// GIF
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return ".gif"
	}
	// WebP
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 {
		return ".webp"
	}
	// PDF
	if data[0] == 0x25 && data[1] == 0x50 && data[2] == 0x44 && data[3] == 0x46 {
		return ".pdf"
	}
	return ".bin"
}

// Get reads a file written by Save.
func (s *Service) Get(ctx context.Context, name string) ([]byte, error) {
	filePath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "file not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to read file")
	}

	return data, nil
}
