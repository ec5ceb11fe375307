package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ryoma-android/takahashi01-sub000/pkg/utils"
	"go.uber.org/zap"
)

// UploadStore persists raw uploaded files under a base directory and maps
// them to publicly retrievable URLs. Stored files are immutable; a retried
// upload gets a fresh name.
type UploadStore struct {
	baseDir       string
	publicBaseURL string
	logger        *zap.Logger
}

// NewUploadStore creates a new UploadStore rooted at baseDir.
func NewUploadStore(baseDir, publicBaseURL string, logger *zap.Logger) *UploadStore {
	return &UploadStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Save writes content under a collision-resistant generated name derived from
// the original filename's extension. It returns the stored relative path and
// the public URL for the file.
func (s *UploadStore) Save(originalName string, content []byte) (storedPath string, publicURL string, err error) {
	name, err := generateName(originalName)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate file name: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, name)
	if err := s.validatePath(fullPath); err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create upload directory",
			zap.String("dir", s.baseDir),
			zap.Error(err))
		return "", "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write upload",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.Debug("Upload stored",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return name, s.publicBaseURL + "/uploads/" + name, nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *UploadStore) Delete(storedPath string) error {
	fullPath := filepath.Join(s.baseDir, storedPath)
	if err := s.validatePath(fullPath); err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		s.logger.Error("Failed to delete upload",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete upload: %w", err)
	}

	return nil
}

// BaseDir returns the directory uploads are stored under.
func (s *UploadStore) BaseDir() string {
	return s.baseDir
}

// generateName builds a timestamp + random suffix name preserving the
// original extension, e.g. "20250612T093015-a1b2c3d4.pdf".
func generateName(originalName string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}

	ext := utils.FileExtension(originalName, ".bin")
	return fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102T150405"),
		hex.EncodeToString(suffix),
		ext,
	), nil
}

// validatePath checks that the path is safe and within baseDir
func (s *UploadStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}
