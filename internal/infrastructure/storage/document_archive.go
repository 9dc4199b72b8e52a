package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"go.uber.org/zap"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// LocalDocumentArchive implements port.DocumentArchive on the local filesystem,
// one folder per engagement reference under baseDir.
type LocalDocumentArchive struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalDocumentArchive creates a new LocalDocumentArchive
func NewLocalDocumentArchive(baseDir string, logger *zap.Logger) *LocalDocumentArchive {
	return &LocalDocumentArchive{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content into the engagement's folder and returns the full path
func (a *LocalDocumentArchive) Save(ctx context.Context, reference, fileName string, content []byte) (string, error) {
	folder, err := a.folderFor(reference)
	if err != nil {
		return "", err
	}

	safeFile := SanitizeName(fileName)
	if safeFile == "" {
		return "", fmt.Errorf("cannot archive document: empty file name")
	}

	fullPath := filepath.Join(folder, safeFile)
	if err := a.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		a.logger.Error("Failed to create archive folder",
			zap.String("reference", reference),
			zap.String("folder_path", folder),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		a.logger.Error("Failed to write archived document",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	a.logger.Debug("Document archived",
		zap.String("reference", reference),
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// List returns the archived file names for an engagement, sorted by name
func (a *LocalDocumentArchive) List(ctx context.Context, reference string) ([]string, error) {
	folder, err := a.folderFor(reference)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *LocalDocumentArchive) folderFor(reference string) (string, error) {
	safeName := SanitizeName(reference)
	if safeName == "" {
		return "", fmt.Errorf("cannot archive document: empty reference")
	}
	return filepath.Join(a.baseDir, safeName), nil
}

// validatePath checks that the path stays within baseDir
func (a *LocalDocumentArchive) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(a.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path %s escapes archive directory", fullPath)
	}
	return nil
}

// SanitizeName returns a filesystem-safe version of the name.
// Path separators and parent references are removed before filtering characters.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeNameChars.ReplaceAllString(name, "")
	return strings.Trim(name, ".")
}

var _ port.DocumentArchive = (*LocalDocumentArchive)(nil)
