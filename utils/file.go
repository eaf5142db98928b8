package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampedFilename builds a collision-free name for a saved upload,
// keeping the original base name and extension.
func TimestampedFilename(originalName string) string {
	name := SanitizeFilename(filepath.Base(originalName))
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext)
}

// SanitizeFilename strips path separators and characters that are unsafe in
// filenames, keeping letters, digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}

// CopyFileWithTimestamp copies a file to the destination directory with a timestamp suffix
// Returns the destination path and error if any
func CopyFileWithTimestamp(sourcePath, uploadDir string) (string, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %v", err)
	}
	defer sourceFile.Close()

	destPath := filepath.Join(uploadDir, TimestampedFilename(sourcePath))
	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %v", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return "", fmt.Errorf("failed to copy file: %v", err)
	}

	return destPath, nil
}
