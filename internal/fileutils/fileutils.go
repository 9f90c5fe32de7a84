// Package fileutils provides the file operations used by the import commands.
package fileutils

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nossas-despesas/expense-import/internal/models"
)

// AcceptedExtensions are the statement file extensions the importer reads.
var AcceptedExtensions = []string{".csv", ".pdf"}

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return false
	}
	return info.IsDir()
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(dirPath string) error {
	if !DirectoryExists(dirPath) {
		if err := os.MkdirAll(dirPath, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}

// ReadFile reads the entire contents of a file and returns it as a byte slice
func ReadFile(filePath string) ([]byte, error) {
	if !FileExists(filePath) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- user supplied statement path
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// DetectMimeType guesses the MIME type of a statement from its extension,
// falling back to content sniffing. Parameters are stripped.
func DetectMimeType(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return models.MimeCSV
	case ".pdf":
		return models.MimePDF
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return stripParams(byExt)
	}
	return stripParams(http.DetectContentType(data))
}

func stripParams(mimeType string) string {
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		return parsed
	}
	return mimeType
}

// NewFileInfo wraps raw upload content. PDF content stays binary for the
// extractor; everything else is decoded as UTF-8 text with any byte order
// mark removed.
func NewFileInfo(data []byte, filename, mimeType string) models.FileInfo {
	if mimeType == "" {
		mimeType = DetectMimeType(filename, data)
	}
	info := models.NewBinaryFile(data, filename, mimeType)
	if info.IsPDF() {
		return info
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return models.NewTextFile(text, filename, mimeType)
}

// LoadFileInfo reads a statement file from disk.
func LoadFileInfo(filePath string) (models.FileInfo, error) {
	data, err := ReadFile(filePath)
	if err != nil {
		return models.FileInfo{}, err
	}
	return NewFileInfo(data, filepath.Base(filePath), ""), nil
}

// IsAccepted reports whether the file extension is one the importer reads.
func IsAccepted(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// ListStatementFiles returns the accepted files directly inside dirPath,
// sorted by name.
func ListStatementFiles(dirPath string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsAccepted(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dirPath, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
