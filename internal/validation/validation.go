// Package validation checks command line paths before any work starts.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nossas-despesas/expense-import/internal/fileutils"
	"nossas-despesas/expense-import/internal/parsererror"
)

// StatementFile checks that path is an existing regular file with an
// accepted statement extension.
func StatementFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is not a regular file", path)
	}
	if !fileutils.IsAccepted(path) {
		return &parsererror.UnsupportedFileError{Filename: filepath.Base(path)}
	}
	return nil
}

// DraftsFile checks that path is an existing CSV file.
func DraftsFile(path string) error {
	if err := StatementFile(path); err != nil {
		return err
	}
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return fmt.Errorf("drafts file must be a .csv file: %s", path)
	}
	return nil
}

// Directory checks that path exists and is a directory.
func Directory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}

// OutputFile checks that path can be created: it is not a directory and
// its parent, when it exists, is a directory.
func OutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}
	parent := filepath.Dir(path)
	if info, err := os.Stat(parent); err == nil && !info.IsDir() {
		return fmt.Errorf("output parent %s is not a directory", parent)
	}
	return nil
}
