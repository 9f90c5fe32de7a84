package pdfparser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parsererror"
)

// Extractor converts raw PDF bytes into plain text. Output of multi-page
// documents is newline-joined.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// DefaultExtractorCommand is the external tool used by CommandExtractor.
const DefaultExtractorCommand = "pdftotext"

// DefaultExtractTimeout bounds one extraction run.
const DefaultExtractTimeout = 30 * time.Second

// CommandExtractor implements Extractor by running pdftotext -layout over a
// temporary copy of the document.
type CommandExtractor struct {
	command string
	timeout time.Duration
	logger  logging.Logger
}

// NewCommandExtractor creates a CommandExtractor. Empty command and
// non-positive timeout select the defaults.
func NewCommandExtractor(command string, timeout time.Duration, logger logging.Logger) *CommandExtractor {
	if command == "" {
		command = DefaultExtractorCommand
	}
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &CommandExtractor{command: command, timeout: timeout, logger: logging.OrDefault(logger)}
}

// ExtractText implements Extractor.
func (e *CommandExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	tempFile, err := os.CreateTemp("", "expense-import-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary PDF file: %w", err)
	}
	pdfPath := tempFile.Name()
	textPath := pdfPath + ".txt"
	defer e.remove(pdfPath)
	defer e.remove(textPath)

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("failed to write temporary PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary PDF file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	// #nosec G204 -- command comes from configuration, not from the uploaded file
	cmd := exec.CommandContext(ctx, e.command, "-layout", pdfPath, textPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		e.logger.WithError(err).Error("Failed to run PDF extractor",
			logging.Field{Key: logging.FieldOperation, Value: e.command},
			logging.Field{Key: logging.FieldReason, Value: strings.TrimSpace(string(output))})
		return "", fmt.Errorf("error running %s: %w", e.command, err)
	}

	text, err := os.ReadFile(textPath) // #nosec G304 -- path created above
	if err != nil {
		return "", fmt.Errorf("error reading extracted text: %w", err)
	}

	e.logger.Debug("Extracted PDF text",
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	return joinPages(string(text)), nil
}

func (e *CommandExtractor) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.WithError(err).Warn("Failed to remove temporary file",
			logging.Field{Key: logging.FieldFile, Value: path})
	}
}

// joinPages turns page breaks into newlines.
func joinPages(text string) string {
	return strings.TrimRight(strings.ReplaceAll(text, "\f", "\n"), "\n")
}

// MockExtractor implements Extractor for tests.
type MockExtractor struct {
	MockText string
	MockErr  error
	Calls    int
}

// NewMockExtractor creates a MockExtractor returning the given text or error.
func NewMockExtractor(mockText string, mockErr error) *MockExtractor {
	return &MockExtractor{MockText: mockText, MockErr: mockErr}
}

// ExtractText returns the predefined text or error.
func (e *MockExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	e.Calls++
	if e.MockErr != nil {
		return "", e.MockErr
	}
	return e.MockText, nil
}

// ExtractFileInfo returns info with its binary PDF content replaced by the
// extracted text. Text content is returned untouched. Failures are reported
// as *parsererror.ExtractionError.
func ExtractFileInfo(ctx context.Context, extractor Extractor, info models.FileInfo) (models.FileInfo, error) {
	if info.IsText() {
		return info, nil
	}
	text, err := extractor.ExtractText(ctx, info.Data)
	if err != nil {
		return models.FileInfo{}, &parsererror.ExtractionError{Filename: info.Filename, Err: err}
	}
	return models.NewTextFile(text, info.Filename, info.MimeType), nil
}
