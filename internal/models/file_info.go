// Package models provides the data structures shared by the import pipeline.
package models

import (
	"path/filepath"
	"strings"
)

// MIME types accepted at the input boundary.
const (
	MimeCSV = "text/csv"
	MimePDF = "application/pdf"
)

// FileInfo describes one import attempt. Exactly one of Text or Data carries
// the content: Text for decoded text (CSV exports, extracted PDF text), Data
// for raw binary that still needs external extraction.
type FileInfo struct {
	Text     string
	Data     []byte
	Filename string
	MimeType string
}

// NewTextFile builds a FileInfo carrying decoded text.
func NewTextFile(text, filename, mimeType string) FileInfo {
	return FileInfo{Text: text, Filename: filename, MimeType: mimeType}
}

// NewBinaryFile builds a FileInfo carrying raw bytes.
func NewBinaryFile(data []byte, filename, mimeType string) FileInfo {
	if data == nil {
		data = []byte{}
	}
	return FileInfo{Data: data, Filename: filename, MimeType: mimeType}
}

// IsText reports whether the content is decoded text.
func (f FileInfo) IsText() bool {
	return f.Data == nil
}

// HasExtension reports whether the filename ends with ext, case-insensitively.
func (f FileInfo) HasExtension(ext string) bool {
	if f.Filename == "" {
		return false
	}
	return strings.EqualFold(filepath.Ext(f.Filename), ext)
}

// IsCSV reports whether the MIME type or the extension flags a CSV file.
func (f FileInfo) IsCSV() bool {
	return f.MimeType == MimeCSV || f.HasExtension(".csv")
}

// IsPDF reports whether the MIME type or the extension flags a PDF file.
func (f FileInfo) IsPDF() bool {
	return f.MimeType == MimePDF || f.HasExtension(".pdf")
}

// Lines splits the text content on LF or CRLF line endings.
func (f FileInfo) Lines() []string {
	return strings.Split(strings.ReplaceAll(f.Text, "\r\n", "\n"), "\n")
}
