package web

import (
	"errors"
	"io"
	"net/http"

	"nossas-despesas/expense-import/internal/fileutils"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parsererror"
)

// MessageResponse is the body of every error response.
type MessageResponse struct {
	Message string `json:"message"`
}

// ImportResponse is the body of a successful import.
type ImportResponse struct {
	Expenses []models.ImportedExpenseDraft `json:"expenses"`
}

// handleImport parses one uploaded statement into drafts. Nothing is
// persisted.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: parsererror.MsgInvalidFile})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: parsererror.MsgInvalidFile})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: parsererror.MsgInvalidFile})
		return
	}

	info := fileutils.NewFileInfo(data, header.Filename, header.Header.Get("Content-Type"))
	expenses, err := s.service.ParseFile(r.Context(), info)
	if err != nil {
		status := http.StatusInternalServerError
		message := parsererror.MsgUnexpected
		if isClientError(err) {
			status = http.StatusBadRequest
			message = parsererror.UserMessage(err)
		}
		s.logger.WithError(err).Info("Import rejected",
			logging.Field{Key: logging.FieldFile, Value: header.Filename},
			logging.Field{Key: logging.FieldStatus, Value: status})
		writeJSON(w, status, MessageResponse{Message: message})
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Expenses: expenses})
}

// isClientError reports failures caused by the uploaded file itself.
func isClientError(err error) bool {
	var unsupported *parsererror.UnsupportedFileError
	var extraction *parsererror.ExtractionError
	return errors.As(err, &unsupported) ||
		errors.As(err, &extraction) ||
		errors.Is(err, parsererror.ErrNoExpenses)
}
