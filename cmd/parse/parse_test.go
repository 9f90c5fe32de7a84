package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"nossas-despesas/expense-import/internal/factory"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const interCSV = "Extrato Conta Corrente\n" +
	"Data Lançamento;Histórico;Descrição;Valor;Saldo\n" +
	"05/11/2025;Pix enviado;Fulano;-150,00;1.000,00\n" +
	"06/11/2025;Pix recebido;Ciclano;200,00;1.200,00\n"

func newService() *importer.Service {
	logger := logging.NewMockLogger()
	return importer.NewService(factory.NewDefaultRegistry(factory.Options{}, logger), nil, logger)
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRun_JSON(t *testing.T) {
	input := writeInput(t, "inter.csv", interCSV)
	var out bytes.Buffer

	count, err := Run(context.Background(), newService(), input, "", ',', &out, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var drafts []models.ImportedExpenseDraft
	require.NoError(t, json.Unmarshal(out.Bytes(), &drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, "15000", drafts[0].AmountInCents)
	assert.Equal(t, "Pix enviado - Fulano", drafts[0].Description)
}

func TestRun_CSVOutput(t *testing.T) {
	input := writeInput(t, "inter.csv", interCSV)
	output := filepath.Join(t.TempDir(), "drafts.csv")

	count, err := Run(context.Background(), newService(), input, output, ';', &bytes.Buffer{}, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "id;description;amount_in_cents")
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), newService(), filepath.Join(t.TempDir(), "missing.csv"), "", ',', &bytes.Buffer{}, nil)
	assert.Error(t, err)

	input := writeInput(t, "notes.txt", "hello")
	_, err = Run(context.Background(), newService(), input, "", ',', &bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), parsererror.MsgUnsupportedFile)
}
