package detect

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nossas-despesas/expense-import/internal/factory"
	"nossas-despesas/expense-import/internal/flashparser"
	"nossas-despesas/expense-import/internal/interparser"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/pdfparser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDetect(t *testing.T) {
	invoice := "Despesas da fatura\n07 de nov. 2025   PADARIA - R$ 10,00\n"

	tests := []struct {
		name      string
		file      string
		content   string
		extractor pdfparser.Extractor
		want      string
	}{
		{
			name:    "flash statement",
			file:    "flash.csv",
			content: "Data;Hora;Movimentação;Valor;Meio de Pagamento;Saldo\n07/11/2025;12:34;Padaria;-R$ 12,00;Cartão;R$ 1,00\n",
			want:    flashparser.Name,
		},
		{
			name:    "inter statement",
			file:    "inter.csv",
			content: "Data Lançamento;Histórico;Descrição;Valor;Saldo\n05/11/2025;Pix;Fulano;-1,00;2,00\n",
			want:    interparser.Name,
		},
		{
			name:      "credit card invoice",
			file:      "fatura.pdf",
			content:   "%PDF-1.4",
			extractor: pdfparser.NewMockExtractor(invoice, nil),
			want:      pdfparser.Name,
		},
		{
			name:      "pdf without invoice section",
			file:      "other.pdf",
			content:   "%PDF-1.4",
			extractor: pdfparser.NewMockExtractor("Extrato de investimentos\n", nil),
			want:      "",
		},
	}

	registry := factory.NewDefaultRegistry(factory.Options{}, logging.NewMockLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(context.Background(), registry, tt.extractor, writeInput(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Errors(t *testing.T) {
	registry := factory.NewDefaultRegistry(factory.Options{}, logging.NewMockLogger())
	ctx := context.Background()

	_, err := Detect(ctx, registry, nil, writeInput(t, "photo.png", "png"))
	var unsupported *parsererror.UnsupportedFileError
	assert.True(t, errors.As(err, &unsupported))

	_, err = Detect(ctx, registry, nil, writeInput(t, "fatura.pdf", "%PDF-1.4"))
	var extraction *parsererror.ExtractionError
	assert.True(t, errors.As(err, &extraction))

	_, err = Detect(ctx, registry, pdfparser.NewMockExtractor("", errors.New("boom")), writeInput(t, "fatura.pdf", "%PDF-1.4"))
	assert.True(t, errors.As(err, &extraction))
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Print(&out, "a.csv", interparser.Name))
	require.NoError(t, Print(&out, "b.csv", ""))

	assert.Equal(t, "a.csv: "+interparser.Name+"\nb.csv: "+parsererror.MsgNoCompatibleParser+"\n", out.String())
}
