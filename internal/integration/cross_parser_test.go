package integration

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"nossas-despesas/expense-import/internal/batch"
	"nossas-despesas/expense-import/internal/common"
	"nossas-despesas/expense-import/internal/config"
	"nossas-despesas/expense-import/internal/container"
	"nossas-despesas/expense-import/internal/factory"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/pdfparser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flashCSV = "Data;Hora;Movimentação;Valor;Meio de Pagamento;Saldo\n" +
	"07/11/2025;12:34;Restaurante Bom Prato;-R$ 45,90;Cartão;R$ 154,10\n" +
	"08/11/2025;08:05;Padaria;-R$ 12,00;Cartão;R$ 142,10\n" +
	"09/11/2025;10:00;Recarga de benefício;R$ 500,00;Depósito;R$ 642,10\n"

const interCSV = "Extrato Conta Corrente\n" +
	"Data Lançamento;Histórico;Descrição;Valor;Saldo\n" +
	"03/11/2025;Pix enviado;Fulano de Tal;-150,00;1.850,00\n" +
	"05/11/2025;Pagamento efetuado;Fatura Cartao;-1.234,56;2.615,44\n"

const invoiceText = "Fatura do cartão\n" +
	"Despesas da fatura\n" +
	"07 de nov. 2025   SUPERMERCADO X - SUPERMERCADO X LTDA - R$ 97,00\n" +
	"10 de nov. 2025   FARMACIA - R$ 1.020,30\n"

var digits = regexp.MustCompile(`^\d+$`)

func newService(logger logging.Logger) *importer.Service {
	registry := factory.NewDefaultRegistry(factory.Options{}, logger)
	return importer.NewService(registry, pdfparser.NewMockExtractor(invoiceText, nil), logger)
}

func readCSVHeaders(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path) // #nosec G304 -- test file
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	headers, err := csv.NewReader(file).Read()
	require.NoError(t, err)
	return headers
}

// TestCrossParserConsistency checks that every parser produces drafts with the
// same invariants and the same exported columns.
func TestCrossParserConsistency(t *testing.T) {
	tempDir := t.TempDir()
	logger := logging.NewMockLogger()
	service := newService(logger)

	inputs := []struct {
		name   string
		info   models.FileInfo
		drafts int
	}{
		{"flash", models.NewTextFile(flashCSV, "flash.csv", models.MimeCSV), 2},
		{"inter", models.NewTextFile(interCSV, "inter.csv", models.MimeCSV), 2},
		{"pdf", models.NewBinaryFile([]byte("%PDF-1.4"), "fatura.pdf", models.MimePDF), 2},
	}

	var headers [][]string
	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			drafts, err := service.ParseFile(context.Background(), in.info)
			require.NoError(t, err)
			require.Len(t, drafts, in.drafts)

			ids := make(map[string]bool)
			for _, d := range drafts {
				assert.NotEmpty(t, d.Description)
				assert.Regexp(t, digits, d.AmountInCents)
				assert.Equal(t, models.DefaultSplitType, d.SplitType)
				assert.False(t, ids[d.ID], "duplicate id %s", d.ID)
				ids[d.ID] = true
				_, ok := d.Time()
				assert.True(t, ok, "draft %q has a date", d.Description)
			}

			path := filepath.Join(tempDir, in.name+"_drafts.csv")
			require.NoError(t, common.WriteDraftsToCSV(drafts, path, ',', logger))
			headers = append(headers, readCSVHeaders(t, path))
		})
	}

	require.Len(t, headers, len(inputs))
	for _, h := range headers[1:] {
		assert.Equal(t, headers[0], h)
	}
	assert.Equal(t, []string{"id", "description", "amount_in_cents", "date", "raw", "split_type"}, headers[0])
}

// TestEndToEndImport runs a statement through the container with the
// prediction backend and the expenses API served over HTTP.
func TestEndToEndImport(t *testing.T) {
	predictServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Name == "Padaria" {
			_, _ = w.Write([]byte(`{"data": {"category_id": 13}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"category_id": null}}`))
	}))
	defer predictServer.Close()

	var mu sync.Mutex
	var saved []models.ExpenseRecord
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/expenses", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var record models.ExpenseRecord
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&record))
		mu.Lock()
		saved = append(saved, record)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer apiServer.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.yaml"), []byte(`groups:
  - name: Casa
    categories:
      - id: 12
        name: Mercado
      - id: 13
        name: Padaria
`), 0600))

	cfg := &config.Config{
		Log:    config.LogConfig{Level: "info", Format: "text"},
		Import: config.ImportConfig{DefaultCategoryID: 1, SplitType: "proportional", PayerID: 1, PartnerID: 2, TwoDigitYearPivot: 50},
		Parsers: config.ParsersConfig{
			PDF:   config.PDFConfig{SectionMarker: "Despesas da fatura", DescriptionSeparator: " - ", ExtractorCommand: "pdftotext", ExtractTimeoutSeconds: 5},
			Inter: config.InterConfig{HeaderKeyword: "valor"},
		},
		Predict: config.PredictConfig{Enabled: true, Backend: config.BackendHTTP, BaseURL: predictServer.URL, Path: "/predict", RequestsPerMinute: 600, TimeoutSeconds: 5},
		API:     config.APIConfig{BaseURL: apiServer.URL, Token: "secret", TimeoutSeconds: 5},
		Categories: config.CategoriesConfig{
			File:         filepath.Join(dir, "categories.yaml"),
			MappingsFile: filepath.Join(dir, "category_mappings.yaml"),
			AutoLearn:    true,
		},
		Output: config.OutputConfig{Delimiter: ","},
		Server: config.ServerConfig{Addr: ":0", MaxUploadMB: 1},
	}

	c, err := container.NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	session := c.NewSession(nil)
	rows, err := session.Load(context.Background(), models.NewTextFile(flashCSV, "flash.csv", models.MimeCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	session.Engine().Wait()
	rows = session.Engine().Drafts()
	assert.Equal(t, 12, rows[0].CategoryID, "catalog default when the backend has no answer")
	assert.Equal(t, 13, rows[1].CategoryID)

	summary, err := session.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, importer.CommitSummary{Saved: 2}, summary)

	require.Len(t, saved, 2)
	assert.Equal(t, "Restaurante Bom Prato", saved[0].Name)
	assert.Equal(t, int64(4590), saved[0].Amount)
	assert.Equal(t, 1, saved[0].PayerID)
	assert.Equal(t, 2, saved[0].ReceiverID)
	assert.Equal(t, 13, saved[1].CategoryID)

	require.NoError(t, c.SaveMappings())
	mappings, err := c.GetStore().LoadMappings()
	require.NoError(t, err)
	assert.Equal(t, 13, mappings["padaria"])
	assert.Equal(t, 12, mappings["restaurante bom prato"])
}

// TestBatchProcessingWithMixedFileTypes converts a directory holding every
// supported statement and reads the drafts back.
func TestBatchProcessingWithMixedFileTypes(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	files := map[string]string{
		"flash.csv":  flashCSV,
		"inter.csv":  interCSV,
		"fatura.pdf": "%PDF-1.4",
		"readme.md":  "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(content), 0600))
	}

	logger := logging.NewMockLogger()
	summary, err := batch.NewProcessor(newService(logger), ';', 0, logger).ProcessDirectory(context.Background(), in, out)
	require.NoError(t, err)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, 3, summary.Succeeded())

	for _, r := range summary.Results {
		drafts, err := common.ReadCSVFile[models.ImportedExpenseDraft](r.Output, ';', logger)
		require.NoError(t, err)
		assert.Len(t, drafts, r.Drafts)
		assert.NotEmpty(t, r.DateRange.String())
	}
}
