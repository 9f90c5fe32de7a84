package textutils_test

import (
	"testing"

	"nossas-despesas/expense-import/internal/textutils"

	"github.com/stretchr/testify/assert"
)

func TestStripAccents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Movimentação", "Movimentacao"},
		{"Histórico", "Historico"},
		{"Descrição", "Descricao"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.StripAccents(tt.input))
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "meio de pagamento", textutils.NormalizeHeader("  Meio de Pagamento "))
	assert.Equal(t, "movimentacao", textutils.NormalizeHeader("MOVIMENTAÇÃO"))
}

func TestContainsAll(t *testing.T) {
	line := "data;hora;movimentacao;valor;meio de pagamento;saldo"
	assert.True(t, textutils.ContainsAll(line, "data", "hora", "valor"))
	assert.False(t, textutils.ContainsAll(line, "data", "descricao"))
	assert.True(t, textutils.ContainsAll(line))
}

func TestRemoveInstallment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"with installment", "Loja X (Parcela 2 de 10)", "Loja X"},
		{"installment in the middle", "Loja (Parcela 1 de 3) Centro", "Loja Centro"},
		{"no installment", "Padaria", "Padaria"},
		{"every annotation removed", "Loja (Parcela 1 de 3) X (parcela 2 de 3)", "Loja X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.RemoveInstallment(tt.input))
		})
	}
}

func TestHasLetter(t *testing.T) {
	assert.True(t, textutils.HasLetter("Pix enviado"))
	assert.True(t, textutils.HasLetter("ção"))
	assert.False(t, textutils.HasLetter("-1.234,56"))
	assert.False(t, textutils.HasLetter("07/11/2025"))
}

func TestNonBlankLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, textutils.NonBlankLines("\r\n  a \r\n\n b\n"))
	assert.Nil(t, textutils.NonBlankLines("  \n"))
}
