package parser

import (
	"context"
	"errors"
	"testing"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubParser is a configurable ExpenseParser for registry tests.
type stubParser struct {
	name   string
	claims bool
	result models.ParseResult
	err    error
	panics bool
	called int
}

func (s *stubParser) Name() string               { return s.name }
func (s *stubParser) SupportedFormats() []string { return []string{"text/csv"} }
func (s *stubParser) CanParse(models.FileInfo) bool {
	return s.claims
}

func (s *stubParser) Parse(context.Context, models.FileInfo) (models.ParseResult, error) {
	s.called++
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	first := &stubParser{name: "first", claims: true, result: models.ParseResult{
		Expenses: []models.ImportedExpenseDraft{{ID: "1"}},
	}}
	second := &stubParser{name: "second", claims: true}

	r := NewRegistry(logging.NewMockLogger())
	r.Register(first)
	r.Register(second)

	assert.Equal(t, first, r.FindParser(models.FileInfo{}))

	result, err := r.Parse(context.Background(), models.FileInfo{})
	require.NoError(t, err)
	assert.Len(t, result.Expenses, 1)
	assert.Equal(t, 1, first.called)
	assert.Equal(t, 0, second.called)
}

func TestRegistry_SkipsNonClaimingParsers(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubParser{name: "no", claims: false})
	yes := &stubParser{name: "yes", claims: true}
	r.Register(yes)

	assert.Equal(t, yes, r.FindParser(models.FileInfo{}))
	assert.Len(t, r.Parsers(), 2)
}

func TestRegistry_NoCompatibleParser(t *testing.T) {
	never := &stubParser{name: "never"}
	r := NewRegistry(logging.NewMockLogger())
	r.Register(never)

	result, err := r.Parse(context.Background(), models.NewTextFile("x", "a.txt", "text/plain"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrNoCompatibleParser))
	assert.Empty(t, result.Expenses)
	assert.NotNil(t, result.Expenses)
	assert.Equal(t, []string{parsererror.MsgNoCompatibleParser}, result.Errors)
	assert.Equal(t, 0, never.called)
	assert.Nil(t, r.FindParser(models.FileInfo{}))
}

func TestRegistry_ParserErrorBecomesResultError(t *testing.T) {
	r := NewRegistry(logging.NewMockLogger())
	r.Register(&stubParser{name: "failing", claims: true, err: errors.New("disk on fire")})

	result, err := r.Parse(context.Background(), models.FileInfo{})

	require.Error(t, err)
	assert.Empty(t, result.Expenses)
	assert.Equal(t, []string{parsererror.MsgUnexpected}, result.Errors)
}

func TestRegistry_RecoversFromPanic(t *testing.T) {
	mockLog := logging.NewMockLogger()
	r := NewRegistry(mockLog)
	r.Register(&stubParser{name: "panicky", claims: true, panics: true})

	var result models.ParseResult
	var err error
	assert.NotPanics(t, func() {
		result, err = r.Parse(context.Background(), models.FileInfo{})
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrParserPanic))
	assert.Equal(t, []string{parsererror.MsgUnexpected}, result.Errors)
	assert.True(t, mockLog.HasEntry("WARN", "Parser failed"))
}

func TestRegistry_NilExpensesNormalized(t *testing.T) {
	r := NewRegistry(logging.NewMockLogger())
	r.Register(&stubParser{name: "empty", claims: true})

	result, err := r.Parse(context.Background(), models.FileInfo{})
	require.NoError(t, err)
	assert.NotNil(t, result.Expenses)
	assert.False(t, result.HasErrors())
}
