package predict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingPredictor(t *testing.T) {
	var calls int
	next := Func(func(_ context.Context, _ string, _ int64) (int, error) {
		calls++
		return 9, nil
	})
	m := NewMappingPredictor(map[string]int{"  PADARIA  Central": 4}, next)

	id, err := m.PredictCategory(context.Background(), "padaria central", 100)
	require.NoError(t, err)
	assert.Equal(t, 4, id)
	assert.Equal(t, 0, calls)

	id, err = m.PredictCategory(context.Background(), "Mercado", 100)
	require.NoError(t, err)
	assert.Equal(t, 9, id)
	assert.Equal(t, 1, calls)

	m.Learn("Mercado", 5)
	id, err = m.PredictCategory(context.Background(), "MERCADO", 100)
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.Equal(t, map[string]int{"padaria central": 4, "mercado": 5}, m.Mappings())
}

func TestMappingPredictor_NoNext(t *testing.T) {
	m := NewMappingPredictor(nil, nil)
	_, err := m.PredictCategory(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrNoPrediction)

	m.Learn("   ", 3)
	assert.Empty(t, m.Mappings())
}
