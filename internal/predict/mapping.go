package predict

import (
	"context"
	"strings"
	"sync"
)

// MappingPredictor answers from previously confirmed description mappings
// and delegates to Next for unknown descriptions.
type MappingPredictor struct {
	mu       sync.RWMutex
	mappings map[string]int
	Next     Predictor
}

// NewMappingPredictor copies mappings, normalising every key.
func NewMappingPredictor(mappings map[string]int, next Predictor) *MappingPredictor {
	m := &MappingPredictor{mappings: make(map[string]int, len(mappings)), Next: next}
	for k, v := range mappings {
		m.mappings[NormalizeKey(k)] = v
	}
	return m
}

// NormalizeKey lower-cases a description and collapses its whitespace.
func NormalizeKey(description string) string {
	return strings.ToLower(strings.Join(strings.Fields(description), " "))
}

// PredictCategory implements Predictor.
func (m *MappingPredictor) PredictCategory(ctx context.Context, name string, amountCents int64) (int, error) {
	m.mu.RLock()
	id, ok := m.mappings[NormalizeKey(name)]
	m.mu.RUnlock()
	if ok {
		return id, nil
	}
	if m.Next == nil {
		return 0, ErrNoPrediction
	}
	return m.Next.PredictCategory(ctx, name, amountCents)
}

// Learn records a confirmed category for a description.
func (m *MappingPredictor) Learn(name string, categoryID int) {
	key := NormalizeKey(name)
	if key == "" {
		return
	}
	m.mu.Lock()
	m.mappings[key] = categoryID
	m.mu.Unlock()
}

// Mappings returns a copy of the known mappings.
func (m *MappingPredictor) Mappings() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.mappings))
	for k, v := range m.mappings {
		out[k] = v
	}
	return out
}
