package expenseapi

import (
	"context"
	"sync"

	"nossas-despesas/expense-import/internal/models"
)

// MockPersister records created expenses. ErrFor returns the error for a
// given expense name, if any.
type MockPersister struct {
	mu      sync.Mutex
	Created []models.ExpenseRecord
	ErrFor  map[string]error
}

// CreateExpense implements Persister.
func (m *MockPersister) CreateExpense(_ context.Context, expense models.ExpenseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ErrFor[expense.Name]; ok {
		return err
	}
	m.Created = append(m.Created, expense)
	return nil
}
