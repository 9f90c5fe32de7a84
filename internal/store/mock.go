package store

import (
	"sync"

	"nossas-despesas/expense-import/internal/models"
)

// MockCategoryStore is an in-memory stand-in for CategoryStore.
type MockCategoryStore struct {
	mu       sync.Mutex
	Groups   []models.CategoryGroup
	Mappings map[string]int

	LoadCategoriesError error
	LoadMappingsError   error
	SaveMappingsError   error
}

// LoadCategories returns the mock catalog.
func (m *MockCategoryStore) LoadCategories() ([]models.CategoryGroup, error) {
	if m.LoadCategoriesError != nil {
		return nil, m.LoadCategoriesError
	}
	return m.Groups, nil
}

// LoadMappings returns a copy of the mock mappings.
func (m *MockCategoryStore) LoadMappings() (map[string]int, error) {
	if m.LoadMappingsError != nil {
		return nil, m.LoadMappingsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.Mappings))
	for k, v := range m.Mappings {
		out[k] = v
	}
	return out, nil
}

// SaveMappings replaces the mock mappings.
func (m *MockCategoryStore) SaveMappings(mappings map[string]int) error {
	if m.SaveMappingsError != nil {
		return m.SaveMappingsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mappings = mappings
	return nil
}
