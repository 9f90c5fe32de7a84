package store

import (
	"os"
	"path/filepath"
	"testing"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
}

// newTestStore returns a CategoryStore reading from dir.
func newTestStore(dir string) *CategoryStore {
	return NewCategoryStore(
		filepath.Join(dir, "categories.yaml"),
		filepath.Join(dir, "category_mappings.yaml"),
		logging.NewMockLogger())
}

func TestNewCategoryStore_Defaults(t *testing.T) {
	s := NewCategoryStore("", "", nil)
	assert.Equal(t, DefaultCategoriesFile, s.CategoriesFile)
	assert.Equal(t, DefaultMappingsFile, s.MappingsFile)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.yaml")
	writeFile(t, testFile, "x: 1")

	s := newTestStore(dir)

	file, err := s.FindConfigFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, testFile, file)

	_, err = s.FindConfigFile(filepath.Join(dir, "nonexistent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCategories(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []int
		wantErr bool
	}{
		{
			name: "groups key",
			content: `groups:
  - name: Casa
    categories:
      - id: 3
        name: Aluguel
      - id: 4
        name: Energia
  - name: Lazer
    categories:
      - id: 9
        name: Cinema
`,
			want: []int{3, 4, 9},
		},
		{
			name: "bare list",
			content: `- name: Comida
  categories:
    - id: 11
      name: Mercado
`,
			want: []int{11},
		},
		{
			name:    "malformed",
			content: "groups: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "categories.yaml"), tt.content)
			s := newTestStore(dir)

			cats, err := s.Categories()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 42, s.DefaultCategoryID(42))
				return
			}
			require.NoError(t, err)

			var ids []int
			for _, c := range cats {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.want[0], s.DefaultCategoryID(42))
		})
	}
}

func TestLoadCategories_MissingFile(t *testing.T) {
	s := newTestStore(t.TempDir())

	groups, err := s.LoadCategories()
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Equal(t, 42, s.DefaultCategoryID(42))
}

func TestMappings_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewCategoryStore(
		filepath.Join(dir, "categories.yaml"),
		filepath.Join(dir, "nested", "category_mappings.yaml"),
		nil)

	empty, err := s.LoadMappings()
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.SaveMappings(map[string]int{"padaria": 7}))

	loaded, err := s.LoadMappings()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"padaria": 7}, loaded)
}

func TestMockCategoryStore(t *testing.T) {
	m := &MockCategoryStore{Groups: []models.CategoryGroup{{Name: "g", Categories: []models.Category{{ID: 1}}}}}

	groups, err := m.LoadCategories()
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	require.NoError(t, m.SaveMappings(map[string]int{"a": 1}))
	got, err := m.LoadMappings()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, got)
}
