// Package store loads and saves the YAML files backing category selection.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCategoriesFile = "categories.yaml"
	DefaultMappingsFile   = "category_mappings.yaml"
)

// CategoryStore manages the category catalog and the learned
// description-to-category mappings.
type CategoryStore struct {
	CategoriesFile string
	MappingsFile   string
	logger         logging.Logger
}

// NewCategoryStore creates a store. Empty file names select the defaults.
func NewCategoryStore(categoriesFile, mappingsFile string, logger logging.Logger) *CategoryStore {
	if categoriesFile == "" {
		categoriesFile = DefaultCategoriesFile
	}
	if mappingsFile == "" {
		mappingsFile = DefaultMappingsFile
	}
	return &CategoryStore{
		CategoriesFile: categoriesFile,
		MappingsFile:   mappingsFile,
		logger:         logging.OrDefault(logger),
	}
}

// FindConfigFile looks for a configuration file in standard locations.
func (s *CategoryStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join(".expense-import", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".expense-import", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadCategories loads the catalog. A missing file is an empty catalog.
// Both a top-level "groups:" key and a bare list of groups are accepted.
func (s *CategoryStore) LoadCategories() ([]models.CategoryGroup, error) {
	data, path, err := s.read(s.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}
	if data == nil {
		s.logger.Warn("Categories file not found", logging.Field{Key: logging.FieldFile, Value: s.CategoriesFile})
		return []models.CategoryGroup{}, nil
	}

	var cfg models.CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Groups) > 0 {
		s.logger.Debug("Loaded categories", logging.Field{Key: logging.FieldFile, Value: path},
			logging.Field{Key: logging.FieldCount, Value: len(cfg.Groups)})
		return cfg.Groups, nil
	}

	var groups []models.CategoryGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("error parsing categories file %s: %w", path, err)
	}
	return groups, nil
}

// Categories returns every category of the catalog in file order.
func (s *CategoryStore) Categories() ([]models.Category, error) {
	groups, err := s.LoadCategories()
	if err != nil {
		return nil, err
	}
	return models.CategoriesConfig{Groups: groups}.Flatten(), nil
}

// DefaultCategoryID returns the id of the first catalog category, or
// fallback when the catalog is empty or unreadable.
func (s *CategoryStore) DefaultCategoryID(fallback int) int {
	categories, err := s.Categories()
	if err != nil {
		s.logger.WithError(err).Warn("Using fallback category")
		return fallback
	}
	if len(categories) == 0 {
		return fallback
	}
	return categories[0].ID
}

// LoadMappings loads the learned mappings. A missing file is an empty map.
func (s *CategoryStore) LoadMappings() (map[string]int, error) {
	data, path, err := s.read(s.MappingsFile)
	if err != nil {
		return nil, fmt.Errorf("error reading mappings file: %w", err)
	}
	mappings := map[string]int{}
	if data == nil {
		return mappings, nil
	}
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("error parsing mappings file %s: %w", path, err)
	}
	s.logger.Debug("Loaded category mappings", logging.Field{Key: logging.FieldCount, Value: len(mappings)})
	return mappings, nil
}

// SaveMappings writes mappings, next to an existing file or at MappingsFile.
func (s *CategoryStore) SaveMappings(mappings map[string]int) error {
	filePath, err := s.FindConfigFile(s.MappingsFile)
	if errors.Is(err, os.ErrNotExist) {
		filePath = s.MappingsFile
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("error marshaling mappings: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("error writing mappings: %w", err)
	}

	s.logger.Debug("Saved category mappings",
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(mappings)})
	return nil
}

// read returns nil data when the file does not exist.
func (s *CategoryStore) read(filename string) ([]byte, string, error) {
	path, err := s.FindConfigFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- configured path
	if err != nil {
		return nil, path, err
	}
	return data, path, nil
}
