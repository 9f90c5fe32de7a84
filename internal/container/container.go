// Package container provides dependency injection for the expense-import
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"nossas-despesas/expense-import/internal/config"
	"nossas-despesas/expense-import/internal/dateutils"
	"nossas-despesas/expense-import/internal/drafts"
	"nossas-despesas/expense-import/internal/expenseapi"
	"nossas-despesas/expense-import/internal/factory"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/parser"
	"nossas-despesas/expense-import/internal/pdfparser"
	"nossas-despesas/expense-import/internal/predict"
	"nossas-despesas/expense-import/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     *store.CategoryStore
	registry  *parser.Registry
	extractor pdfparser.Extractor
	service   *importer.Service

	// mapping answers from learned descriptions, then keywords, then the
	// remote backend.
	mapping   *predict.MappingPredictor
	keywords  *predict.KeywordPredictor
	remote    predict.Predictor
	gemini    *predict.GeminiPredictor
	persister expenseapi.Persister

	defaultCategoryID int
}

// NewContainer creates and wires all application dependencies with the
// logger described by cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, config.ConfigureLoggingFromConfig(cfg))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger = logging.OrDefault(logger)

	categoryStore := store.NewCategoryStore(cfg.Categories.File, cfg.Categories.MappingsFile, logger)

	opts := factory.Options{
		PDF: pdfparser.Config{
			SectionMarker:        cfg.Parsers.PDF.SectionMarker,
			DescriptionSeparator: cfg.Parsers.PDF.DescriptionSeparator,
		},
		InterHeaderKeyword: cfg.Parsers.Inter.HeaderKeyword,
		Dates:              dateutils.DateParser{Pivot: cfg.Import.TwoDigitYearPivot},
		SplitType:          cfg.SplitType(),
	}
	registry := factory.NewDefaultRegistry(opts, logger)
	extractor := pdfparser.NewCommandExtractor(cfg.Parsers.PDF.ExtractorCommand, cfg.ExtractTimeout(), logger)

	c := &Container{
		logger:            logger,
		config:            cfg,
		store:             categoryStore,
		registry:          registry,
		extractor:         extractor,
		service:           importer.NewService(registry, extractor, logger),
		defaultCategoryID: categoryStore.DefaultCategoryID(cfg.Import.DefaultCategoryID),
	}

	if err := c.wirePrediction(ctx); err != nil {
		return nil, err
	}

	if cfg.API.BaseURL != "" {
		client, err := expenseapi.NewClient(expenseapi.Config{
			BaseURL: cfg.API.BaseURL,
			Token:   cfg.API.Token,
			Timeout: cfg.APITimeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create expense api client: %w", err)
		}
		c.persister = client
	}

	logger.Info("Container initialized successfully",
		logging.Field{Key: "parsers_count", Value: len(registry.Parsers())},
		logging.Field{Key: "predict_enabled", Value: cfg.Predict.Enabled},
		logging.Field{Key: logging.FieldCategory, Value: c.defaultCategoryID})

	return c, nil
}

func (c *Container) wirePrediction(ctx context.Context) error {
	cfg := c.config

	if cfg.Predict.Enabled {
		switch cfg.Predict.Backend {
		case config.BackendGemini:
			categories, err := c.store.Categories()
			if err != nil {
				return fmt.Errorf("failed to load categories: %w", err)
			}
			gemini, err := predict.NewGeminiPredictor(ctx, cfg.Predict.APIKey, cfg.Predict.Model,
				categories, cfg.Predict.RequestsPerMinute, c.logger)
			if err != nil {
				return fmt.Errorf("failed to create gemini predictor: %w", err)
			}
			c.gemini = gemini
			c.remote = gemini
		default:
			httpPredictor, err := predict.NewHTTPPredictor(predict.HTTPConfig{
				BaseURL:           cfg.Predict.BaseURL,
				Path:              cfg.Predict.Path,
				Token:             cfg.Predict.Token,
				Timeout:           cfg.PredictTimeout(),
				RequestsPerMinute: cfg.Predict.RequestsPerMinute,
			}, c.logger)
			if err != nil {
				return fmt.Errorf("failed to create prediction client: %w", err)
			}
			c.remote = httpPredictor
		}
	}

	next := c.remote
	categories, err := c.store.Categories()
	if err != nil {
		c.logger.WithError(err).Warn("Ignoring category keywords")
		categories = nil
	}
	c.keywords = predict.NewKeywordPredictor(categories, c.remote, c.logger)
	if c.keywords.Len() > 0 {
		next = c.keywords
	}

	mappings, err := c.store.LoadMappings()
	if err != nil {
		c.logger.WithError(err).Warn("Ignoring category mappings")
		mappings = nil
	}
	c.mapping = predict.NewMappingPredictor(mappings, next)
	return nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the container's category store instance.
func (c *Container) GetStore() *store.CategoryStore {
	return c.store
}

// GetRegistry returns the parser registry.
func (c *Container) GetRegistry() *parser.Registry {
	return c.registry
}

// GetExtractor returns the PDF text extractor.
func (c *Container) GetExtractor() pdfparser.Extractor {
	return c.extractor
}

// GetService returns the import service.
func (c *Container) GetService() *importer.Service {
	return c.service
}

// GetPredictor returns the category predictor, or nil when there is no
// backend, no catalog keyword and no learned mapping.
func (c *Container) GetPredictor() predict.Predictor {
	if c.remote == nil && c.keywords.Len() == 0 && len(c.mapping.Mappings()) == 0 {
		return nil
	}
	return c.mapping
}

// GetPersister returns the persistence API client, or nil when no API is
// configured.
func (c *Container) GetPersister() expenseapi.Persister {
	return c.persister
}

// DefaultCategoryID returns the category that seeds every draft.
func (c *Container) DefaultCategoryID() int {
	return c.defaultCategoryID
}

// NewSession starts an import session wired to the container's services.
// persister overrides the configured API client when non-nil.
func (c *Container) NewSession(persister expenseapi.Persister) *importer.Session {
	if persister == nil {
		persister = c.persister
	}
	var learner importer.Learner
	if c.config.Categories.AutoLearn {
		learner = c.mapping
	}
	cfg := importer.SessionConfig{
		Drafts: drafts.Config{
			DefaultCategoryID: c.defaultCategoryID,
			PayerID:           c.config.Import.PayerID,
		},
		MeID:      c.config.Import.PayerID,
		PartnerID: c.config.Import.PartnerID,
	}
	var predictor drafts.CategoryPredictor
	if p := c.GetPredictor(); p != nil {
		predictor = p
	}
	return importer.NewSession(cfg, c.service, predictor, persister, learner, c.logger)
}

// SaveMappings persists the learned description mappings.
func (c *Container) SaveMappings() error {
	if !c.config.Categories.AutoLearn {
		return nil
	}
	return c.store.SaveMappings(c.mapping.Mappings())
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	if c.gemini != nil {
		if err := c.gemini.Close(); err != nil {
			return fmt.Errorf("failed to close gemini client: %w", err)
		}
	}
	c.logger.Debug("Container closed")
	return nil
}
