// Package drafts owns the editable working set of an import session.
package drafts

import (
	"context"
	"errors"
	"sort"
	"sync"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/predict"

	"golang.org/x/sync/errgroup"
)

// DefaultCategoryID is used when the category catalog is empty.
const DefaultCategoryID = 1

// CategoryPredictor suggests a category for a draft.
type CategoryPredictor interface {
	PredictCategory(ctx context.Context, name string, amountCents int64) (int, error)
}

// OverrideFunc reports whether the user already chose the category of a
// row. Predictions never replace such a choice. It is called with the
// engine lock held and must not call back into the Engine.
type OverrideFunc func(draftID string) bool

// Config holds the defaults applied to new rows.
type Config struct {
	// DefaultCategoryID seeds every row. Zero means DefaultCategoryID.
	DefaultCategoryID int
	// PayerID seeds every row; zero leaves the payer unset.
	PayerID int
}

// Engine is safe for concurrent use. Rows are mutated only through
// InitializeDrafts, UpdateDraft and ResetDrafts; readers get copies.
type Engine struct {
	mu         sync.Mutex
	rows       []models.ExpenseDraftRow
	index      map[string]int
	predicting map[string]struct{}
	generation uint64
	cancel     context.CancelFunc
	group      *errgroup.Group

	cfg        Config
	predictor  CategoryPredictor
	overridden OverrideFunc
	logger     logging.Logger
}

// NewEngine creates an empty engine. predictor and overridden may be nil.
func NewEngine(cfg Config, predictor CategoryPredictor, overridden OverrideFunc, logger logging.Logger) *Engine {
	if cfg.DefaultCategoryID == 0 {
		cfg.DefaultCategoryID = DefaultCategoryID
	}
	return &Engine{
		index:      make(map[string]int),
		predicting: make(map[string]struct{}),
		group:      &errgroup.Group{},
		cancel:     func() {},
		cfg:        cfg,
		predictor:  predictor,
		overridden: overridden,
		logger:     logging.OrDefault(logger),
	}
}

// InitializeDrafts replaces the working set with drafts, all included, idle,
// with the default category and payer. One category prediction per row is
// started in the background; ctx bounds those predictions.
func (e *Engine) InitializeDrafts(ctx context.Context, drafts []models.ImportedExpenseDraft) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.rows = make([]models.ExpenseDraftRow, 0, len(drafts))
	for _, d := range drafts {
		e.index[d.ID] = len(e.rows)
		e.rows = append(e.rows, models.ExpenseDraftRow{
			ImportedExpenseDraft: d,
			Include:              true,
			CategoryID:           e.cfg.DefaultCategoryID,
			PayerID:              e.cfg.PayerID,
			Status:               models.StatusIdle,
		})
	}

	if e.predictor == nil || len(drafts) == 0 {
		return
	}

	predictCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	generation := e.generation
	// Spawned under the lock so Wait always sees the whole batch.
	for _, d := range drafts {
		d := d
		e.predicting[d.ID] = struct{}{}
		e.group.Go(func() error {
			e.predict(predictCtx, generation, d)
			return nil
		})
	}
}

// predict never fails the group: a failed prediction keeps the default category.
func (e *Engine) predict(ctx context.Context, generation uint64, draft models.ImportedExpenseDraft) {
	cents, err := draft.Cents()
	if err != nil {
		cents = 0
	}
	categoryID, err := e.predictor.PredictCategory(ctx, draft.Description, cents)

	e.mu.Lock()
	defer e.mu.Unlock()

	if generation != e.generation {
		return
	}
	delete(e.predicting, draft.ID)

	logger := e.logger.WithField(logging.FieldDraftID, draft.ID)
	if errors.Is(err, predict.ErrNoPrediction) {
		logger.Debug("No category prediction")
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Category prediction failed")
		return
	}
	// The override check runs under the lock so a category chosen by the
	// user cannot land between the check and the write.
	idx, ok := e.index[draft.ID]
	if !ok || (e.overridden != nil && e.overridden(draft.ID)) {
		logger.Debug("Discarding category prediction")
		return
	}
	e.rows[idx].CategoryID = categoryID
	logger.Debug("Applied category prediction", logging.Field{Key: logging.FieldCategory, Value: categoryID})
}

// UpdateDraft merges update into the row with the given id and reports
// whether the row exists. An update without an explicit status on a row in
// success or error sends it back to idle and clears its error message,
// unless the update sets a message itself.
func (e *Engine) UpdateDraft(id string, update models.DraftUpdate) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.index[id]
	if !ok {
		return false
	}
	row := &e.rows[idx]
	requeue := update.Status == nil && row.Status.IsTerminal()

	update.Apply(row)
	if requeue {
		row.Status = models.StatusIdle
		if update.ErrorMessage == nil {
			row.ErrorMessage = ""
		}
	}
	return true
}

// ResetDrafts clears the working set. Predictions still in flight are
// cancelled and their results ignored.
func (e *Engine) ResetDrafts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.cancel()
	e.cancel = func() {}
	e.generation++
	e.rows = nil
	e.index = make(map[string]int)
	e.predicting = make(map[string]struct{})
	e.group = &errgroup.Group{}
}

// Wait blocks until the predictions started by the current batch settle.
func (e *Engine) Wait() {
	e.mu.Lock()
	group := e.group
	e.mu.Unlock()
	_ = group.Wait()
}

// Drafts returns a copy of every row in list order.
func (e *Engine) Drafts() []models.ExpenseDraftRow {
	return e.filter(func(models.ExpenseDraftRow) bool { return true })
}

// Draft returns a copy of the row with the given id.
func (e *Engine) Draft(id string) (models.ExpenseDraftRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.index[id]
	if !ok {
		return models.ExpenseDraftRow{}, false
	}
	return e.rows[idx], true
}

// SelectedDrafts returns the included rows.
func (e *Engine) SelectedDrafts() []models.ExpenseDraftRow {
	return e.filter(func(r models.ExpenseDraftRow) bool { return r.Include })
}

// DraftsToPersist returns the included rows not yet saved.
func (e *Engine) DraftsToPersist() []models.ExpenseDraftRow {
	return e.filter(func(r models.ExpenseDraftRow) bool {
		return r.Include && r.Status != models.StatusSuccess
	})
}

// Predicting returns the ids of rows with an outstanding prediction, sorted.
func (e *Engine) Predicting() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.predicting))
	for id := range e.predicting {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) filter(keep func(models.ExpenseDraftRow) bool) []models.ExpenseDraftRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.ExpenseDraftRow, 0, len(e.rows))
	for _, r := range e.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
