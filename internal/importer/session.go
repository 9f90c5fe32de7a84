package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nossas-despesas/expense-import/internal/drafts"
	"nossas-despesas/expense-import/internal/expenseapi"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
)

// Row validation messages.
const (
	MsgReviewDraft = "Revise a descrição e o valor antes de salvar."
	MsgChoosePayer = "Escolha quem pagou esta despesa."
)

// ErrNoCurrentUser is returned by Commit when the session has no user.
var ErrNoCurrentUser = errors.New("current user is not set")

// ErrNoPersister is returned by Commit when the session cannot save expenses.
var ErrNoPersister = errors.New("no expense persister configured")

// Learner is told about every category confirmed by a successful save.
type Learner interface {
	Learn(name string, categoryID int)
}

// SessionConfig identifies the group members and the row defaults.
type SessionConfig struct {
	Drafts    drafts.Config
	MeID      int
	PartnerID int
	// Now stamps drafts without a date. Defaults to time.Now.
	Now func() time.Time
}

// CommitSummary counts the outcome of one Commit.
type CommitSummary struct {
	Saved   int
	Failed  int
	Skipped int
}

// Session is one import: the draft engine plus the categories the user
// chose by hand.
type Session struct {
	service   *Service
	engine    *drafts.Engine
	persister expenseapi.Persister
	learner   Learner
	cfg       SessionConfig
	logger    logging.Logger

	mu        sync.Mutex
	overrides map[string]struct{}
}

// NewSession creates a session. predictor and learner may be nil.
func NewSession(cfg SessionConfig, service *Service, predictor drafts.CategoryPredictor, persister expenseapi.Persister, learner Learner, logger logging.Logger) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Session{
		service:   service,
		persister: persister,
		learner:   learner,
		cfg:       cfg,
		logger:    logging.OrDefault(logger),
		overrides: make(map[string]struct{}),
	}
	s.engine = drafts.NewEngine(cfg.Drafts, predictor, s.isOverridden, s.logger)
	return s
}

// Engine exposes the draft engine for read access.
func (s *Session) Engine() *drafts.Engine {
	return s.engine
}

func (s *Session) isOverridden(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.overrides[id]
	return ok
}

// Load parses info and replaces the working set with its drafts.
func (s *Session) Load(ctx context.Context, info models.FileInfo) ([]models.ExpenseDraftRow, error) {
	expenses, err := s.service.ParseFile(ctx, info)
	if err != nil {
		return nil, err
	}
	return s.LoadDrafts(ctx, expenses), nil
}

// LoadDrafts replaces the working set with already parsed drafts, such as
// a reviewed export.
func (s *Session) LoadDrafts(ctx context.Context, expenses []models.ImportedExpenseDraft) []models.ExpenseDraftRow {
	s.clearOverrides()
	s.engine.InitializeDrafts(ctx, expenses)
	return s.engine.Drafts()
}

// UpdateDraft applies update. Setting a category marks it as chosen by the
// user, so later predictions leave it alone.
func (s *Session) UpdateDraft(id string, update models.DraftUpdate) bool {
	if update.CategoryID != nil {
		s.mu.Lock()
		s.overrides[id] = struct{}{}
		s.mu.Unlock()
	}
	return s.engine.UpdateDraft(id, update)
}

// SetCategory is UpdateDraft with only a category.
func (s *Session) SetCategory(id string, categoryID int) bool {
	return s.UpdateDraft(id, models.DraftUpdate{CategoryID: &categoryID})
}

// Reset discards the working set and the user choices.
func (s *Session) Reset() {
	s.clearOverrides()
	s.engine.ResetDrafts()
}

func (s *Session) clearOverrides() {
	s.mu.Lock()
	s.overrides = make(map[string]struct{})
	s.mu.Unlock()
}

// Commit saves the included, unsaved rows one by one in list order. A row
// failure is recorded on the row and does not stop the batch. Commit stops
// early only when ctx is done.
func (s *Session) Commit(ctx context.Context) (CommitSummary, error) {
	var summary CommitSummary
	if s.cfg.MeID == 0 {
		return summary, ErrNoCurrentUser
	}
	if s.persister == nil {
		return summary, ErrNoPersister
	}

	rows := s.engine.DraftsToPersist()
	for _, r := range s.engine.Drafts() {
		if !r.Include {
			summary.Skipped++
		}
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("commit interrupted: %w", err)
		}
		if s.commitRow(ctx, row) {
			summary.Saved++
		} else {
			summary.Failed++
		}
	}

	s.logger.Info("Import committed",
		logging.Field{Key: "saved", Value: summary.Saved},
		logging.Field{Key: "failed", Value: summary.Failed},
		logging.Field{Key: "skipped", Value: summary.Skipped})
	return summary, nil
}

func (s *Session) commitRow(ctx context.Context, row models.ExpenseDraftRow) bool {
	logger := s.logger.WithField(logging.FieldDraftID, row.ID)

	amount, err := row.Cents()
	if row.Description == "" || row.AmountInCents == "" || err != nil {
		s.engine.UpdateDraft(row.ID, models.StatusUpdate(models.StatusError, MsgReviewDraft))
		return false
	}
	if row.PayerID == 0 {
		s.engine.UpdateDraft(row.ID, models.StatusUpdate(models.StatusError, MsgChoosePayer))
		return false
	}

	s.engine.UpdateDraft(row.ID, models.StatusUpdate(models.StatusSaving, ""))

	createdAt, ok := row.Time()
	if !ok {
		createdAt = s.cfg.Now().UTC()
	}
	record := models.ExpenseRecord{
		Name:       row.Description,
		Amount:     amount,
		CategoryID: row.CategoryID,
		PayerID:    row.PayerID,
		ReceiverID: s.receiverFor(row.PayerID),
		SplitType:  row.SplitType,
		CreatedAt:  createdAt,
	}

	if err := s.persister.CreateExpense(ctx, record); err != nil {
		logger.WithError(err).Warn("Failed to save expense")
		s.engine.UpdateDraft(row.ID, models.StatusUpdate(models.StatusError, expenseapi.UserMessage(err)))
		return false
	}

	s.engine.UpdateDraft(row.ID, models.StatusUpdate(models.StatusSuccess, ""))
	if s.learner != nil {
		s.learner.Learn(row.Description, row.CategoryID)
	}
	logger.Debug("Saved expense")
	return true
}

// receiverFor returns the partner when the current user paid, otherwise the
// current user.
func (s *Session) receiverFor(payerID int) int {
	if payerID == s.cfg.MeID {
		return s.cfg.PartnerID
	}
	return s.cfg.MeID
}
