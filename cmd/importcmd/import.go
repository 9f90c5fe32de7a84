// Package importcmd implements the import command
package importcmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"nossas-despesas/expense-import/cmd/root"
	"nossas-despesas/expense-import/internal/common"
	"nossas-despesas/expense-import/internal/currencyutils"
	"nossas-despesas/expense-import/internal/fileutils"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/validation"

	"github.com/spf13/cobra"
)

// ErrNoPersister is returned when a real import runs without api.base_url.
var ErrNoPersister = errors.New("api.base_url is not configured; use --dry-run to preview")

var (
	draftsFile string
	dryRun     bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Parse a statement, predict categories and save the expenses",
	Long: `Parse a statement (or a reviewed drafts CSV written by parse -o),
wait for the category predictions and save every included draft through
the expenses API. Drafts that fail keep their error message and are
reported at the end.

Example:
  expense-import import -i fatura.pdf --dry-run
  expense-import import --drafts reviewed.csv`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVar(&draftsFile, "drafts", "", "Reviewed drafts CSV to import instead of a statement")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the drafts without saving them")
}

// Options selects what Run imports.
type Options struct {
	Input      string
	DraftsFile string
	DryRun     bool
	Delimiter  rune
}

func importFunc(cmd *cobra.Command, _ []string) error {
	opts := Options{
		Input:      root.SharedFlags.Input,
		DraftsFile: draftsFile,
		DryRun:     dryRun,
	}
	if opts.Input == "" && opts.DraftsFile == "" {
		return fmt.Errorf("either --input or --drafts is required")
	}
	if err := validateOptions(opts); err != nil {
		return err
	}

	c := root.GetContainer()
	opts.Delimiter = c.GetConfig().Delimiter()
	if !opts.DryRun && c.GetPersister() == nil {
		return ErrNoPersister
	}

	summary, err := Run(cmd.Context(), c.NewSession(nil), opts, cmd.OutOrStdout(), root.GetLogger())
	if err != nil {
		return err
	}
	if err := c.SaveMappings(); err != nil {
		root.GetLogger().WithError(err).Warn("Failed to save learned category mappings")
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d expense(s) could not be saved", summary.Failed)
	}
	return nil
}

func validateOptions(opts Options) error {
	if opts.DraftsFile != "" {
		return validation.DraftsFile(opts.DraftsFile)
	}
	return validation.StatementFile(opts.Input)
}

// Run loads the drafts into session, waits for predictions, prints them and
// commits unless opts.DryRun is set.
func Run(ctx context.Context, session *importer.Session, opts Options, w io.Writer, logger logging.Logger) (importer.CommitSummary, error) {
	logger = logging.OrDefault(logger)

	if err := load(ctx, session, opts, logger); err != nil {
		return importer.CommitSummary{}, err
	}
	session.Engine().Wait()

	rows := session.Engine().Drafts()
	if err := PrintDrafts(w, rows); err != nil {
		return importer.CommitSummary{}, err
	}
	if opts.DryRun {
		logger.Info("Dry run, nothing saved", logging.Field{Key: logging.FieldCount, Value: len(rows)})
		return importer.CommitSummary{}, nil
	}

	summary, err := session.Commit(ctx)
	if err != nil {
		return summary, err
	}
	return summary, PrintSummary(w, summary, session.Engine().Drafts())
}

func load(ctx context.Context, session *importer.Session, opts Options, logger logging.Logger) error {
	if opts.DraftsFile != "" {
		expenses, err := common.ReadCSVFile[models.ImportedExpenseDraft](opts.DraftsFile, opts.Delimiter, logger)
		if err != nil {
			return err
		}
		if len(expenses) == 0 {
			return fmt.Errorf("%s: %w", opts.DraftsFile, parsererror.ErrNoExpenses)
		}
		session.LoadDrafts(ctx, expenses)
		return nil
	}

	info, err := fileutils.LoadFileInfo(opts.Input)
	if err != nil {
		return err
	}
	if _, err := session.Load(ctx, info); err != nil {
		return fmt.Errorf("%s: %w", parsererror.UserMessage(err), err)
	}
	return nil
}

// PrintDrafts writes one line per row: date, amount, category and description.
func PrintDrafts(w io.Writer, rows []models.ExpenseDraftRow) error {
	for _, row := range rows {
		date := "----------"
		if t, ok := row.Time(); ok {
			date = t.Format("2006-01-02")
		}
		amount := row.AmountInCents
		if cents, err := row.Cents(); err == nil {
			amount = currencyutils.FormatCents(cents)
		}
		if _, err := fmt.Fprintf(w, "%s  %12s  cat=%-4d %s\n", date, amount, row.CategoryID, row.Description); err != nil {
			return err
		}
	}
	return nil
}

// PrintSummary writes the commit counts followed by every row error.
func PrintSummary(w io.Writer, summary importer.CommitSummary, rows []models.ExpenseDraftRow) error {
	if _, err := fmt.Fprintf(w, "saved: %d, failed: %d, skipped: %d\n", summary.Saved, summary.Failed, summary.Skipped); err != nil {
		return err
	}
	for _, row := range rows {
		if row.Status != models.StatusError {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", row.Description, row.ErrorMessage); err != nil {
			return err
		}
	}
	return nil
}
