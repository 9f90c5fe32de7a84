// Package batch converts every statement in a directory into a drafts CSV.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"nossas-despesas/expense-import/internal/common"
	"nossas-despesas/expense-import/internal/fileutils"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the files parsed at the same time.
const DefaultConcurrency = 4

// OutputSuffix is appended to the statement name to build the drafts file name.
const OutputSuffix = "_drafts.csv"

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// DraftsRange returns the period covered by the dated drafts.
func DraftsRange(drafts []models.ImportedExpenseDraft) DateRange {
	var dr DateRange
	for _, d := range drafts {
		if t, ok := d.Time(); ok {
			dr = dr.Merge(DateRange{Start: t, End: t})
		}
	}
	return dr
}

// FileResult is the outcome for one statement.
type FileResult struct {
	File      string
	Output    string
	Drafts    int
	DateRange DateRange
	Err       error
}

// Summary collects the results of ProcessDirectory in file name order.
type Summary struct {
	Results []FileResult
}

// Succeeded counts files written without error.
func (s Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (s Summary) Failed() []FileResult {
	var failed []FileResult
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Processor parses statements through an import service and writes one
// drafts CSV per file.
type Processor struct {
	service     *importer.Service
	delimiter   rune
	concurrency int
	logger      logging.Logger
}

// NewProcessor creates a Processor. concurrency <= 0 selects DefaultConcurrency.
func NewProcessor(service *importer.Service, delimiter rune, concurrency int, logger logging.Logger) *Processor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Processor{
		service:     service,
		delimiter:   delimiter,
		concurrency: concurrency,
		logger:      logging.OrDefault(logger),
	}
}

// OutputPath returns the drafts file for statement inside outputDir.
func OutputPath(statement, outputDir string) string {
	base := filepath.Base(statement)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, name+OutputSuffix)
}

// ProcessDirectory converts every accepted file directly under inputDir.
// A failing file is recorded in its result and does not stop the others;
// the returned error covers only directory access and cancellation.
func (p *Processor) ProcessDirectory(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	files, err := fileutils.ListStatementFiles(inputDir)
	if err != nil {
		return Summary{}, err
	}
	if err := fileutils.EnsureDirectoryExists(outputDir); err != nil {
		return Summary{}, err
	}

	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessFile(gctx, file, outputDir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{Results: results}, fmt.Errorf("batch interrupted: %w", err)
	}

	summary := Summary{Results: results}
	p.logger.Info("Batch completed",
		logging.Field{Key: "total_files", Value: len(files)},
		logging.Field{Key: "succeeded", Value: summary.Succeeded()},
		logging.Field{Key: "failed", Value: len(summary.Failed())})
	return summary, nil
}

// ProcessFile parses one statement and writes its drafts file.
func (p *Processor) ProcessFile(ctx context.Context, file, outputDir string) FileResult {
	result := FileResult{File: file, Output: OutputPath(file, outputDir)}
	logger := p.logger.WithField(logging.FieldFile, filepath.Base(file))

	info, err := fileutils.LoadFileInfo(file)
	if err != nil {
		result.Err = err
		return result
	}

	drafts, err := p.service.ParseFile(ctx, info)
	if err != nil {
		logger.WithError(err).Warn("Failed to parse statement")
		result.Err = err
		return result
	}

	if err := common.WriteDraftsToCSV(drafts, result.Output, p.delimiter, logger); err != nil {
		result.Err = err
		return result
	}

	result.Drafts = len(drafts)
	result.DateRange = DraftsRange(drafts)
	logger.Debug("Statement converted",
		logging.Field{Key: logging.FieldCount, Value: result.Drafts},
		logging.Field{Key: logging.FieldOutputFile, Value: result.Output})
	return result
}
