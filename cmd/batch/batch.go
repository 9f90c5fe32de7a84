// Package batch implements the batch command
package batch

import (
	"fmt"
	"io"

	"nossas-despesas/expense-import/cmd/root"
	"nossas-despesas/expense-import/internal/batch"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/validation"

	"github.com/spf13/cobra"
)

var concurrency int

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Convert every statement in a directory into drafts CSV files",
	Long: `Parse every CSV and PDF statement directly inside the input directory
and write <name>_drafts.csv for each one into the output directory.
Files that fail are reported and do not stop the batch.

Example:
  expense-import batch -i statements/ -o drafts/`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().IntVar(&concurrency, "concurrency", batch.DefaultConcurrency, "Number of files parsed in parallel")
}

func batchFunc(cmd *cobra.Command, _ []string) error {
	input, err := root.RequireInput(cmd)
	if err != nil {
		return err
	}
	if err := validation.Directory(input); err != nil {
		return err
	}
	output := root.SharedFlags.Output
	if output == "" {
		output = input
	}

	c := root.GetContainer()
	processor := batch.NewProcessor(c.GetService(), c.GetConfig().Delimiter(), concurrency, root.GetLogger())
	summary, err := processor.ProcessDirectory(cmd.Context(), input, output)
	if err != nil {
		return err
	}
	if err := PrintSummary(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if failed := len(summary.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(summary.Results))
	}
	return nil
}

// PrintSummary writes one line per file followed by the totals.
func PrintSummary(w io.Writer, summary batch.Summary) error {
	for _, r := range summary.Results {
		var err error
		if r.Err != nil {
			_, err = fmt.Fprintf(w, "FAIL %s: %s\n", r.File, parsererror.UserMessage(r.Err))
		} else {
			_, err = fmt.Fprintf(w, "OK   %s -> %s (%d drafts %s)\n", r.File, r.Output, r.Drafts, r.DateRange)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d succeeded, %d failed\n", summary.Succeeded(), len(summary.Failed()))
	return err
}
