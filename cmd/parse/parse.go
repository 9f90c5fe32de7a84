// Package parse implements the parse command
package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"nossas-despesas/expense-import/cmd/root"
	"nossas-despesas/expense-import/internal/common"
	"nossas-despesas/expense-import/internal/fileutils"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/validation"

	"github.com/spf13/cobra"
)

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a statement into expense drafts",
	Long: `Parse a CSV or PDF statement and print the extracted drafts as JSON,
or write them to a CSV file with --output.

Example:
  expense-import parse -i fatura.pdf
  expense-import parse -i extrato.csv -o drafts.csv`,
	RunE: parseFunc,
}

func parseFunc(cmd *cobra.Command, _ []string) error {
	input, err := root.RequireInput(cmd)
	if err != nil {
		return err
	}
	if err := validation.StatementFile(input); err != nil {
		return err
	}
	if output := root.SharedFlags.Output; output != "" {
		if err := validation.OutputFile(output); err != nil {
			return err
		}
	}
	c := root.GetContainer()
	count, err := Run(cmd.Context(), c.GetService(), input, root.SharedFlags.Output,
		c.GetConfig().Delimiter(), cmd.OutOrStdout(), root.GetLogger())
	if err != nil {
		return err
	}
	root.GetLogger().Info("Parse completed", logging.Field{Key: logging.FieldCount, Value: count})
	return nil
}

// Run parses input and writes the drafts to output, or as JSON to w when
// output is empty. It returns the number of drafts.
func Run(ctx context.Context, service *importer.Service, input, output string, delimiter rune, w io.Writer, logger logging.Logger) (int, error) {
	info, err := fileutils.LoadFileInfo(input)
	if err != nil {
		return 0, err
	}

	expenses, err := service.ParseFile(ctx, info)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", parsererror.UserMessage(err), err)
	}

	if output != "" {
		if err := common.WriteDraftsToCSV(expenses, output, delimiter, logger); err != nil {
			return 0, err
		}
		return len(expenses), nil
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(expenses); err != nil {
		return 0, fmt.Errorf("failed to encode drafts: %w", err)
	}
	return len(expenses), nil
}
