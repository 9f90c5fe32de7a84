// Package detect implements the detect command
package detect

import (
	"context"
	"fmt"
	"io"

	"nossas-despesas/expense-import/cmd/root"
	"nossas-despesas/expense-import/internal/fileutils"
	"nossas-despesas/expense-import/internal/importer"
	"nossas-despesas/expense-import/internal/parser"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/pdfparser"
	"nossas-despesas/expense-import/internal/validation"

	"github.com/spf13/cobra"
)

// Cmd represents the detect command
var Cmd = &cobra.Command{
	Use:   "detect",
	Short: "Report which parser claims a statement",
	Long: `Run the parser registry against a file and print the name of the first
parser that claims it, without extracting any drafts.`,
	RunE: detectFunc,
}

func detectFunc(cmd *cobra.Command, _ []string) error {
	input, err := root.RequireInput(cmd)
	if err != nil {
		return err
	}
	if err := validation.StatementFile(input); err != nil {
		return err
	}
	c := root.GetContainer()
	name, err := Detect(cmd.Context(), c.GetRegistry(), c.GetExtractor(), input)
	if err != nil {
		return err
	}
	return Print(cmd.OutOrStdout(), input, name)
}

// Detect returns the name of the parser that claims the file at path, or
// "" when none does.
func Detect(ctx context.Context, registry *parser.Registry, extractor pdfparser.Extractor, path string) (string, error) {
	info, err := fileutils.LoadFileInfo(path)
	if err != nil {
		return "", err
	}
	if !importer.Accepts(info) {
		return "", &parsererror.UnsupportedFileError{Filename: info.Filename, MimeType: info.MimeType}
	}
	if info.IsPDF() && !info.IsText() && extractor == nil {
		return "", &parsererror.ExtractionError{Filename: info.Filename, Err: importer.ErrNoExtractor}
	}

	text, err := pdfparser.ExtractFileInfo(ctx, extractor, info)
	if err != nil {
		return "", err
	}
	p := registry.FindParser(text)
	if p == nil {
		return "", nil
	}
	return p.Name(), nil
}

// Print writes the detection result for path.
func Print(w io.Writer, path, name string) error {
	if name == "" {
		_, err := fmt.Fprintf(w, "%s: %s\n", path, parsererror.MsgNoCompatibleParser)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", path, name)
	return err
}
