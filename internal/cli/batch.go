package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stockmaster/internal/handlers/catalog"
	"stockmaster/internal/listview"
	"stockmaster/internal/validation"
)

func newExportCmd(e *env) *cobra.Command {
	var (
		format string
		out    string
		q      catalog.Query
	)
	cmd := &cobra.Command{
		Use:   "export <customers|products>",
		Short: "Export every matching record to xlsx, pdf or csv",
		Example: `  stockmaster export products --format pdf --search widget --sort name
  stockmaster export customers --filter country=MA --out customers.csv --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := e.openBatch(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			s, err := b.screen(args[0])
			if err != nil {
				return err
			}
			art, res, err := s.ExportMatching(cmd.Context(), cliSubject, q, listview.Format(strings.ToLower(format)))
			if err != nil {
				return err
			}
			if out == "" {
				out = art.Filename
			}
			if err := writeArtifact(out, art); err != nil {
				return err
			}
			cmd.Printf("Exported %d %s record(s) to %s\n", res.Exported, s.Resource(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(listview.FormatXLSX), "xlsx, pdf or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <resource>.<format>)")
	cmd.Flags().StringVar(&q.Search, "search", "", "free-text search")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "sort column")
	cmd.Flags().StringToStringVar(&q.Filters, "filter", nil, "structured filter key=value (repeatable)")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "import <customers|products> <file>",
		Short:   "Import records from an xlsx or csv file",
		Long:    "Every row is validated first; nothing is written unless the whole file is valid.",
		Example: "  stockmaster import customers customers.csv",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := e.openBatch(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			s, err := b.screen(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			rep, err := s.ImportFile(cmd.Context(), cliSubject, f, filepath.Base(args[1]))
			var ve *validation.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve.Errors {
					cmd.PrintErrf("  %s: %s\n", fe.Field, fe.Message)
				}
				return fmt.Errorf("%s rejected: %d problem(s)", args[1], len(ve.Errors))
			}
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d of %d row(s) into %s\n", rep.Inserted, rep.Rows, s.Resource())
			return nil
		},
	}
}

func newSampleCmd(e *env) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "sample <customers|products>",
		Short: "Write the import template for a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := e.openBatch(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			s, err := b.screen(args[0])
			if err != nil {
				return err
			}
			art, err := s.Sample(listview.Format(strings.ToLower(format)))
			if err != nil {
				return err
			}
			if out == "" {
				out = art.Filename
			}
			if err := writeArtifact(out, art); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(listview.FormatXLSX), "xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func writeArtifact(path string, art listview.Artifact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, art.Data, 0o644)
}
