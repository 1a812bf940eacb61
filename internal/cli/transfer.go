package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/moviedex/internal/catalog"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the catalog as JSON lines",
		Long:  "Write every item as one JSON object per line, to file or to stdout. A file is replaced atomically.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			if len(args) == 0 {
				_, err := svc.Export(cmd.Context(), cmd.OutOrStdout())
				return err
			}
			n, err := svc.ExportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]int{"exported": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", plural(int64(n), "item"), args[0])
			return nil
		},
	}
}

type importReport struct {
	Imported int          `json:"imported"`
	Rejected []lineReport `json:"rejected"`
}

type lineReport struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Add items from JSON lines",
		Long: `Add every record of a JSON lines file ("-" reads stdin). Each record is
validated like an add and gets a new ID. Invalid records are reported by
line number and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			var res catalog.ImportResult
			if args[0] == "-" {
				res, err = svc.Import(cmd.Context(), cmd.InOrStdin())
			} else {
				res, err = svc.ImportFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			report := importReport{Imported: res.Imported, Rejected: []lineReport{}}
			for _, rej := range res.Rejected {
				report.Rejected = append(report.Rejected, lineReport{Line: rej.Line, Error: rej.Err.Error()})
			}
			if a.flags.jsonMode {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", plural(int64(report.Imported), "item"))
				for _, r := range report.Rejected {
					fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s\n", r.Line, r.Error)
				}
			}
			if len(report.Rejected) > 0 {
				return fmt.Errorf("%s rejected", plural(int64(len(report.Rejected)), "record"))
			}
			return nil
		},
	}
}
