// Command sheetlint lints spreadsheet workbooks (.xlsx/.xlsm/.ods) and can
// rewrite an XLSX archive with sheets or defined names removed.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
	_ "github.com/sheetlint/sheetlint/odsreader"
	"github.com/sheetlint/sheetlint/report"
	"github.com/sheetlint/sheetlint/rules"
	"github.com/sheetlint/sheetlint/writer"
	_ "github.com/sheetlint/sheetlint/xlsxreader"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("sheetlint failed", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetlint",
		Short:         "Static analyzer for XLSX and ODS workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(lintCmd(), rewriteCmd())
	return root
}

func lintCmd() *cobra.Command {
	var configPath string
	var format string

	cmd := &cobra.Command{
		Use:   "lint <workbook>",
		Short: "Run the lint rules against a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			wb, err := model.Open(args[0])
			if err != nil {
				return err
			}

			violations, err := rules.Run(wb, cfg)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				out, err := report.FormatJSON(violations)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			case "table":
				fmt.Fprint(cmd.OutOrStdout(), report.FormatTable(violations))
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")
	return cmd
}

func rewriteCmd() *cobra.Command {
	var output string
	var removeSheets []string
	var removeNames []string

	cmd := &cobra.Command{
		Use:   "rewrite <workbook.xlsx>",
		Short: "Copy an XLSX archive with selected sheets and defined names removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			return writer.ModifyWorkbook(args[0], output, writer.Modifications{
				RemoveSheets:      removeSheets,
				RemoveNamedRanges: removeNames,
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path of the rewritten archive")
	cmd.Flags().StringArrayVar(&removeSheets, "remove-sheet", nil, "sheet name to remove (repeatable)")
	cmd.Flags().StringArrayVar(&removeNames, "remove-name", nil, "defined name to remove (repeatable)")
	return cmd
}
