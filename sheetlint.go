// Package sheetlint provides a pure-Go static analyzer for spreadsheet
// workbooks in the OOXML (.xlsx/.xlsm) and OpenDocument (.ods) formats.
// No cgo is required.
//
// # Quick start
//
//	violations, err := sheetlint.Lint("Book1.xlsx", nil)
//	if err != nil { ... }
//
//	for _, v := range violations {
//	    fmt.Printf("%s %s %s: %s\n", v.RuleID, v.Severity, v.Scope.Location(), v.Message)
//	}
//
// Passing a nil config runs every default-active rule with its default
// parameters. To tune thresholds or switch rules on and off, load a TOML
// configuration with [config.Load]:
//
//	cfg, err := config.Load("sheetlint.toml")
//	if err != nil { ... }
//	violations, err := sheetlint.Lint("Book1.xlsx", cfg)
//
// # Reading without linting
//
// [Open] returns the unified workbook model without running any rules, for
// callers that want the parsed sheets, defined names, and external-link
// table directly:
//
//	wb, err := sheetlint.Open("Book1.ods")
//	if err != nil { ... }
//	for _, sheet := range wb.Sheets {
//	    fmt.Println(sheet.Name, len(sheet.Cells))
//	}
//
// Importing this package registers both format readers; programs that link
// only one reader can import github.com/sheetlint/sheetlint/xlsxreader or
// …/odsreader directly and call [model.Open] themselves.
package sheetlint

import (
	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
	_ "github.com/sheetlint/sheetlint/odsreader"
	"github.com/sheetlint/sheetlint/rules"
	_ "github.com/sheetlint/sheetlint/xlsxreader"
)

// Version is the current version of the sheetlint library.
const Version = "1.0.0"

// Open reads the workbook at path into the unified model. The file format
// is selected by extension; anything other than .xlsx, .xlsm, or .ods is
// rejected.
func Open(path string) (*model.Workbook, error) {
	return model.Open(path)
}

// Lint reads the workbook at path and runs the active rules against it.
// A nil cfg means defaults: every default-active rule, default parameters.
func Lint(path string, cfg *config.LinterConfig) ([]rules.Violation, error) {
	wb, err := Open(path)
	if err != nil {
		return nil, err
	}
	return LintWorkbook(wb, cfg)
}

// LintWorkbook runs the active rules against an already loaded workbook.
func LintWorkbook(wb *model.Workbook, cfg *config.LinterConfig) ([]rules.Violation, error) {
	return rules.Run(wb, cfg)
}
