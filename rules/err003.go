package rules

import (
	"fmt"
	"strings"

	"github.com/sheetlint/sheetlint/analysis"
	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/internal/cellref"
	"github.com/sheetlint/sheetlint/model"
)

func init() { register(circularReferences{}) }

// circularReferences builds the cross-sheet dependency graph and reports
// the cycles analysis.FindCycles returns, skipping any cycle that shares a
// cell with one already reported. Default-inactive: it visits every formula
// cell and is by far the most expensive rule; the graph is only built when
// the rule actually runs.
type circularReferences struct{}

func (circularReferences) ID() string          { return "ERR003" }
func (circularReferences) DisplayName() string { return "Circular references" }
func (circularReferences) Category() string    { return CategoryUnresolvedErrors }
func (circularReferences) DefaultActive() bool { return false }

func (c circularReferences) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	graph := analysis.BuildDependencyGraph(wb, func(sheetName string) bool {
		return cfg.GetBoolOr("expand_ranges_in_dependencies", sheetName, false)
	})
	cycles := analysis.FindCycles(graph)

	var violations []Violation
	reported := map[analysis.Node]bool{}
	for _, cycle := range cycles {
		duplicate := false
		for _, node := range cycle {
			if reported[node] {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		for _, node := range cycle {
			reported[node] = true
		}

		path := make([]string, 0, len(cycle)+1)
		for _, node := range cycle {
			path = append(path, node.Sheet+"!"+cellref.FormatCellRef(node.Row, node.Col))
		}
		path = append(path, path[0])

		first := cycle[0]
		violations = append(violations, Violation{
			RuleID:   c.ID(),
			Scope:    CellScope(first.Sheet, first.Row, first.Col),
			Message:  fmt.Sprintf("Circular reference detected: %s", strings.Join(path, " -> ")),
			Severity: SeverityError,
		})
	}
	return violations
}
