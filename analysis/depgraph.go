package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/efp"

	"github.com/sheetlint/sheetlint/model"
)

// Node identifies one cell in the cross-sheet dependency graph. Nodes are
// sheet-qualified so cycles spanning sheets are visible.
type Node struct {
	Sheet string
	Row   int
	Col   int
}

// expandLimit caps range expansion in the dependency graph. Beyond it a
// range contributes only its two corner cells — an over-approximation that
// still catches corner-anchored cycles without exploding whole-column
// references into a million nodes.
const expandLimit = 100_000

// refToken matches one cell or range reference, optionally sheet-qualified
// (bare or quoted). Compiled once; per-formula scans reuse it.
var refToken = regexp.MustCompile(
	`(?:('([^']+)'|([A-Za-z0-9_.]+))!)?\$?([A-Za-z]+)\$?([0-9]+)(?::\$?([A-Za-z]+)\$?([0-9]+))?`)

// ExtractCellReferences lists every cell a formula depends on. Bare
// references resolve to currentSheet. Ranges expand cell-by-cell when
// expandRanges is set and the rectangle stays within expandLimit; otherwise
// only the two corners are reported.
//
// Operand extraction runs on efp's token stream so text inside quoted
// strings never produces phantom references; formulas efp cannot tokenize
// fall back to a whole-string regex scan.
func ExtractCellReferences(formula, currentSheet string, expandRanges bool) []Node {
	var refs []Node
	for _, operand := range rangeOperands(formula) {
		for _, m := range refToken.FindAllStringSubmatch(operand, -1) {
			sheet := currentSheet
			if m[2] != "" {
				sheet = m[2]
			} else if m[3] != "" {
				sheet = m[3]
			}
			startRow, startCol, ok := parseComponents(m[5], m[4])
			if !ok {
				continue
			}
			if m[6] == "" || m[7] == "" {
				refs = append(refs, Node{Sheet: sheet, Row: startRow, Col: startCol})
				continue
			}
			endRow, endCol, ok := parseComponents(m[7], m[6])
			if !ok {
				continue
			}
			minR, maxR := minMax(startRow, endRow)
			minC, maxC := minMax(startCol, endCol)
			if expandRanges && (maxR-minR+1)*(maxC-minC+1) <= expandLimit {
				for row := minR; row <= maxR; row++ {
					for col := minC; col <= maxC; col++ {
						refs = append(refs, Node{Sheet: sheet, Row: row, Col: col})
					}
				}
			} else {
				refs = append(refs,
					Node{Sheet: sheet, Row: startRow, Col: startCol},
					Node{Sheet: sheet, Row: endRow, Col: endCol})
			}
		}
	}
	return refs
}

// rangeOperands returns the formula substrings that can hold cell
// references: efp range-operand tokens when the formula tokenizes, the
// whole formula otherwise.
func rangeOperands(formula string) []string {
	parser := efp.ExcelParser()
	tokens := parser.Parse(formula)
	if len(tokens) == 0 {
		return []string{formula}
	}
	var operands []string
	for _, tok := range tokens {
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange {
			v := tok.TValue
			// efp drops the quotes around a sheet name; put them back when the
			// name is not a bare word so refToken still captures all of it.
			if i := strings.Index(v, "!"); i > 0 && !strings.ContainsAny(v[:i], "'[]") &&
				strings.IndexFunc(v[:i], func(r rune) bool { return r > 127 || (r != '.' && !isWordByte(byte(r))) }) >= 0 {
				v = "'" + v[:i] + "'" + v[i:]
			}
			operands = append(operands, v)
		}
	}
	return operands
}

func parseComponents(rowStr, colStr string) (row, col int, ok bool) {
	r, err := strconv.Atoi(rowStr)
	if err != nil || r < 1 {
		return 0, 0, false
	}
	c := 0
	for _, ch := range colStr {
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < 'A' || ch > 'Z' {
			return 0, 0, false
		}
		c = c*26 + int(ch-'A'+1)
	}
	if c == 0 {
		return 0, 0, false
	}
	return r - 1, c - 1, true
}

func minMax(a, b int) (int, int) {
	if a <= b {
		return a, b
	}
	return b, a
}

// BuildDependencyGraph maps every formula cell to the cells it references.
// expandRanges is looked up per sheet so per-sheet configuration overrides
// apply.
func BuildDependencyGraph(wb *model.Workbook, expandRanges func(sheetName string) bool) map[Node][]Node {
	graph := map[Node][]Node{}
	for _, sheet := range wb.Sheets {
		expand := expandRanges != nil && expandRanges(sheet.Name)
		for ref, cell := range sheet.Cells {
			f, ok := cell.AsFormula()
			if !ok {
				continue
			}
			node := Node{Sheet: sheet.Name, Row: ref.Row, Col: ref.Col}
			graph[node] = ExtractCellReferences(f.Expr, sheet.Name, expand)
		}
	}
	return graph
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// FindCycles returns the elementary cycles closed by the DFS's back edges,
// each as the node path that closes on itself. A graph with any cycle yields
// at least one, but cycles running through nodes the DFS has already
// finished are not reported, so the result is not every elementary cycle
// of the graph. Detection is an iterative
// three-color DFS with explicit (node, nextNeighborIndex) frames — deeply
// chained spreadsheets must not blow the goroutine stack. Start nodes are
// sorted so output order is stable.
func FindCycles(graph map[Node][]Node) [][]Node {
	state := map[Node]visitState{}
	for node, deps := range graph {
		state[node] = unvisited
		for _, dep := range deps {
			if _, ok := state[dep]; !ok {
				state[dep] = unvisited
			}
		}
	}

	keys := make([]Node, 0, len(state))
	for node := range state {
		keys = append(keys, node)
	}
	sort.Slice(keys, func(i, j int) bool { return lessNode(keys[i], keys[j]) })

	type frame struct {
		node Node
		next int
	}

	var cycles [][]Node
	for _, start := range keys {
		if state[start] != unvisited {
			continue
		}
		stack := []frame{{node: start}}
		var path []Node
		inPath := map[Node]bool{}

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if f.next == 0 {
				if inPath[f.node] {
					for i, p := range path {
						if p == f.node {
							cycle := make([]Node, len(path)-i)
							copy(cycle, path[i:])
							cycles = append(cycles, cycle)
							break
						}
					}
					continue
				}
				if state[f.node] == visited {
					continue
				}
				state[f.node] = visiting
				inPath[f.node] = true
				path = append(path, f.node)
			}

			deps := graph[f.node]
			if f.next < len(deps) {
				stack = append(stack, frame{node: f.node, next: f.next + 1})
				stack = append(stack, frame{node: deps[f.next]})
			} else {
				state[f.node] = visited
				delete(inPath, f.node)
				path = path[:len(path)-1]
			}
		}
	}
	return cycles
}

func lessNode(a, b Node) bool {
	if a.Sheet != b.Sheet {
		return a.Sheet < b.Sheet
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}
