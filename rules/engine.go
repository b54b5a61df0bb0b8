package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
)

// Rule is the capability set every lint rule implements.
type Rule interface {
	ID() string
	DisplayName() string
	Category() string
	// DefaultActive reports whether the rule runs when the config mentions
	// it in neither enabled_rules nor disabled_rules.
	DefaultActive() bool
	Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation
}

// Rule categories, keyed by the id prefix each one owns.
const (
	CategoryUnresolvedErrors = "Unresolved Errors"            // ERR
	CategoryFormula          = "Formula"                      // FORM
	CategoryPerformance      = "Performance"                  // PERF
	CategorySecurity         = "Security & Privacy"           // SEC
	CategoryStructural       = "Structural & Maintainability" // SM
	CategoryUsability        = "Formatting & Usability"       // UX
)

var categoryPrefixes = []string{"ERR", "FORM", "PERF", "SEC", "SM", "UX"}

var registry []Rule

// register adds a rule to the registry; each rule file calls it from
// init().
func register(r Rule) {
	registry = append(registry, r)
}

// All returns every registered rule in ascending id order.
func All() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ValidTokens returns the selector vocabulary configs may use: every rule
// id, every category prefix, and ALL.
func ValidTokens() map[string]bool {
	tokens := map[string]bool{"ALL": true}
	for _, prefix := range categoryPrefixes {
		tokens[prefix] = true
	}
	for _, r := range registry {
		tokens[r.ID()] = true
	}
	return tokens
}

// Run validates the config, executes every active rule, and returns the
// deduplicated violation list. Rules run in ascending id order; a rule
// that panics contributes a single distinguishable violation instead of
// aborting the run.
func Run(wb *model.Workbook, cfg *config.LinterConfig) ([]Violation, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(ValidTokens()); err != nil {
		return nil, err
	}

	var violations []Violation
	for _, rule := range All() {
		if !isActive(rule, cfg) {
			continue
		}
		// Each rule gets its own deep copy so per-sheet lookups inside a
		// rule can never mutate the engine's instance.
		violations = append(violations, runRule(rule, wb, cfg.Clone())...)
	}

	violations = maskSheetDisabled(violations, cfg)
	return dedupe(violations), nil
}

// isActive decides whether a rule runs at all: the global enable/disable
// logic first, then the rule's default-active flag when the config never
// mentions it.
func isActive(rule Rule, cfg *config.LinterConfig) bool {
	if !cfg.IsRuleEnabled(rule.ID()) {
		return false
	}
	if rule.DefaultActive() {
		return true
	}
	// Default-inactive rules still run when the config opts them in by any
	// matching enabled selector.
	for _, sel := range cfg.Global.EnabledRules {
		if sel == "ALL" || sel == rule.ID() || strings.HasPrefix(rule.ID(), sel) {
			return true
		}
	}
	return false
}

// runRule executes one rule, converting a panic into a violation so one
// broken rule cannot take down the whole report.
func runRule(rule Rule, wb *model.Workbook, cfg *config.LinterConfig) (out []Violation) {
	defer func() {
		if r := recover(); r != nil {
			out = []Violation{{
				RuleID:   rule.ID(),
				Scope:    BookScope(),
				Message:  fmt.Sprintf("internal rule error: %v", r),
				Severity: SeverityError,
			}}
		}
	}()
	return rule.Check(wb, cfg)
}

// maskSheetDisabled drops violations scoped to a sheet where the rule is
// disabled by that sheet's config section.
func maskSheetDisabled(violations []Violation, cfg *config.LinterConfig) []Violation {
	if len(cfg.Sheets) == 0 {
		return violations
	}
	out := violations[:0]
	for _, v := range violations {
		if v.Scope.Kind != ScopeBook && !cfg.IsRuleEnabledForSheet(v.RuleID, v.Scope.Sheet) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func dedupe(violations []Violation) []Violation {
	seen := make(map[Violation]bool, len(violations))
	out := violations[:0]
	for _, v := range violations {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
