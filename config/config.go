// Package config implements the linter's hierarchical configuration:
// a global section plus per-sheet overrides, loaded from TOML. Rule
// activation uses selectors (exact rule id, category prefix, or ALL) with
// disabled winning over enabled; parameter lookup falls back sheet →
// global.
//
// TOML decoding preserves key case, which matters: sheet names are
// case-sensitive section keys ([sheets."My Sheet"]).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tiendc/go-deepcopy"
)

// GlobalConfig is the [global] section: activation selectors plus free-form
// parameters.
type GlobalConfig struct {
	EnabledRules  []string
	DisabledRules []string
	// Params holds every other key of the section. Values keep their TOML
	// dynamic types: int64, float64, bool, string, or []any.
	Params map[string]any
}

// SheetConfig is one [sheets."Name"] section.
type SheetConfig struct {
	DisabledRules []string
	Params        map[string]any
}

// LinterConfig is the full configuration tree.
type LinterConfig struct {
	Global GlobalConfig
	Sheets map[string]SheetConfig
}

// Default returns an empty configuration: every rule at its default
// activation, no parameter overrides.
func Default() *LinterConfig {
	return &LinterConfig{
		Global: GlobalConfig{Params: map[string]any{}},
		Sheets: map[string]SheetConfig{},
	}
}

// Load reads a TOML configuration file.
func Load(path string) (*LinterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes TOML configuration text.
func Parse(text string) (*LinterConfig, error) {
	var raw map[string]any
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg := Default()
	if global, ok := raw["global"].(map[string]any); ok {
		cfg.Global = parseSection(global)
	}
	if sheets, ok := raw["sheets"].(map[string]any); ok {
		for name, v := range sheets {
			section, ok := v.(map[string]any)
			if !ok {
				continue
			}
			g := parseSection(section)
			cfg.Sheets[name] = SheetConfig{
				DisabledRules: g.DisabledRules,
				Params:        g.Params,
			}
		}
	}
	return cfg, nil
}

func parseSection(section map[string]any) GlobalConfig {
	out := GlobalConfig{Params: map[string]any{}}
	for key, v := range section {
		switch key {
		case "enabled_rules":
			out.EnabledRules = toStringSlice(v)
		case "disabled_rules":
			out.DisabledRules = toStringSlice(v)
		default:
			out.Params[key] = v
		}
	}
	return out
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// matchesSelector reports whether a selector addresses a rule: ALL matches
// everything, otherwise exact id or category-prefix match.
func matchesSelector(selector, ruleID string) bool {
	if selector == "ALL" {
		return true
	}
	return ruleID == selector || strings.HasPrefix(ruleID, selector)
}

// IsRuleEnabled applies the global activation logic: disabled wins; an
// empty enabled list means everything is implicitly on (each rule's own
// default-active flag still applies, which is the engine's concern).
func (c *LinterConfig) IsRuleEnabled(ruleID string) bool {
	for _, sel := range c.Global.DisabledRules {
		if matchesSelector(sel, ruleID) {
			return false
		}
	}
	if len(c.Global.EnabledRules) == 0 {
		return true
	}
	for _, sel := range c.Global.EnabledRules {
		if matchesSelector(sel, ruleID) {
			return true
		}
	}
	return false
}

// IsRuleEnabledForSheet further masks a globally enabled rule with the
// sheet's own disabled list.
func (c *LinterConfig) IsRuleEnabledForSheet(ruleID, sheetName string) bool {
	if !c.IsRuleEnabled(ruleID) {
		return false
	}
	if sheet, ok := c.Sheets[sheetName]; ok {
		for _, sel := range sheet.DisabledRules {
			if matchesSelector(sel, ruleID) {
				return false
			}
		}
	}
	return true
}

// Validate rejects unknown selectors anywhere and the ALL selector in
// global disabled_rules. validTokens must contain every rule id, every
// category prefix, and "ALL". Validation runs before any analysis so a bad
// config never produces partial output.
func (c *LinterConfig) Validate(validTokens map[string]bool) error {
	for _, sel := range c.Global.DisabledRules {
		if sel == "ALL" {
			return fmt.Errorf("config: 'ALL' is not allowed in global disabled_rules")
		}
		if !validTokens[sel] {
			return fmt.Errorf("config: unknown rule or category %q in global disabled_rules", sel)
		}
	}
	for _, sel := range c.Global.EnabledRules {
		if !validTokens[sel] {
			return fmt.Errorf("config: unknown rule or category %q in global enabled_rules", sel)
		}
	}
	for sheetName, sheet := range c.Sheets {
		for _, sel := range sheet.DisabledRules {
			if !validTokens[sel] {
				return fmt.Errorf("config: unknown rule or category %q in sheet %q disabled_rules", sel, sheetName)
			}
		}
	}
	return nil
}

// Clone deep-copies the configuration. Rules that keep a config across a
// whole check run hold their own copy so the engine's instance stays
// untouched.
func (c *LinterConfig) Clone() *LinterConfig {
	out := &LinterConfig{}
	if err := deepcopy.Copy(out, c); err != nil {
		// The tree is plain maps, slices, and scalars; a copy failure means
		// a programming error, not input data.
		panic(fmt.Sprintf("config: clone: %v", err))
	}
	return out
}

// lookup walks the sheet → global fallback chain for a parameter.
func (c *LinterConfig) lookup(key string, sheetName string) (any, bool) {
	if sheetName != "" {
		if sheet, ok := c.Sheets[sheetName]; ok {
			if v, ok := sheet.Params[key]; ok {
				return v, true
			}
		}
	}
	v, ok := c.Global.Params[key]
	return v, ok
}

// GetInt returns an integer parameter. Pass sheetName "" for global-only
// lookup.
func (c *LinterConfig) GetInt(key, sheetName string) (int64, bool) {
	v, ok := c.lookup(key, sheetName)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// GetIntOr returns an integer parameter or the default.
func (c *LinterConfig) GetIntOr(key, sheetName string, def int64) int64 {
	if n, ok := c.GetInt(key, sheetName); ok {
		return n
	}
	return def
}

// GetString returns a string parameter.
func (c *LinterConfig) GetString(key, sheetName string) (string, bool) {
	v, ok := c.lookup(key, sheetName)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetStringOr returns a string parameter or the default.
func (c *LinterConfig) GetStringOr(key, sheetName, def string) string {
	if s, ok := c.GetString(key, sheetName); ok {
		return s
	}
	return def
}

// GetBool returns a boolean parameter.
func (c *LinterConfig) GetBool(key, sheetName string) (bool, bool) {
	v, ok := c.lookup(key, sheetName)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetBoolOr returns a boolean parameter or the default.
func (c *LinterConfig) GetBoolOr(key, sheetName string, def bool) bool {
	if b, ok := c.GetBool(key, sheetName); ok {
		return b
	}
	return def
}

// GetStringArray returns a string-array parameter. Non-string elements are
// skipped.
func (c *LinterConfig) GetStringArray(key, sheetName string) ([]string, bool) {
	v, ok := c.lookup(key, sheetName)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// GetFloatArray returns a number-array parameter; integer elements are
// widened to float64.
func (c *LinterConfig) GetFloatArray(key, sheetName string) ([]float64, bool) {
	v, ok := c.lookup(key, sheetName)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	var out []float64
	for _, item := range arr {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case int64:
			out = append(out, float64(n))
		}
	}
	return out, true
}
