package fields

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// Field sets with independent compile caches
const (
	SetDetail  = "detail"
	SetSummary = "summary"
)

// Compile parses a comma-delimited "label:path" spec into field rules.
// Tokens without a label use the path as label when useDefaultLabels is set.
func Compile(spec string, useDefaultLabels bool) ([]types.FieldRule, error) {
	tokens := strings.Split(spec, ",")
	rules := make([]types.FieldRule, 0, len(tokens))

	for _, field := range tokens {
		parts := strings.Split(field, ":")

		var rule types.FieldRule
		switch len(parts) {
		case 1:
			rule.Path = strings.TrimSpace(parts[0])
			if useDefaultLabels {
				rule.Label = rule.Path
			}
		case 2:
			rule.Label = strings.TrimSpace(parts[0])
			rule.Path = strings.TrimSpace(parts[1])
		default:
			return nil, types.NewConfigurationError(fmt.Sprintf(
				`Invalid field "%s".  Field should be of the format "<label>:<json path>" or "<json path>"`, field), nil)
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// compiled is the memo for one field set
type compiled struct {
	spec  string
	rules []types.FieldRule
	valid bool
}

// Compiler memoizes compiled detail and summary field rules. A set is only
// recompiled when its spec string differs from the previous call.
type Compiler struct {
	mu      sync.Mutex
	detail  compiled
	summary compiled

	// OnCompile, if set, is called each time a set is actually recompiled
	OnCompile func(set string)
}

// NewCompiler creates an empty Compiler
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Detail returns the detail rules for spec (default labels on)
func (c *Compiler) Detail(spec string) ([]types.FieldRule, error) {
	return c.get(&c.detail, SetDetail, spec, true)
}

// Summary returns the summary rules for spec (default labels off)
func (c *Compiler) Summary(spec string) ([]types.FieldRule, error) {
	return c.get(&c.summary, SetSummary, spec, false)
}

// Both compiles detail and summary specs, failing on the first bad spec
func (c *Compiler) Both(detailSpec, summarySpec string) (detail, summary []types.FieldRule, err error) {
	detail, err = c.Detail(detailSpec)
	if err != nil {
		return nil, nil, err
	}
	summary, err = c.Summary(summarySpec)
	if err != nil {
		return nil, nil, err
	}
	return detail, summary, nil
}

func (c *Compiler) get(memo *compiled, set, spec string, useDefaultLabels bool) ([]types.FieldRule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if memo.valid && memo.spec == spec {
		return memo.rules, nil
	}

	rules, err := Compile(spec, useDefaultLabels)
	if err != nil {
		return nil, err
	}

	memo.spec = spec
	memo.rules = rules
	memo.valid = true

	if c.OnCompile != nil {
		c.OnCompile(set)
	}

	return rules, nil
}
