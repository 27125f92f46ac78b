package export

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Severity classifies a rule's findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule is one CEL expression evaluated against the document. The expression
// sees the document under the `doc` variable, in its JSON shape, and must
// evaluate to a bool; false produces the rule's message at its severity.
type Rule struct {
	Name       string
	Expression string
	Severity   Severity
	Message    string
}

// RuleSet holds compiled rules. Compilation happens once at construction so
// a bad expression fails at startup, not per document.
type RuleSet struct {
	rules []compiledRule
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// NewRuleSet compiles the given rules.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	env, err := cel.NewEnv(
		cel.Variable("doc", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	set := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, iss := env.Compile(r.Expression)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build rule %q: %w", r.Name, err)
		}
		set.rules = append(set.rules, compiledRule{rule: r, program: prg})
	}
	return set, nil
}

// DefaultRules returns the standing rule set applied to every export.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "company_code_format",
			Expression: `doc.header.companyCode.matches('^[A-Z0-9]{2,6}$')`,
			Severity:   SeverityWarning,
			Message:    "company code does not match the usual ERP format",
		},
		{
			Name:       "line_count_limit",
			Expression: `size(doc.lines) <= 200`,
			Severity:   SeverityError,
			Message:    "document exceeds the 200 line-item transmission limit",
		},
	}
}

// Evaluate runs every rule and splits findings by severity. A rule that
// fails to evaluate (type mismatch against this document) is reported as an
// error finding rather than ignored.
func (s *RuleSet) Evaluate(doc *Document) (errs, warnings []string) {
	docMap, err := toMap(doc)
	if err != nil {
		return []string{fmt.Sprintf("rules: cannot represent document: %v", err)}, nil
	}

	for _, cr := range s.rules {
		out, _, err := cr.program.Eval(map[string]any{"doc": docMap})
		if err != nil {
			errs = append(errs, fmt.Sprintf("rule %s: evaluation failed: %v", cr.rule.Name, err))
			continue
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			errs = append(errs, fmt.Sprintf("rule %s: expression is not boolean", cr.rule.Name))
			continue
		}
		if ok {
			continue
		}
		finding := fmt.Sprintf("rule %s: %s", cr.rule.Name, cr.rule.Message)
		if cr.rule.Severity == SeverityWarning {
			warnings = append(warnings, finding)
		} else {
			errs = append(errs, finding)
		}
	}
	return errs, warnings
}

func toMap(doc *Document) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
