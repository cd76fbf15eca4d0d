package core

// validation.go provides cell-level validation for edit drafts.
//
// Rules are declared per column. A rule may require the value to be numeric
// and may carry a govaluate expression evaluated against the parameter
// "value" (a float64 for numeric rules, the raw string otherwise):
//
//	FieldRule{Column: "age", Numeric: true, Expr: "value >= 0", Message: "must be >= 0"}
//
// Empty values always pass. Numeric columns are coerced from text to number
// when drafts are committed.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
)

// FieldError is a validation failure for one cell of one draft.
type FieldError struct {
	RecordID string `json:"recordId"`
	Column   string `json:"column"`
	Value    string `json:"value"`
	Message  string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s", e.Column, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every failing cell across all drafts.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// FieldRule validates the values of one column.
type FieldRule struct {
	Column  string // Column key the rule applies to
	Numeric bool   // Value must parse to a finite number
	Expr    string // Optional govaluate expression over "value"
	Message string // Message used when Expr fails, prefixed by the column label

	expr *govaluate.EvaluableExpression
}

// RuleSet is a compiled set of field rules keyed by column.
type RuleSet struct {
	rules map[string][]FieldRule
}

// NewRuleSet compiles rules. It fails if any expression does not parse.
func NewRuleSet(rules ...FieldRule) (RuleSet, error) {
	rs := RuleSet{rules: make(map[string][]FieldRule)}
	for _, r := range rules {
		r.Column = NormalizeKey(r.Column)
		if r.Column == "" {
			return RuleSet{}, fmt.Errorf("rule has no column")
		}
		if strings.TrimSpace(r.Expr) != "" {
			expr, err := govaluate.NewEvaluableExpression(r.Expr)
			if err != nil {
				return RuleSet{}, fmt.Errorf("rule for %q: parse %q: %w", r.Column, r.Expr, err)
			}
			r.expr = expr
		}
		rs.rules[r.Column] = append(rs.rules[r.Column], r)
	}
	return rs, nil
}

// DefaultRules requires age to be a non-negative number.
func DefaultRules() RuleSet {
	rs, err := NewRuleSet(FieldRule{
		Column:  "age",
		Numeric: true,
		Expr:    "value >= 0",
		Message: "must be >= 0",
	})
	if err != nil {
		panic(err)
	}
	return rs
}

// ParseRules builds a rule set from configuration: every key in numeric
// becomes a numeric column, and every "column=expression" entry in exprs
// adds an expression rule.
func ParseRules(numeric []string, exprs []string) (RuleSet, error) {
	numericSet := make(map[string]bool)
	var rules []FieldRule
	for _, col := range numeric {
		col = NormalizeKey(col)
		if col == "" || numericSet[col] {
			continue
		}
		numericSet[col] = true
		rules = append(rules, FieldRule{Column: col, Numeric: true})
	}
	for _, spec := range exprs {
		col, expr, ok := strings.Cut(spec, "=")
		if !ok {
			return RuleSet{}, fmt.Errorf("invalid rule %q: want column=expression", spec)
		}
		col = NormalizeKey(col)
		expr = strings.TrimSpace(expr)
		rules = append(rules, FieldRule{
			Column:  col,
			Numeric: numericSet[col],
			Expr:    expr,
			Message: "must satisfy " + expr,
		})
	}
	return NewRuleSet(rules...)
}

// Columns returns the keys that have rules, sorted.
func (rs RuleSet) Columns() []string {
	cols := make([]string, 0, len(rs.rules))
	for c := range rs.rules {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// IsNumeric reports whether column must hold numbers.
func (rs RuleSet) IsNumeric(column string) bool {
	for _, r := range rs.rules[column] {
		if r.Numeric {
			return true
		}
	}
	return false
}

// Check validates one cell value and returns a user-facing message,
// or "" if the value is acceptable.
func (rs RuleSet) Check(column string, v Value) string {
	rules := rs.rules[column]
	if len(rules) == 0 {
		return ""
	}
	raw := FormatValue(v)
	if raw == "" {
		return ""
	}
	label := LabelFromKey(column)

	for _, r := range rules {
		var param any = raw
		if r.Numeric {
			n, ok := parseNumber(raw)
			if !ok {
				return label + " must be a number"
			}
			param = n
		}
		if r.expr == nil {
			continue
		}
		result, err := r.expr.Evaluate(map[string]any{"value": param})
		if err != nil {
			return fmt.Sprintf("%s could not be checked: %v", label, err)
		}
		if pass, ok := result.(bool); !ok || !pass {
			return label + " " + r.Message
		}
	}
	return ""
}

// Validate checks every ruled column of fields and returns the failures.
func (rs RuleSet) Validate(recordID string, fields Fields) ValidationErrors {
	var errs ValidationErrors
	for _, col := range rs.Columns() {
		if msg := rs.Check(col, fields[col]); msg != "" {
			errs = append(errs, FieldError{
				RecordID: recordID,
				Column:   col,
				Value:    FormatValue(fields[col]),
				Message:  msg,
			})
		}
	}
	return errs
}

// Coerce returns a copy of fields with numeric columns converted from text
// to float64. Blank and unparseable values are left as they are.
func (rs RuleSet) Coerce(fields Fields) Fields {
	out := fields.Clone()
	for col := range rs.rules {
		if !rs.IsNumeric(col) {
			continue
		}
		s, ok := out[col].(string)
		if !ok || s == "" {
			continue
		}
		if n, ok := parseNumber(s); ok {
			out[col] = n
		}
	}
	return out
}
