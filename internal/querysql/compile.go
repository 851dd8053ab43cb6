// Package querysql compiles queryir predicates to parameterised SQLite
// WHERE fragments.
package querysql

import (
	"fmt"
	"strings"

	"github.com/tepperly/nasprint-sub000/internal/queryir"
)

// Compiler compiles queryir predicates to SQL.
//
// CRITICAL: values are never interpolated; every literal becomes a ? param.
type Compiler struct {
	// Alias prefixes every column, e.g. "q" gives "q.band = ?".
	Alias string
}

// NewCompiler creates a Compiler with no table alias.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// WithAlias returns a Compiler that qualifies columns with alias.
func WithAlias(alias string) *Compiler {
	return &Compiler{Alias: alias}
}

// Compile converts p to a WHERE fragment and its parameters.
// A nil predicate compiles to "1 = 1".
func (c *Compiler) Compile(p queryir.Predicate) (string, []any, error) {
	if err := queryir.Validate(p); err != nil {
		return "", nil, fmt.Errorf("invalid predicate: %w", err)
	}
	return c.compilePredicate(p)
}

// Where is Compile with the " WHERE " keyword prepended.
func (c *Compiler) Where(p queryir.Predicate) (string, []any, error) {
	sql, params, err := c.Compile(p)
	if err != nil {
		return "", nil, err
	}
	return " WHERE " + sql, params, nil
}

func (c *Compiler) column(f queryir.Field) string {
	if c.Alias == "" {
		return string(f)
	}
	return c.Alias + "." + string(f)
}

func (c *Compiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return fmt.Sprintf("%s = ?", c.column(pred.Field)), []any{pred.Value}, nil
	case queryir.In:
		return c.compileIn(pred)
	case queryir.Between:
		return fmt.Sprintf("%s BETWEEN ? AND ?", c.column(pred.Field)),
			[]any{pred.Low, pred.High}, nil
	case queryir.IsNull:
		return fmt.Sprintf("%s IS NULL", c.column(pred.Field)), nil, nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Not:
		sql, params, err := c.compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *Compiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(in.Values)), ", ")
	params := make([]any, len(in.Values))
	copy(params, in.Values)
	return fmt.Sprintf("%s IN (%s)", c.column(in.Field), marks), params, nil
}

func (c *Compiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(preds))
	var params []any
	for _, sub := range preds {
		sql, subParams, err := c.compilePredicate(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}
