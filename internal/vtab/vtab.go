// Package vtab is the engine's SQL virtual-table boundary: it parses a
// WHERE-clause predicate string with the TiDB SQL parser and translates
// it into the planner.FilterSpec list Build consumes. It
// never executes SQL itself: joins, aggregates, and general SELECT
// semantics stay firmly out of scope, matching the engine's Non-goals.
package vtab

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"tracedf/internal/dferr"
	"tracedf/internal/fetch"
	"tracedf/internal/interp"
	"tracedf/internal/planner"
)

// ColumnResolver maps a column name appearing in a predicate to its
// position in the dataframe's column list, the same indexing
// planner.FilterSpec.Column and OutputSpec.Column use.
type ColumnResolver func(name string) (int, bool)

// Query is a parsed predicate ready to hand to planner.Build: filter
// specs in discovery order (Build reorders them by cost), a value
// fetcher backing every ValueSlot, and precompiled glob matchers backing
// every PatternSlot.
type Query struct {
	Filters  []planner.FilterSpec
	Values   fetch.Slice
	Patterns interp.Patterns
}

// Parse translates predicate -- a bare WHERE-clause expression such as
// `dur > 1000 AND name LIKE 'sched%'` -- into a Query, resolving column
// names through resolve. Supported constructs: AND conjunction,
// comparisons (=, !=, <, <=, >, >=) against a literal, LIKE (translated
// to the engine's `*`/`?` glob dialect), and IS [NOT] NULL. Anything
// else -- OR, subqueries, joins, functions -- is rejected with a
// *dferr.QueryError rather than silently mis-translated.
func Parse(predicate string, resolve ColumnResolver) (*Query, error) {
	where, err := parseWhere(predicate)
	if err != nil {
		return nil, err
	}
	b := &builder{
		resolve: resolve,
		globs:   map[int]*interp.CompiledGlob{},
		regexes: map[int]*regexp.Regexp{},
	}
	if where != nil {
		if err := b.walk(where); err != nil {
			return nil, err
		}
	}
	return &Query{
		Filters:  b.filters,
		Values:   b.values,
		Patterns: interp.Patterns{Globs: b.globs, Regexes: b.regexes},
	}, nil
}

func parseWhere(predicate string) (ast.ExprNode, error) {
	sql := "SELECT * FROM t WHERE " + predicate
	stmtNodes, _, err := parser.New().Parse(sql, "", "")
	if err != nil {
		return nil, &dferr.QueryError{Reason: fmt.Sprintf("parse predicate: %v", err)}
	}
	if len(stmtNodes) != 1 {
		return nil, &dferr.QueryError{Reason: "predicate must be a single expression"}
	}
	sel, ok := stmtNodes[0].(*ast.SelectStmt)
	if !ok {
		return nil, &dferr.QueryError{Reason: "predicate did not parse as a WHERE clause"}
	}
	return sel.Where, nil
}

type builder struct {
	resolve ColumnResolver
	filters []planner.FilterSpec
	values  fetch.Slice
	globs   map[int]*interp.CompiledGlob
	regexes map[int]*regexp.Regexp
}

func (b *builder) walk(expr ast.ExprNode) error {
	switch e := expr.(type) {
	case *ast.ParenthesesExpr:
		return b.walk(e.Expr)
	case *ast.BinaryOperationExpr:
		if e.Op == opcode.LogicAnd {
			if err := b.walk(e.L); err != nil {
				return err
			}
			return b.walk(e.R)
		}
		return b.comparison(e)
	case *ast.PatternLikeExpr:
		return b.like(e)
	case *ast.IsNullExpr:
		return b.isNull(e)
	default:
		return &dferr.QueryError{Reason: fmt.Sprintf("unsupported predicate expression %T", expr)}
	}
}

func (b *builder) comparison(e *ast.BinaryOperationExpr) error {
	col, ok := e.L.(*ast.ColumnNameExpr)
	if !ok {
		return &dferr.QueryError{Reason: "left-hand side of a comparison must be a column"}
	}
	val, ok := e.R.(ast.ValueExpr)
	if !ok {
		return &dferr.QueryError{Reason: "right-hand side of a comparison must be a literal"}
	}
	op, ok := filterOpFor(e.Op)
	if !ok {
		return &dferr.QueryError{Reason: fmt.Sprintf("unsupported comparison operator %v", e.Op)}
	}
	idx, err := b.resolveColumn(col)
	if err != nil {
		return err
	}
	slot := len(b.values)
	b.values = append(b.values, literalValue(val))
	b.filters = append(b.filters, planner.FilterSpec{Column: idx, Op: op, ValueSlot: slot})
	return nil
}

func (b *builder) like(e *ast.PatternLikeExpr) error {
	col, ok := e.Expr.(*ast.ColumnNameExpr)
	if !ok {
		return &dferr.QueryError{Reason: "LIKE must compare a column"}
	}
	val, ok := e.Pattern.(ast.ValueExpr)
	if !ok {
		return &dferr.QueryError{Reason: "LIKE pattern must be a string literal"}
	}
	pattern, ok := literalValue(val).(string)
	if !ok {
		return &dferr.QueryError{Reason: "LIKE pattern must be a string literal"}
	}
	idx, err := b.resolveColumn(col)
	if err != nil {
		return err
	}
	op := planner.FilterGlob
	if e.Not {
		return &dferr.QueryError{Reason: "NOT LIKE is not supported"}
	}
	slot := len(b.globs)
	b.globs[slot] = interp.NewCompiledGlob(likeToGlob(pattern))
	b.filters = append(b.filters, planner.FilterSpec{Column: idx, Op: op, PatternSlot: slot})
	return nil
}

func (b *builder) isNull(e *ast.IsNullExpr) error {
	col, ok := e.Expr.(*ast.ColumnNameExpr)
	if !ok {
		return &dferr.QueryError{Reason: "IS NULL must compare a column"}
	}
	idx, err := b.resolveColumn(col)
	if err != nil {
		return err
	}
	op := planner.FilterIsNull
	if e.Not {
		op = planner.FilterIsNotNull
	}
	b.filters = append(b.filters, planner.FilterSpec{Column: idx, Op: op})
	return nil
}

func (b *builder) resolveColumn(col *ast.ColumnNameExpr) (int, error) {
	name := col.Name.Name.O
	idx, ok := b.resolve(name)
	if !ok {
		return 0, &dferr.QueryError{Reason: fmt.Sprintf("unknown column %q", name)}
	}
	return idx, nil
}

func filterOpFor(op opcode.Op) (planner.FilterOpKind, bool) {
	switch op {
	case opcode.EQ:
		return planner.FilterEq, true
	case opcode.NE:
		return planner.FilterNe, true
	case opcode.LT:
		return planner.FilterLt, true
	case opcode.LE:
		return planner.FilterLe, true
	case opcode.GT:
		return planner.FilterGt, true
	case opcode.GE:
		return planner.FilterGe, true
	default:
		return 0, false
	}
}

// literalValue extracts a Go scalar from a parsed SQL literal, coercing
// to the dynamic types fetch.Slice understands (int64, float64, string,
// nil); anything else the parser hands back (e.g. a decimal) falls back
// to its string form rather than being dropped.
func literalValue(val ast.ValueExpr) any {
	switch v := val.GetValue().(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case float64:
		return v
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return nil
	default:
		return fmt.Sprintf("%v", v)
	}
}

// likeToGlob rewrites a SQL LIKE pattern (`%` any run, `_` single char)
// into the engine's shell-style glob dialect (`*`, `?`); internal/interp's
// CompiledGlob never sees SQL wildcard syntax directly.
func likeToGlob(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteByte('*')
		case '_':
			sb.WriteByte('?')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
