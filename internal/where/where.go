// Package where builds typed filter expressions over record fields.
//
// A Clause is a sequence of conditions joined by AND and OR. The same
// clause renders to parameterized SQL via SQL and evaluates in process
// against a Valuer via Match. AND binds tighter than OR in both forms.
package where

import "strings"

// Op is a comparison operator usable in a condition.
type Op string

// Supported operators.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpGt Op = ">"
)

const (
	conjAnd = "AND"
	conjOr  = "OR"
)

// Valuer exposes named field values for in-process matching. The second
// return is false when the field is not provided. Booleans compare as 0
// and 1, matching their stored form.
type Valuer interface {
	Field(name string) (any, bool)
}

// Clause is a filter expression. A nil Clause is valid and matches
// everything. Builder methods mutate the receiver and return it for
// chaining; append methods on a nil Clause start a new one.
type Clause struct {
	nodes []node
}

type node struct {
	conj  string // AND or OR, ignored on the first node
	field string
	op    Op
	value any
	null  bool
	group *Clause
}

// Cond starts a clause with a single field comparison.
func Cond(field string, op Op, value any) *Clause {
	return &Clause{nodes: []node{{field: field, op: op, value: value}}}
}

// Eq starts a clause matching field = value.
func Eq(field string, value any) *Clause { return Cond(field, OpEq, value) }

// Ne starts a clause matching field != value.
func Ne(field string, value any) *Clause { return Cond(field, OpNe, value) }

// Lt starts a clause matching field < value.
func Lt(field string, value any) *Clause { return Cond(field, OpLt, value) }

// Gt starts a clause matching field > value.
func Gt(field string, value any) *Clause { return Cond(field, OpGt, value) }

// Null starts a clause matching records where field is unset. A field
// is unset when it is absent, nil, or the empty string; the SQL form
// accepts NULL or ''.
func Null(field string) *Clause {
	return &Clause{nodes: []node{{field: field, null: true}}}
}

func (c *Clause) append(conj string, n node) *Clause {
	if c == nil {
		c = &Clause{}
	}
	n.conj = conj
	c.nodes = append(c.nodes, n)
	return c
}

// AndCond appends an AND'd comparison.
func (c *Clause) AndCond(field string, op Op, value any) *Clause {
	return c.append(conjAnd, node{field: field, op: op, value: value})
}

// OrCond appends an OR'd comparison.
func (c *Clause) OrCond(field string, op Op, value any) *Clause {
	return c.append(conjOr, node{field: field, op: op, value: value})
}

// AndEq appends an AND'd equality.
func (c *Clause) AndEq(field string, value any) *Clause {
	return c.AndCond(field, OpEq, value)
}

// OrEq appends an OR'd equality.
func (c *Clause) OrEq(field string, value any) *Clause {
	return c.OrCond(field, OpEq, value)
}

// AndNull appends an AND'd unset-field test.
func (c *Clause) AndNull(field string) *Clause {
	return c.append(conjAnd, node{field: field, null: true})
}

// OrNull appends an OR'd unset-field test.
func (c *Clause) OrNull(field string) *Clause {
	return c.append(conjOr, node{field: field, null: true})
}

// And appends other as an AND'd sub-expression. Appending a nil or
// empty clause is a no-op; calling on a nil or empty clause returns
// other unchanged.
func (c *Clause) And(other *Clause) *Clause {
	if other == nil || len(other.nodes) == 0 {
		return c
	}
	if c == nil || len(c.nodes) == 0 {
		return other
	}
	return c.append(conjAnd, node{group: other})
}

// Or appends other as an OR'd sub-expression.
func (c *Clause) Or(other *Clause) *Clause {
	if other == nil || len(other.nodes) == 0 {
		return c
	}
	if c == nil || len(c.nodes) == 0 {
		return other
	}
	return c.append(conjOr, node{group: other})
}

// Bracket wraps everything added so far into a single group, so later
// appends cannot rebind it.
func (c *Clause) Bracket() *Clause {
	if c == nil || len(c.nodes) < 2 {
		return c
	}
	inner := &Clause{nodes: c.nodes}
	c.nodes = []node{{group: inner}}
	return c
}

// SQL renders the clause as a parameterized SQL fragment with ?
// placeholders. A nil or empty clause renders as "" with no arguments.
func (c *Clause) SQL() (string, []any) {
	if c == nil || len(c.nodes) == 0 {
		return "", nil
	}
	var sb strings.Builder
	var args []any
	c.writeSQL(&sb, &args)
	return sb.String(), args
}

func (c *Clause) writeSQL(sb *strings.Builder, args *[]any) {
	for i, n := range c.nodes {
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(n.conj)
			sb.WriteByte(' ')
		}
		switch {
		case n.group != nil:
			if len(n.group.nodes) > 1 {
				sb.WriteByte('(')
				n.group.writeSQL(sb, args)
				sb.WriteByte(')')
			} else {
				n.group.writeSQL(sb, args)
			}
		case n.null:
			sb.WriteByte('(')
			sb.WriteString(n.field)
			sb.WriteString(" IS NULL OR ")
			sb.WriteString(n.field)
			sb.WriteString(" = '')")
		default:
			sb.WriteString(n.field)
			sb.WriteByte(' ')
			sb.WriteString(string(n.op))
			sb.WriteString(" ?")
			*args = append(*args, n.value)
		}
	}
}

// Match evaluates the clause against v. A nil or empty clause matches.
func (c *Clause) Match(v Valuer) bool {
	if c == nil || len(c.nodes) == 0 {
		return true
	}
	matched := true
	for i, n := range c.nodes {
		if i > 0 && n.conj == conjOr {
			if matched {
				return true
			}
			matched = true
		}
		if matched && !n.match(v) {
			matched = false
		}
	}
	return matched
}

func (n node) match(v Valuer) bool {
	if n.group != nil {
		return n.group.Match(v)
	}
	val, ok := v.Field(n.field)
	if n.null {
		return !ok || val == nil || val == ""
	}
	if !ok {
		return n.op == OpNe
	}
	cmp, ok := compare(val, n.value)
	if !ok {
		return n.op == OpNe
	}
	switch n.op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpGt:
		return cmp > 0
	}
	return false
}

// compare orders two values of compatible kinds. Strings compare
// lexically, everything numeric compares as float64.
func compare(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
