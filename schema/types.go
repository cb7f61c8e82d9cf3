package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is a column's storage type. A ColumnType with Impl set is a
// decorator: it stores values as Impl and may carry its own schema config,
// applied to every column using it.
type ColumnType struct {
	Name   string   // e.g. integer, varchar, enum
	Length int      // max length for character types, 0 when unbounded
	Enums  []string // members of an enumerated type
	Impl   *ColumnType
	Config Config // type-level declarative schema config
}

// Underlying unwraps one decorator layer.
func (t ColumnType) Underlying() ColumnType {
	if t.Impl != nil {
		return *t.Impl
	}
	return t
}

// Decorate wraps impl in a decorator type called name.
func Decorate(name string, impl ColumnType, cfg Config) ColumnType {
	return ColumnType{Name: name, Impl: &impl, Config: cfg}
}

func (t ColumnType) IsInteger() bool {
	switch strings.ToLower(t.Name) {
	case "integer", "int", "int4", "int8", "smallint", "bigint", "serial", "bigserial", "smallserial":
		return true
	}
	return false
}

func (t ColumnType) String() string {
	switch {
	case t.Impl != nil:
		return fmt.Sprintf("%s<%s>", t.Name, t.Impl.String())
	case len(t.Enums) > 0:
		return fmt.Sprintf("%s(%s)", t.Name, strings.Join(t.Enums, ","))
	case t.Length > 0:
		return fmt.Sprintf("%s(%d)", t.Name, t.Length)
	}
	return t.Name
}

// ParseType parses a type string such as "varchar(64)", "enum(M,F)" or
// "timestamp with time zone".
func ParseType(s string) (ColumnType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ColumnType{}, fmt.Errorf("empty column type")
	}

	open := strings.Index(s, "(")
	if open < 0 {
		return ColumnType{Name: strings.ToLower(s)}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return ColumnType{}, fmt.Errorf("malformed column type '%s'", s)
	}

	t := ColumnType{Name: strings.ToLower(strings.TrimSpace(s[:open]))}
	args := strings.TrimSpace(s[open+1 : len(s)-1])

	if t.Name == "enum" {
		for _, member := range strings.Split(args, ",") {
			member = strings.Trim(strings.TrimSpace(member), `'"`)
			if member != "" {
				t.Enums = append(t.Enums, member)
			}
		}
		if len(t.Enums) == 0 {
			return ColumnType{}, fmt.Errorf("enum type '%s' has no members", s)
		}
		return t, nil
	}

	// numeric(10,2) carries precision and scale, which the schema ignores
	first := strings.TrimSpace(strings.Split(args, ",")[0])
	n, err := strconv.Atoi(first)
	if err != nil {
		return ColumnType{}, fmt.Errorf("malformed length in column type '%s': %w", s, err)
	}
	if t.Name != "numeric" && t.Name != "decimal" {
		t.Length = n
	}
	return t, nil
}

// MustParseType is ParseType for statically known type strings.
func MustParseType(s string) ColumnType {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

type DefaultKind int

const (
	DefaultAbsent DefaultKind = iota
	DefaultStatic
	DefaultServerComputed
	DefaultCallable
)

// DefaultSpec is a column's client-side default.
type DefaultSpec struct {
	Kind  DefaultKind
	Value any        // DefaultStatic
	Func  func() any // DefaultCallable
	Expr  string     // DefaultServerComputed, the SQL expression
}

func Static(v any) DefaultSpec { return DefaultSpec{Kind: DefaultStatic, Value: v} }

func ServerComputed(expr string) DefaultSpec {
	return DefaultSpec{Kind: DefaultServerComputed, Expr: expr}
}

func Callable(f func() any) DefaultSpec { return DefaultSpec{Kind: DefaultCallable, Func: f} }

func (k DefaultKind) String() string {
	switch k {
	case DefaultStatic:
		return "static"
	case DefaultServerComputed:
		return "server-computed"
	case DefaultCallable:
		return "callable"
	}
	return "absent"
}
