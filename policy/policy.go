// Package policy decides the default and missing values of column nodes.
//
// Default is what serialization shows when an object has no value. Missing
// is what deserialization produces when the data has no value: a concrete
// value, node.Drop to leave the column to the database, or node.Required.
package policy

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

// CallableMode selects how a callable column default becomes a missing value.
type CallableMode int

const (
	// EvaluateCallable calls the default function on every deserialization
	// that lacks the value.
	EvaluateCallable CallableMode = iota
	// DropCallable leaves the value to the database layer.
	DropCallable
)

func (m CallableMode) String() string {
	if m == DropCallable {
		return "drop"
	}
	return "evaluate"
}

func ParseCallableMode(s string) (CallableMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "evaluate":
		return EvaluateCallable, nil
	case "drop":
		return DropCallable, nil
	}
	return 0, fmt.Errorf("callable missing mode must be 'evaluate' or 'drop', got '%s'", s)
}

// Rule names the resolution step that produced a missing value.
type Rule string

const (
	RuleCallable       Rule = "callable default"
	RuleServerComputed Rule = "server-computed default"
	RuleStatic         Rule = "static default"
	RuleNullable       Rule = "nullable"
	RuleServerDefault  Rule = "server default"
	RuleAutoincrement  Rule = "autoincrement primary key"
	RuleRequired       Rule = "required"
)

type Resolution struct {
	Default any
	Missing any
	Rule    Rule
}

// Resolve computes default and missing for col. autoincrement tells whether
// col is its model's designated autoincrement column.
//
// Callable defaults stay deferred: the node calls them each time the value
// is needed, so every deserialization gets a fresh value.
func Resolve(col *schema.Column, autoincrement bool, mode CallableMode) Resolution {
	r := Resolution{Default: node.Null}

	switch col.Default.Kind {
	case schema.DefaultStatic:
		r.Default = col.Default.Value
	case schema.DefaultCallable:
		if col.Default.Func != nil {
			r.Default = col.Default.Func
		}
	}

	switch {
	case col.Default.Kind == schema.DefaultCallable:
		r.Rule = RuleCallable
		if mode == DropCallable || col.Default.Func == nil {
			r.Missing = node.Drop
		} else {
			r.Missing = col.Default.Func
		}
	case col.Default.Kind == schema.DefaultServerComputed:
		r.Missing, r.Rule = node.Drop, RuleServerComputed
	case col.Default.Kind == schema.DefaultStatic:
		r.Missing, r.Rule = col.Default.Value, RuleStatic
	case col.Nullable:
		r.Missing, r.Rule = nil, RuleNullable
	case col.ServerDefault:
		r.Missing, r.Rule = node.Drop, RuleServerDefault
	case autoincrement:
		r.Missing, r.Rule = node.Drop, RuleAutoincrement
	default:
		r.Missing, r.Rule = node.Required, RuleRequired
	}
	return r
}

// ApplyNullable applies a caller-supplied nullable override. A nil override
// keeps missing unchanged.
func ApplyNullable(missing any, nullable *bool) any {
	if nullable == nil {
		return missing
	}
	if *nullable {
		return nil
	}
	return node.Required
}

// AsNullable reads a nullable override value.
func AsNullable(v any) (*bool, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &b, nil
	case *bool:
		return b, nil
	}
	return nil, fmt.Errorf("nullable override must be a boolean, got %T", v)
}
