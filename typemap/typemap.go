// Package typemap maps column storage types to schema node types.
package typemap

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

// UnsupportedTypeError reports a storage type with no node type equivalent.
type UnsupportedTypeError struct {
	Attribute string
	Type      schema.ColumnType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("column '%s': no schema type for storage type '%s', provide a 'typ' override", e.Attribute, e.Type)
}

// Map returns the node type for a column of storage type t, plus the
// validator the type implies (enum membership, maximum length), if any.
// Decorator types are unwrapped one layer.
func Map(attr string, t schema.ColumnType) (node.Type, node.Validator, error) {
	t = t.Underlying()

	switch name := strings.ToLower(t.Name); name {
	case "boolean", "bool":
		return node.Boolean{}, nil, nil

	case "date":
		return node.Date{}, nil, nil

	case "datetime", "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone":
		return node.DateTime{}, nil, nil

	case "enum":
		choices := make([]any, len(t.Enums))
		for i, e := range t.Enums {
			choices[i] = e
		}
		return node.String{}, node.OneOf(choices...), nil

	case "float", "real", "double", "double precision", "float4", "float8":
		return node.Float{}, nil, nil

	case "string", "varchar", "character varying", "char", "character", "text":
		if t.Length > 0 {
			return node.String{}, node.Length(0, t.Length), nil
		}
		return node.String{}, nil, nil

	case "numeric", "decimal":
		return node.Decimal{}, nil, nil

	case "time", "time without time zone":
		return node.Time{}, nil, nil

	case "uuid":
		return node.String{}, node.UUID(), nil

	default:
		if t.IsInteger() {
			return node.Integer{}, nil, nil
		}
	}

	return nil, nil, &UnsupportedTypeError{Attribute: attr, Type: t}
}
