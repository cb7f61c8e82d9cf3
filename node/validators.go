package node

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// OneOf accepts only the given choices.
func OneOf(choices ...any) Validator {
	return func(n *Node, value any) error {
		for _, c := range choices {
			if reflect.DeepEqual(c, value) {
				return nil
			}
		}
		parts := make([]string, len(choices))
		for i, c := range choices {
			parts[i] = fmt.Sprint(c)
		}
		return NewInvalid(n, fmt.Sprintf("\"%v\" is not one of %s", value, strings.Join(parts, ", ")), value)
	}
}

// Length bounds the length of a string (in characters) or a sequence.
// A max of zero or less means unbounded.
func Length(min, max int) Validator {
	return func(n *Node, value any) error {
		var size int
		switch v := value.(type) {
		case string:
			size = utf8.RuneCountInString(v)
		default:
			items, ok := AsSlice(value)
			if !ok {
				return NewInvalid(n, fmt.Sprintf("%v has no length", value), value)
			}
			size = len(items)
		}
		if size < min {
			return NewInvalid(n, fmt.Sprintf("Shorter than minimum length %d", min), value)
		}
		if max > 0 && size > max {
			return NewInvalid(n, fmt.Sprintf("Longer than maximum length %d", max), value)
		}
		return nil
	}
}

// Range bounds a numeric value, inclusive.
func Range(min, max float64) Validator {
	return func(n *Node, value any) error {
		f, err := toFloat64(value)
		if err != nil {
			return NewInvalid(n, fmt.Sprintf("\"%v\" is not a number", value), value)
		}
		if f < min {
			return NewInvalid(n, fmt.Sprintf("%v is less than minimum value %v", value, min), value)
		}
		if f > max {
			return NewInvalid(n, fmt.Sprintf("%v is greater than maximum value %v", value, max), value)
		}
		return nil
	}
}

// UUID accepts strings in any of the standard UUID forms.
func UUID() Validator {
	return func(n *Node, value any) error {
		s, ok := value.(string)
		if !ok {
			return NewInvalid(n, "Invalid UUID string", value)
		}
		if _, err := uuid.Parse(s); err != nil {
			return NewInvalid(n, "Invalid UUID string", value)
		}
		return nil
	}
}

// All runs every validator and reports all of their messages together.
func All(validators ...Validator) Validator {
	return func(n *Node, value any) error {
		var msgs []string
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v(n, value); err != nil {
				if inv, ok := err.(*Invalid); ok {
					msgs = append(msgs, inv.Msg)
					continue
				}
				return err
			}
		}
		if len(msgs) > 0 {
			return NewInvalid(n, strings.Join(msgs, "; "), value)
		}
		return nil
	}
}
