// Package overrides merges the three layers of node configuration: type
// level (from a decorator column type), attribute level (from the column or
// relation definition) and imperative (from the caller at build time).
// More authoritative layers win: imperative over attribute over type.
package overrides

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ridoystarlord/ormschema/schema"
)

type Level int

const (
	TypeLevel Level = iota
	AttributeLevel
	ImperativeLevel
)

func (l Level) String() string {
	switch l {
	case TypeLevel:
		return "in the column type"
	case AttributeLevel:
		return "via attribute info"
	case ImperativeLevel:
		return "imperatively"
	}
	return "unknown level"
}

// ConflictError reports configuration that cannot be honored.
type ConflictError struct {
	Attribute string
	Key       string
	Level     Level
	Reason    string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: argument %s cannot be overridden %s", e.Attribute, e.Key, e.Level)
}

// Sources holds private copies of the three layers. Pop and Excluded consume
// keys, so each key is applied once.
type Sources struct {
	Type       schema.Config
	Attribute  schema.Config
	Imperative schema.Config
}

func New(typ, attribute, imperative schema.Config) *Sources {
	return &Sources{
		Type:       typ.Copy(),
		Attribute:  attribute.Copy(),
		Imperative: imperative.Copy(),
	}
}

// layer returns the config for level.
func (s *Sources) layer(l Level) schema.Config {
	switch l {
	case TypeLevel:
		return s.Type
	case AttributeLevel:
		return s.Attribute
	}
	return s.Imperative
}

// Pop removes key from every layer and returns the value of the most
// authoritative layer that had it.
func (s *Sources) Pop(key string) (any, Level, bool) {
	var (
		value any
		level Level
		found bool
	)
	for _, l := range []Level{ImperativeLevel, AttributeLevel, TypeLevel} {
		cfg := s.layer(l)
		v, ok := cfg[key]
		if !ok {
			continue
		}
		delete(cfg, key)
		if !found {
			value, level, found = v, l, true
		}
	}
	return value, level, found
}

// Excluded consumes the exclude flag. A layer's flag is only honored when no
// more authoritative layer sets one, so an imperative exclude=false
// re-includes an attribute excluded in its definition.
func (s *Sources) Excluded() (bool, Level) {
	v, level, ok := s.Pop("exclude")
	if !ok {
		return false, level
	}
	b, _ := v.(bool)
	return b, level
}

// CheckProtected fails when key is set in any of the given levels.
func (s *Sources) CheckProtected(attr, key string, levels ...Level) error {
	for _, l := range levels {
		if s.layer(l).Has(key) {
			return &ConflictError{Attribute: attr, Key: key, Level: l}
		}
	}
	return nil
}

// Merge flattens the remaining keys, more authoritative layers last.
func (s *Sources) Merge() schema.Config {
	out := schema.Config{}
	for _, cfg := range []schema.Config{s.Type, s.Attribute, s.Imperative} {
		for k, v := range cfg {
			out[k] = v
		}
	}
	return out
}

// CheckIncludesExcludes rejects names that are both included and excluded.
func CheckIncludesExcludes(includes, excludes []string) error {
	excluded := make(map[string]bool, len(excludes))
	for _, name := range excludes {
		excluded[name] = true
	}
	var both []string
	for _, name := range includes {
		if excluded[name] {
			both = append(both, name)
		}
	}
	if len(both) == 0 {
		return nil
	}
	sort.Strings(both)
	return &ConflictError{
		Key:    "includes",
		Level:  ImperativeLevel,
		Reason: fmt.Sprintf("excludes and includes are mutually exclusive: %s", strings.Join(both, ", ")),
	}
}
