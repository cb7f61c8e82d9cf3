package builder

import (
	"fmt"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/overrides"
	"github.com/ridoystarlord/ormschema/schema"
)

// relation builds the node of a to-one or to-many relation. Arguments in the
// relation's config apply to the outer node; includes, excludes and
// overrides shape the nested schema of the target.
func (b *build) relation(name string, imperative schema.Config) (*node.Node, error) {
	rel := b.reg.Relation(name)
	target := b.reg.Targets[name]
	src := overrides.New(nil, rel.Info, imperative)
	b.s.declarative[name] = rel.Info.Copy()

	if excluded, level := src.Excluded(); excluded {
		b.log.Debug("relation skipped", "attribute", name, "level", level)
		return nil, nil
	}
	for _, key := range []string{"name", "typ"} {
		if err := src.CheckProtected(name, key, overrides.AttributeLevel, overrides.ImperativeLevel); err != nil {
			return nil, err
		}
	}

	children, _, hasChildren := src.Pop("children")
	includes, err := popList(src, name, "includes")
	if err != nil {
		return nil, err
	}
	excludes, err := popList(src, name, "excludes")
	if err != nil {
		return nil, err
	}
	var nestedOverrides map[string]schema.Config
	if v, level, ok := src.Pop("overrides"); ok {
		m, ok := schema.AsConfigMap(v)
		if !ok {
			return nil, &overrides.ConflictError{Attribute: name, Key: "overrides", Level: level,
				Reason: fmt.Sprintf("relation '%s': overrides must map attribute names to configs", name)}
		}
		nestedOverrides = m
	}

	var missing any
	switch {
	case rel.Required:
		missing = node.Required
	case rel.ToMany():
		missing = []any{}
	}

	var nested *Schema
	switch {
	case hasChildren:
		nodes, err := asNodes(children)
		if err != nil {
			return nil, fmt.Errorf("relation '%s': %w", name, err)
		}
		b.log.Debug("relation children overridden", "attribute", name)
		nested = b.shallow(name, target, nodes)

	case b.isAncestor(target) && !b.includes[name]:
		b.log.Debug("relation target already being expanded, using primary key only",
			"attribute", name, "target", target.Name)
		if keys := b.reg.TargetKeys[name]; len(keys) > 0 {
			nested, err = b.nestedBuild(name, target, Options{Includes: keys})
		} else {
			nested = b.shallow(name, target, nil)
		}

	default:
		nested, err = b.nestedBuild(name, target, Options{
			Includes:  includes,
			Excludes:  excludes,
			Overrides: nestedOverrides,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("relation '%s': %w", name, err)
	}
	b.s.nested[name] = nested

	outer := nested.Node
	if rel.ToMany() {
		nested.Missing = node.Required
		outer = node.New(name, node.Sequence{}, nested.Node)
	}
	outer.Name = name
	outer.Missing = missing

	if err := applyArgs(outer, src.Merge()); err != nil {
		return nil, fmt.Errorf("relation '%s': %w", name, err)
	}
	return outer, nil
}

// nestedBuild builds the schema of a relation target one level down.
func (b *build) nestedBuild(name string, target *schema.Model, opts Options) (*Schema, error) {
	opts.Node = schema.Config{"name": name}
	opts.Callables = b.opts.Callables
	opts.Lookup = b.opts.Lookup
	opts.Logger = b.opts.Logger
	opts.ancestors = append(append([]*schema.Model(nil), b.opts.ancestors...), b.s.Model)
	opts.parentUnknown = b.unknown
	return Build(b.s.catalog, target, opts)
}

// shallow wraps prebuilt children of a relation target in a schema.
func (b *build) shallow(name string, target *schema.Model, children []*node.Node) *Schema {
	return &Schema{
		Node:        node.New(name, node.Mapping{Unknown: b.unknown}, children...),
		Model:       target,
		catalog:     b.s.catalog,
		opts:        b.opts,
		nested:      make(map[string]*Schema),
		declarative: make(map[string]schema.Config),
	}
}

func (b *build) isAncestor(m *schema.Model) bool {
	for _, a := range b.opts.ancestors {
		if a == m {
			return true
		}
	}
	return false
}

func popList(src *overrides.Sources, attr, key string) ([]string, error) {
	v, level, ok := src.Pop(key)
	if !ok || v == nil {
		return nil, nil
	}
	names, ok := schema.AsStrings(v)
	if !ok {
		return nil, &overrides.ConflictError{Attribute: attr, Key: key, Level: level,
			Reason: fmt.Sprintf("relation '%s': %s must be a list of attribute names", attr, key)}
	}
	return names, nil
}
