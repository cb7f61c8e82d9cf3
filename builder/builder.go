// Package builder derives schema node trees from models.
//
// A model's columns become scalar nodes and its relations become nested
// mappings (to-one) or sequences of mappings (to-many), built recursively
// from the target models. Each level of the tree may be shaped with
// includes, excludes and per-attribute overrides, supplied by the caller or
// declared on the model.
package builder

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ridoystarlord/ormschema/lookup"
	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/overrides"
	"github.com/ridoystarlord/ormschema/policy"
	"github.com/ridoystarlord/ormschema/registry"
	"github.com/ridoystarlord/ormschema/schema"
	"github.com/ridoystarlord/ormschema/typemap"
)

// Options shape one level of a schema. Fields left empty fall back to the
// model's class-level config.
type Options struct {
	// Includes selects and orders attributes. Names that are not attributes
	// of the model may refer to entries of Nodes.
	Includes []string
	Excludes []string
	// Overrides holds imperative node arguments per attribute name.
	Overrides map[string]schema.Config
	Unknown   node.UnknownPolicy
	// Nodes are prebuilt nodes inserted in place of attributes.
	Nodes map[string]*node.Node
	// Node holds arguments for the top-level node (title, description, ...).
	Node      schema.Config
	Callables policy.CallableMode
	// Lookup resolves identity payloads during Objectify.
	Lookup lookup.Store
	Logger *slog.Logger

	ancestors     []*schema.Model
	parentUnknown node.UnknownPolicy
}

// Schema is the node tree built for a model, plus what Dictify and
// Objectify need to walk it alongside objects.
type Schema struct {
	*node.Node

	Model       *schema.Model
	catalog     *schema.Catalog
	opts        Options
	nested      map[string]*Schema // relation name -> schema of the target
	keys        map[string][]registry.KeyPair
	declarative map[string]schema.Config
}

// Build derives the schema for model m. Relation targets are resolved
// through c.
func Build(c *schema.Catalog, m *schema.Model, opts Options) (*Schema, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With("model", m.Name)

	class := m.Config.Copy()
	includes, excludes, attrOverrides, err := classLists(m, class, opts)
	if err != nil {
		return nil, err
	}
	unknown, err := unknownPolicy(class, opts)
	if err != nil {
		return nil, fmt.Errorf("model '%s': %w", m.Name, err)
	}
	if err := overrides.CheckIncludesExcludes(includes, excludes); err != nil {
		return nil, err
	}

	reg, err := registry.Build(c, m)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		Node:        node.New("", node.Mapping{Unknown: unknown}),
		Model:       m,
		catalog:     c,
		opts:        opts,
		nested:      make(map[string]*Schema),
		keys:        reg.ForeignKeys,
		declarative: make(map[string]schema.Config),
	}
	b := &build{
		s:         s,
		reg:       reg,
		log:       log,
		opts:      opts,
		unknown:   unknown,
		includes:  toSet(includes),
		autoinc:   m.AutoincrementColumn(),
		overrides: attrOverrides,
	}

	excluded := toSet(excludes)
	for _, name := range traversal(m, includes, opts.Nodes) {
		if excluded[name] {
			log.Debug("attribute skipped imperatively", "attribute", name)
			continue
		}

		n, err := b.attribute(name)
		if err != nil {
			return nil, err
		}
		if n != nil {
			s.Add(n)
		}
	}

	// node arguments: class config first, then the caller's
	args := class
	for k, v := range opts.Node {
		args[k] = v
	}
	if err := applyArgs(s.Node, args); err != nil {
		return nil, fmt.Errorf("model '%s': %w", m.Name, err)
	}
	return s, nil
}

// classLists resolves includes, excludes and overrides, preferring the
// caller's options over the model's class config. It consumes those keys
// from class.
func classLists(m *schema.Model, class schema.Config, opts Options) ([]string, []string, map[string]schema.Config, error) {
	includes, err := popStrings(class, "includes")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("model '%s': %w", m.Name, err)
	}
	excludes, err := popStrings(class, "excludes")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("model '%s': %w", m.Name, err)
	}
	declared, ok := schema.AsConfigMap(class["overrides"])
	if !ok {
		return nil, nil, nil, fmt.Errorf("model '%s': overrides must map attribute names to configs", m.Name)
	}
	delete(class, "overrides")

	if len(opts.Includes) > 0 {
		includes = opts.Includes
	}
	if len(opts.Excludes) > 0 {
		excludes = opts.Excludes
	}
	if len(opts.Overrides) > 0 {
		declared = opts.Overrides
	}
	return includes, excludes, declared, nil
}

func unknownPolicy(class schema.Config, opts Options) (node.UnknownPolicy, error) {
	v, ok := class["unknown"]
	delete(class, "unknown")

	switch {
	case opts.Unknown != "":
		return node.ParseUnknown(string(opts.Unknown))
	case ok:
		switch p := v.(type) {
		case node.UnknownPolicy:
			return node.ParseUnknown(string(p))
		case string:
			return node.ParseUnknown(p)
		}
		return "", fmt.Errorf("unknown must be ignore, raise or preserve, got %v", v)
	case opts.parentUnknown != "":
		return opts.parentUnknown, nil
	}
	return node.Ignore, nil
}

// traversal returns attribute names in build order: includes when given,
// otherwise declaration order followed by extra nodes sorted by name.
func traversal(m *schema.Model, includes []string, nodes map[string]*node.Node) []string {
	if len(includes) > 0 {
		return includes
	}
	var names []string
	for _, a := range m.Attributes {
		names = append(names, a.AttrName())
	}
	var extra []string
	for name := range nodes {
		if m.Attribute(name) == nil {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

type build struct {
	s         *Schema
	reg       *registry.Registry
	log       *slog.Logger
	opts      Options
	unknown   node.UnknownPolicy
	includes  map[string]bool
	autoinc   *schema.Column
	overrides map[string]schema.Config
}

func (b *build) attribute(name string) (*node.Node, error) {
	if n, ok := b.opts.Nodes[name]; ok {
		return n, nil
	}

	imperative := b.overrides[name].Copy()

	switch b.reg.Kind(name) {
	case registry.Field:
		return b.field(b.reg.Fields[name], imperative)
	case registry.ToOne, registry.ToMany:
		return b.relation(name, imperative)
	}

	if attr := b.s.Model.Attribute(name); attr != nil {
		_, err := registry.Classify(b.s.Model.Name, attr)
		b.log.Debug("attribute skipped", "attribute", name, "reason", err)
		return nil, nil
	}
	b.log.Debug("attribute skipped, not found on model", "attribute", name)
	return nil, nil
}

// field builds the scalar node of a column.
func (b *build) field(col *schema.Column, imperative schema.Config) (*node.Node, error) {
	name := col.Name
	src := overrides.New(col.Type.Config, col.Info, imperative)
	b.s.declarative[name] = col.Info.Copy()

	if excluded, level := src.Excluded(); excluded {
		b.log.Debug("column skipped", "attribute", name, "level", level)
		return nil, nil
	}

	all := []overrides.Level{overrides.TypeLevel, overrides.AttributeLevel, overrides.ImperativeLevel}
	for _, key := range []string{"name", "children"} {
		if err := src.CheckProtected(name, key, all...); err != nil {
			return nil, err
		}
	}
	for _, key := range []string{"missing", "default"} {
		if err := src.CheckProtected(name, key, overrides.TypeLevel); err != nil {
			return nil, err
		}
	}

	var (
		typ       node.Type
		validator node.Validator
		err       error
	)
	if v, level, ok := src.Pop("typ"); ok {
		if typ, err = asType(v); err != nil {
			return nil, fmt.Errorf("column '%s': %w", name, err)
		}
		b.log.Debug("column type overridden", "attribute", name, "level", level, "type", typ.Kind())
	} else if typ, validator, err = typemap.Map(name, col.Type); err != nil {
		return nil, err
	}

	res := policy.Resolve(col, col == b.autoinc, b.opts.Callables)
	b.log.Debug("column policy resolved", "attribute", name, "rule", res.Rule)

	n := node.New(name, typ)
	n.Validator = validator
	n.Default = res.Default
	n.Missing = res.Missing

	nullable, level, hasNullable := src.Pop("nullable")
	if err := applyArgs(n, src.Merge()); err != nil {
		return nil, fmt.Errorf("column '%s': %w", name, err)
	}

	if hasNullable {
		if level != overrides.ImperativeLevel {
			b.log.Debug("declarative nullable ignored", "attribute", name, "level", level)
		} else {
			override, err := policy.AsNullable(nullable)
			if err != nil {
				return nil, fmt.Errorf("column '%s': %w", name, err)
			}
			n.Missing = policy.ApplyNullable(n.Missing, override)
		}
	}
	return n, nil
}

// Declarative returns the attribute-level config each attribute was built
// with, keyed by attribute name.
func (s *Schema) Declarative() map[string]schema.Config {
	out := make(map[string]schema.Config, len(s.declarative))
	for k, v := range s.declarative {
		out[k] = v.Copy()
	}
	return out
}

// Nested returns the schema built for the target of relation name. For
// to-many relations it is the schema of one element.
func (s *Schema) Nested(name string) (*Schema, bool) {
	n, ok := s.nested[name]
	return n, ok
}

// Clone builds the schema again with the same options and then copies the
// current node tree, including any changes made to it after Build.
func (s *Schema) Clone() (*Schema, error) {
	fresh, err := Build(s.catalog, s.Model, s.opts)
	if err != nil {
		return nil, err
	}
	fresh.Node = s.Node.Clone()
	fresh.relink()
	return fresh, nil
}

// relink points nested schemas at the nodes of the current tree.
func (s *Schema) relink() {
	for name, nested := range s.nested {
		child := s.Child(name)
		if child == nil {
			delete(s.nested, name)
			continue
		}
		if child.Typ.Kind() == node.KindSequence {
			if len(child.Children) != 1 {
				delete(s.nested, name)
				continue
			}
			child = child.Children[0]
		}
		nested.Node = child
		nested.relink()
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func popStrings(cfg schema.Config, key string) ([]string, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil, nil
	}
	delete(cfg, key)
	names, ok := schema.AsStrings(v)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of attribute names", key)
	}
	return names, nil
}
