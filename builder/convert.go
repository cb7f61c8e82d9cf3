package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ridoystarlord/ormschema/lookup"
	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

// Dictify converts obj, a struct (or pointer to one) or a schema.Record, to
// an appstruct following the schema's children. Children with no matching
// attribute on obj are skipped. Nil column values become node.Null.
func (s *Schema) Dictify(obj any) (map[string]any, error) {
	acc, err := accessorOf(obj)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(s.Children))
	for _, child := range s.Children {
		name := child.Name
		value, ok := acc.Get(name)
		if !ok {
			s.opts.Logger.Debug("dictify: attribute not found on object", "model", s.Model.Name, "attribute", name)
			continue
		}

		rel := s.Model.Relation(name)
		nested := s.nested[name]
		if rel == nil || nested == nil {
			value = deref(value)
			if node.IsNull(value) {
				value = node.Null
			}
			out[name] = value
			continue
		}

		if rel.ToMany() {
			items, ok := node.AsSlice(value)
			if !ok && !node.IsNull(value) {
				return nil, fmt.Errorf("%s.%s: %T is not a collection", s.Model.Name, name, value)
			}
			list := make([]any, 0, len(items))
			for _, item := range items {
				d, err := nested.Dictify(item)
				if err != nil {
					return nil, err
				}
				list = append(list, d)
			}
			out[name] = list
			continue
		}

		if node.IsNull(value) {
			out[name] = nil
			continue
		}
		d, err := nested.Dictify(value)
		if err != nil {
			return nil, err
		}
		out[name] = d
	}
	return out, nil
}

// Objectify applies an appstruct to into, or to a new instance of the model
// when into is nil, and returns it. Keys that are not columns or relations of
// the model are ignored. node.Null becomes the zero value.
//
// With a Lookup configured, a to-one relation given as a bare primary key
// payload, or left out while its foreign key columns are present, is loaded
// from the store. Keys that match no row are reported as *node.Invalid.
func (s *Schema) Objectify(ctx context.Context, data map[string]any, into any) (any, error) {
	if into == nil {
		into = s.newInstance()
	}
	acc, err := accessorOf(into)
	if err != nil {
		return nil, err
	}

	inv := node.NewInvalid(s.Node, "", data)
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := data[key]
		switch attr := s.Model.Attribute(key).(type) {
		case *schema.Column:
			if node.IsNull(value) {
				value = nil
			}
			if err := acc.Set(key, value); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Model.Name, key, err)
			}

		case *schema.Relation:
			if _, ok := s.nested[key]; !ok {
				s.opts.Logger.Debug("objectify: relation ignored, not in schema", "model", s.Model.Name, "attribute", key)
				continue
			}
			converted, err := s.objectifyRelation(ctx, attr, value)
			if err != nil {
				if inv.Adopt(err, s.position(key)) {
					continue
				}
				return nil, err
			}
			if err := acc.Set(key, converted); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Model.Name, key, err)
			}

		default:
			s.opts.Logger.Debug("objectify: key ignored, not mapped", "model", s.Model.Name, "attribute", key)
		}
	}

	if err := s.resolveForeignKeys(ctx, data, acc, inv); err != nil {
		return nil, err
	}
	if len(inv.Children) > 0 {
		return nil, inv
	}
	return acc.Value(), nil
}

func (s *Schema) objectifyRelation(ctx context.Context, rel *schema.Relation, value any) (any, error) {
	nested := s.nested[rel.Name]

	if rel.ToMany() {
		items, ok := node.AsSlice(value)
		if !ok && !node.IsNull(value) {
			return nil, node.NewInvalid(s.Child(rel.Name), fmt.Sprintf("\"%v\" is not iterable", value), value)
		}
		seq := s.Child(rel.Name)
		inv := node.NewInvalid(seq, "", value)
		out := make([]any, 0, len(items))
		for i, item := range items {
			obj, err := nested.objectifyOne(ctx, item)
			if err != nil {
				if inv.Adopt(err, i) {
					continue
				}
				return nil, err
			}
			out = append(out, obj)
		}
		if len(inv.Children) > 0 {
			return nil, inv
		}
		return out, nil
	}

	if node.IsNull(value) {
		return nil, nil
	}
	return nested.objectifyOne(ctx, value)
}

// objectifyOne converts one related payload, loading it from the store when
// it only carries the target's primary key.
func (s *Schema) objectifyOne(ctx context.Context, value any) (any, error) {
	data, ok := node.AsMap(value)
	if !ok {
		return nil, node.NewInvalid(s.Node, fmt.Sprintf("\"%v\" is not a mapping type", value), value)
	}
	if s.opts.Lookup != nil && isIdentity(s.Model, data) {
		return s.load(ctx, data)
	}
	return s.Objectify(ctx, data, nil)
}

// resolveForeignKeys loads to-one relations that are absent from data but
// whose local foreign key columns are all present.
func (s *Schema) resolveForeignKeys(ctx context.Context, data map[string]any, acc accessor, inv *node.Invalid) error {
	if s.opts.Lookup == nil {
		return nil
	}

	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pairs := s.keys[name]
		nested, ok := s.nested[name]
		if _, present := data[name]; present || !ok || len(pairs) == 0 {
			continue
		}

		key := make(map[string]any, len(pairs))
		for _, p := range pairs {
			v, ok := data[p.Local]
			if !ok || node.IsNull(v) {
				key = nil
				break
			}
			key[p.Target] = v
		}
		if key == nil {
			continue
		}

		obj, err := nested.load(ctx, key)
		if err != nil {
			var child *node.Invalid
			if errors.As(err, &child) {
				child.Node = s.Child(name)
				inv.Add(child, s.position(name))
				continue
			}
			return err
		}
		if err := acc.Set(name, obj); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Model.Name, name, err)
		}
	}
	return nil
}

// load fetches a row by key and converts it to an instance of the model.
func (s *Schema) load(ctx context.Context, key map[string]any) (any, error) {
	row, err := s.opts.Lookup.Get(ctx, s.Model, key)
	if errors.Is(err, lookup.ErrNotFound) {
		return nil, node.NewInvalid(s.Node, fmt.Sprintf("%s with key %v does not exist", s.Model.Name, key), key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.Model.Name, err)
	}

	obj := s.newInstance()
	acc, err := accessorOf(obj)
	if err != nil {
		return nil, err
	}
	for _, col := range s.Model.Columns() {
		v, ok := row[col.Name]
		if !ok {
			continue
		}
		if err := acc.Set(col.Name, v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Model.Name, col.Name, err)
		}
	}
	return acc.Value(), nil
}

// isIdentity reports whether data holds exactly the primary key of m.
func isIdentity(m *schema.Model, data map[string]any) bool {
	pk := m.PrimaryKey()
	if len(pk) == 0 || len(data) != len(pk) {
		return false
	}
	for _, c := range pk {
		if v, ok := data[c.Name]; !ok || node.IsNull(v) {
			return false
		}
	}
	return true
}

func (s *Schema) position(name string) int {
	for i, c := range s.Children {
		if c.Name == name {
			return i
		}
	}
	return -1
}
