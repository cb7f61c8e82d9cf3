package schema

import (
	"fmt"
	"reflect"
	"sort"
)

// Catalog is a set of models addressable by name, used to resolve relation
// targets that are declared by name before the target exists.
type Catalog struct {
	models map[string]*Model
	order  []string
}

func NewCatalog(models ...*Model) (*Catalog, error) {
	c := &Catalog{models: make(map[string]*Model)}
	for _, m := range models {
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers m under its name.
func (c *Catalog) Add(m *Model) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("model must have a name")
	}
	if _, exists := c.models[m.Name]; exists {
		return fmt.Errorf("model '%s' registered twice", m.Name)
	}
	c.models[m.Name] = m
	c.order = append(c.order, m.Name)
	return nil
}

// Model returns the model called name.
func (c *Catalog) Model(name string) (*Model, bool) {
	m, ok := c.models[name]
	return m, ok
}

// ByTable returns the model stored in table.
func (c *Catalog) ByTable(table string) (*Model, bool) {
	for _, name := range c.order {
		if m := c.models[name]; m.TableName == table {
			return m, true
		}
	}
	return nil, false
}

// ByType returns the model whose instances are of Go type t (or *t).
func (c *Catalog) ByType(t reflect.Type) (*Model, bool) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for _, name := range c.order {
		if m := c.models[name]; m.Type == t {
			return m, true
		}
	}
	return nil, false
}

// Models returns all models in registration order.
func (c *Catalog) Models() []*Model {
	out := make([]*Model, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.models[name])
	}
	return out
}

// Names returns the registered model names, sorted.
func (c *Catalog) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// Target resolves the model a relation points at.
func (c *Catalog) Target(r *Relation) (*Model, error) {
	if r.Resolve != nil {
		if m := r.Resolve(); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("relation '%s': target resolver returned no model", r.Name)
	}
	if m, ok := c.models[r.Target]; ok {
		return m, nil
	}
	if m, ok := c.ByTable(r.Target); ok {
		return m, nil
	}
	return nil, fmt.Errorf("relation '%s': unknown target model '%s'", r.Name, r.Target)
}
