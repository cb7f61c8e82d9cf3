// Package registry classifies the attributes of a model once, ahead of
// schema construction.
package registry

import (
	"fmt"

	"github.com/ridoystarlord/ormschema/schema"
)

type Kind int

const (
	None Kind = iota
	Field
	ToOne
	ToMany
)

func (k Kind) String() string {
	switch k {
	case Field:
		return "field"
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	}
	return "none"
}

// UnsupportedPropertyError reports an attribute that is neither a column nor
// a relation.
type UnsupportedPropertyError struct {
	Model     string
	Attribute string
}

func (e *UnsupportedPropertyError) Error() string {
	return fmt.Sprintf("%s.%s is neither a column nor a relation", e.Model, e.Attribute)
}

// KeyPair maps a local foreign key column to a target primary key column.
type KeyPair struct {
	Local  string
	Target string
}

// Registry is the classified view of one model. It is not modified after
// Build returns.
type Registry struct {
	Model       *schema.Model
	Attrs       []string // columns and relations in declaration order
	PrimaryKeys []string
	Fields      map[string]*schema.Column
	ToOne       map[string]*schema.Relation
	ToMany      map[string]*schema.Relation
	Targets     map[string]*schema.Model // relation name -> target model
	TargetKeys  map[string][]string      // relation name -> target primary key columns
	ForeignKeys map[string][]KeyPair     // to-one relation name -> key correspondence

	primary map[string]bool
}

// Classify reports which set attr belongs to.
func Classify(model string, attr schema.Attribute) (Kind, error) {
	switch a := attr.(type) {
	case *schema.Column:
		return Field, nil
	case *schema.Relation:
		if a.ToMany() {
			return ToMany, nil
		}
		return ToOne, nil
	}
	return None, &UnsupportedPropertyError{Model: model, Attribute: attr.AttrName()}
}

// Build walks m's attributes once. Attributes that Classify rejects are
// skipped. Relation targets are resolved through c.
func Build(c *schema.Catalog, m *schema.Model) (*Registry, error) {
	r := &Registry{
		Model:       m,
		Fields:      make(map[string]*schema.Column),
		ToOne:       make(map[string]*schema.Relation),
		ToMany:      make(map[string]*schema.Relation),
		Targets:     make(map[string]*schema.Model),
		TargetKeys:  make(map[string][]string),
		ForeignKeys: make(map[string][]KeyPair),
		primary:     make(map[string]bool),
	}

	for _, attr := range m.Attributes {
		kind, err := Classify(m.Name, attr)
		if err != nil {
			continue
		}
		name := attr.AttrName()
		r.Attrs = append(r.Attrs, name)

		if kind == Field {
			col := attr.(*schema.Column)
			r.Fields[name] = col
			if col.PrimaryKey {
				r.PrimaryKeys = append(r.PrimaryKeys, name)
				r.primary[name] = true
			}
			continue
		}

		rel := attr.(*schema.Relation)
		target, err := c.Target(rel)
		if err != nil {
			return nil, fmt.Errorf("model '%s': %w", m.Name, err)
		}
		r.Targets[name] = target
		r.TargetKeys[name] = columnNames(target.PrimaryKey())

		if kind == ToMany {
			r.ToMany[name] = rel
			continue
		}
		r.ToOne[name] = rel
		r.ForeignKeys[name] = foreignKeys(m, rel, target)
	}

	return r, nil
}

// Kind returns the set name belongs to, or None.
func (r *Registry) Kind(name string) Kind {
	switch {
	case r.Fields[name] != nil:
		return Field
	case r.ToOne[name] != nil:
		return ToOne
	case r.ToMany[name] != nil:
		return ToMany
	}
	return None
}

func (r *Registry) IsPrimaryKey(name string) bool {
	return r.primary[name]
}

// Relation returns the to-one or to-many relation called name.
func (r *Registry) Relation(name string) *schema.Relation {
	if rel, ok := r.ToOne[name]; ok {
		return rel
	}
	return r.ToMany[name]
}

// foreignKeys intersects the relation's local foreign key columns with the
// target's primary key. The result is empty when the keys live elsewhere,
// such as in a junction table or on the target side.
func foreignKeys(m *schema.Model, rel *schema.Relation, target *schema.Model) []KeyPair {
	targetPK := columnNames(target.PrimaryKey())
	isTargetPK := make(map[string]bool, len(targetPK))
	for _, name := range targetPK {
		isTargetPK[name] = true
	}

	var local []*schema.Column
	if len(rel.ForeignKeys) > 0 {
		for _, name := range rel.ForeignKeys {
			if col := m.Column(name); col != nil {
				local = append(local, col)
			}
		}
	} else {
		for _, col := range m.Columns() {
			if col.ForeignKey != nil && references(col.ForeignKey, target) {
				local = append(local, col)
			}
		}
	}

	var pairs []KeyPair
	for i, col := range local {
		var targetCol string
		switch {
		case col.ForeignKey != nil && references(col.ForeignKey, target):
			targetCol = col.ForeignKey.ReferencesColumn
		case i < len(targetPK):
			targetCol = targetPK[i]
		}
		if isTargetPK[targetCol] {
			pairs = append(pairs, KeyPair{Local: col.Name, Target: targetCol})
		}
	}
	return pairs
}

func references(fk *schema.ForeignKey, target *schema.Model) bool {
	return fk.ReferencesTable == target.TableName || fk.ReferencesTable == target.Name
}

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
