package introspect

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/ormschema/schema"
)

// ToCatalog converts introspected tables to models named after their tables.
// Every foreign key adds a many-to-one relation on the referencing model and
// a one-to-many relation back on the referenced one, unless the name is
// already taken.
func ToCatalog(tables []ExistingTable) (*schema.Catalog, error) {
	models := make(map[string]*schema.Model, len(tables))
	ordered := make([]*schema.Model, 0, len(tables))

	for _, t := range tables {
		m := &schema.Model{Name: t.TableName, TableName: t.TableName}
		for _, c := range t.Columns {
			col, err := toColumn(c)
			if err != nil {
				return nil, fmt.Errorf("table %s: column %s: %w", t.TableName, c.ColumnName, err)
			}
			m.Attributes = append(m.Attributes, col)
		}
		models[t.TableName] = m
		ordered = append(ordered, m)
	}

	for _, t := range tables {
		m := models[t.TableName]
		for _, group := range groupForeignKeys(t.ForeignKeys) {
			target, ok := models[group[0].ReferencesTable]
			if !ok {
				continue
			}

			var locals []string
			for _, fk := range group {
				ref := fk.ReferencesColumn
				if ref == "" {
					if pk := target.PrimaryKey(); len(pk) == 1 {
						ref = pk[0].Name
					}
				}
				if col := m.Column(fk.ColumnName); col != nil {
					col.ForeignKey = &schema.ForeignKey{
						ReferencesTable:  fk.ReferencesTable,
						ReferencesColumn: ref,
						OnDelete:         fk.OnDelete,
						OnUpdate:         fk.OnUpdate,
					}
				}
				locals = append(locals, fk.ColumnName)
			}

			name := target.Name
			if len(locals) == 1 && strings.HasSuffix(locals[0], "_id") {
				name = strings.TrimSuffix(locals[0], "_id")
			}
			if m.Attribute(name) == nil {
				m.Attributes = append(m.Attributes, &schema.Relation{
					Name:        name,
					Type:        schema.ManyToOne,
					Target:      target.Name,
					ForeignKeys: locals,
				})
			}
			if target != m && target.Attribute(m.TableName) == nil {
				target.Attributes = append(target.Attributes, &schema.Relation{
					Name:   m.TableName,
					Type:   schema.OneToMany,
					Target: m.Name,
				})
			}
		}
	}

	return schema.NewCatalog(ordered...)
}

func toColumn(c ExistingColumn) (*schema.Column, error) {
	typ, err := schema.ParseType(c.DataType)
	if err != nil {
		return nil, err
	}
	col := &schema.Column{
		Name:       c.ColumnName,
		Type:       typ,
		PrimaryKey: c.IsPrimaryKey,
		Unique:     c.IsUnique,
		Nullable:   c.IsNullable,
	}
	if c.ColumnDefault != nil {
		if strings.HasPrefix(*c.ColumnDefault, "nextval(") {
			auto := true
			col.Autoincrement = &auto
		} else {
			col.ServerDefault = true
		}
	}
	return col, nil
}

// groupForeignKeys groups the columns of composite foreign keys, keeping
// constraint order.
func groupForeignKeys(fks []ExistingForeignKey) [][]ExistingForeignKey {
	var groups [][]ExistingForeignKey
	index := make(map[string]int)
	for _, fk := range fks {
		i, ok := index[fk.ConstraintName]
		if !ok {
			i = len(groups)
			index[fk.ConstraintName] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], fk)
	}
	return groups
}
