// Package diff reports drift between model definitions and the tables a
// database actually has. Drift matters because schemas are built from the
// models: a column the database lacks, or one whose type or nullability
// differs, makes the schema accept data the database rejects (or the other
// way around).
package diff

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/ormschema/schema"
	"github.com/ridoystarlord/ormschema/typemap"
)

type DifferenceType string

const (
	MissingTable       DifferenceType = "MISSING_TABLE"
	ExtraTable         DifferenceType = "EXTRA_TABLE"
	MissingColumn      DifferenceType = "MISSING_COLUMN"
	ExtraColumn        DifferenceType = "EXTRA_COLUMN"
	TypeMismatch       DifferenceType = "TYPE_MISMATCH"
	NullableMismatch   DifferenceType = "NULLABLE_MISMATCH"
	PrimaryKeyMismatch DifferenceType = "PRIMARY_KEY_MISMATCH"
	MissingForeignKey  DifferenceType = "MISSING_FOREIGN_KEY"
	ExtraForeignKey    DifferenceType = "EXTRA_FOREIGN_KEY"
	ForeignKeyMismatch DifferenceType = "FOREIGN_KEY_MISMATCH"
)

type Difference struct {
	Type       DifferenceType
	Model      string // empty for tables no model maps
	TableName  string
	ColumnName string
	Expected   string // what the model says
	Actual     string // what the database has
}

func (d Difference) String() string {
	target := d.TableName
	if d.ColumnName != "" {
		target += "." + d.ColumnName
	}
	switch {
	case d.Expected != "" && d.Actual != "":
		return fmt.Sprintf("%s %s: model has %s, database has %s", d.Type, target, d.Expected, d.Actual)
	case d.Expected != "":
		return fmt.Sprintf("%s %s: %s", d.Type, target, d.Expected)
	case d.Actual != "":
		return fmt.Sprintf("%s %s: %s", d.Type, target, d.Actual)
	}
	return fmt.Sprintf("%s %s", d.Type, target)
}

// Compare lists the differences between the models of defined and the
// tables of existing, typically a catalog introspected from a database.
// Tables are matched by name.
func Compare(defined, existing *schema.Catalog) []Difference {
	var diffs []Difference

	for _, model := range defined.Models() {
		table, ok := existing.ByTable(model.TableName)
		if !ok {
			diffs = append(diffs, Difference{
				Type:      MissingTable,
				Model:     model.Name,
				TableName: model.TableName,
			})
			continue
		}
		diffs = append(diffs, compareColumns(model, table)...)
	}

	// Tables without a model
	for _, table := range existing.Models() {
		if _, ok := defined.ByTable(table.TableName); !ok {
			diffs = append(diffs, Difference{
				Type:      ExtraTable,
				TableName: table.TableName,
			})
		}
	}

	return diffs
}

func compareColumns(model, table *schema.Model) []Difference {
	var diffs []Difference
	add := func(typ DifferenceType, column, expected, actual string) {
		diffs = append(diffs, Difference{
			Type:       typ,
			Model:      model.Name,
			TableName:  model.TableName,
			ColumnName: column,
			Expected:   expected,
			Actual:     actual,
		})
	}

	for _, col := range model.Columns() {
		existing := table.Column(col.Name)
		if existing == nil {
			add(MissingColumn, col.Name, col.Type.String(), "")
			continue
		}

		if !sameType(col, existing) {
			add(TypeMismatch, col.Name, col.Type.String(), existing.Type.String())
		}
		if col.PrimaryKey != existing.PrimaryKey {
			add(PrimaryKeyMismatch, col.Name, fmt.Sprintf("primary=%t", col.PrimaryKey), fmt.Sprintf("primary=%t", existing.PrimaryKey))
		} else if !col.PrimaryKey && col.Nullable != existing.Nullable {
			add(NullableMismatch, col.Name, fmt.Sprintf("nullable=%t", col.Nullable), fmt.Sprintf("nullable=%t", existing.Nullable))
		}

		switch want, got := col.ForeignKey, existing.ForeignKey; {
		case want != nil && got == nil:
			add(MissingForeignKey, col.Name, formatForeignKey(want), "")
		case want == nil && got != nil:
			add(ExtraForeignKey, col.Name, "", formatForeignKey(got))
		case want != nil && !sameForeignKey(want, got):
			add(ForeignKeyMismatch, col.Name, formatForeignKey(want), formatForeignKey(got))
		}
	}

	// Columns without an attribute
	for _, col := range table.Columns() {
		if model.Column(col.Name) == nil {
			add(ExtraColumn, col.Name, "", col.Type.String())
		}
	}

	return diffs
}

// sameType compares the schema node kinds both types map to, so that
// spellings such as "int4" and "integer" agree. Types without a node
// mapping are compared by name.
func sameType(a, b *schema.Column) bool {
	ta, _, errA := typemap.Map(a.Name, a.Type)
	tb, _, errB := typemap.Map(b.Name, b.Type)
	if errA == nil && errB == nil {
		return ta.Kind() == tb.Kind()
	}
	return strings.EqualFold(a.Type.Underlying().Name, b.Type.Underlying().Name)
}

func sameForeignKey(a, b *schema.ForeignKey) bool {
	return a.ReferencesTable == b.ReferencesTable &&
		a.ReferencesColumn == b.ReferencesColumn &&
		normalizeAction(a.OnDelete) == normalizeAction(b.OnDelete) &&
		normalizeAction(a.OnUpdate) == normalizeAction(b.OnUpdate)
}

// normalizeAction treats an unset referential action as the SQL default.
func normalizeAction(action string) string {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action == "" {
		return "NO ACTION"
	}
	return action
}

func formatForeignKey(fk *schema.ForeignKey) string {
	s := fmt.Sprintf("%s(%s)", fk.ReferencesTable, fk.ReferencesColumn)
	if fk.OnDelete != "" {
		s += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		s += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return s
}
