package schema

import (
	"reflect"
	"strings"
)

// Model describes a mapped class: the table it is stored in and its ordered
// attributes.
type Model struct {
	Name       string
	TableName  string
	Attributes []Attribute
	Config     Config       // class-level declarative schema config
	Type       reflect.Type // struct type of instances; nil means instances are Records
}

// Record is the instance representation for models without a Go struct type.
type Record map[string]any

// Attribute is one of *Column, *Relation or *Computed.
type Attribute interface {
	AttrName() string
	attribute()
}

type Column struct {
	Name          string
	Type          ColumnType
	PrimaryKey    bool
	Unique        bool
	Nullable      bool
	Default       DefaultSpec
	ServerDefault bool  // a server-side default with no client-side equivalent
	Autoincrement *bool // nil lets the model decide
	ForeignKey    *ForeignKey
	Info          Config // attribute-level declarative schema config
}

type ForeignKey struct {
	ReferencesTable  string
	ReferencesColumn string
	OnDelete         string // CASCADE, SET NULL, RESTRICT, etc.
	OnUpdate         string // CASCADE, SET NULL, RESTRICT, etc.
}

type Relation struct {
	Name          string
	Type          RelationType
	Target        string        // target model name, resolved through a Catalog
	Resolve       func() *Model // lazy target, takes precedence over Target
	Required      bool          // inner-join semantics: the related value is mandatory
	ForeignKeys   []string      // local columns joining to the target; empty means "calculate"
	JunctionTable string        // for many-to-many relationships
	Info          Config
}

// Computed is a synonym, alias or derived property. It carries no schema
// meaning of its own.
type Computed struct {
	Name string
}

type RelationType string

const (
	OneToOne   RelationType = "one-to-one"
	OneToMany  RelationType = "one-to-many"
	ManyToOne  RelationType = "many-to-one"
	ManyToMany RelationType = "many-to-many"
)

func (c *Column) AttrName() string   { return c.Name }
func (r *Relation) AttrName() string { return r.Name }
func (c *Computed) AttrName() string { return c.Name }

func (*Column) attribute()   {}
func (*Relation) attribute() {}
func (*Computed) attribute() {}

// ToMany reports whether the relation holds a collection of targets.
func (r *Relation) ToMany() bool {
	return r.Type == OneToMany || r.Type == ManyToMany
}

// Attribute returns the attribute called name, or nil.
func (m *Model) Attribute(name string) Attribute {
	for _, a := range m.Attributes {
		if a.AttrName() == name {
			return a
		}
	}
	return nil
}

// Column returns the column called name, or nil.
func (m *Model) Column(name string) *Column {
	c, _ := m.Attribute(name).(*Column)
	return c
}

// Relation returns the relation called name, or nil.
func (m *Model) Relation(name string) *Relation {
	r, _ := m.Attribute(name).(*Relation)
	return r
}

// Columns returns the model's columns in declaration order.
func (m *Model) Columns() []*Column {
	var cols []*Column
	for _, a := range m.Attributes {
		if c, ok := a.(*Column); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// PrimaryKey returns the primary key columns in declaration order.
func (m *Model) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range m.Columns() {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// AutoincrementColumn returns the column the database numbers on insert.
// An explicit Autoincrement flag wins; otherwise the sole integer primary key
// without a foreign key or default is chosen.
func (m *Model) AutoincrementColumn() *Column {
	for _, c := range m.Columns() {
		if c.Autoincrement != nil && *c.Autoincrement {
			return c
		}
	}
	pk := m.PrimaryKey()
	if len(pk) != 1 {
		return nil
	}
	c := pk[0]
	if c.Autoincrement != nil || c.ForeignKey != nil || c.Default.Kind != DefaultAbsent {
		return nil
	}
	if !c.Type.Underlying().IsInteger() {
		return nil
	}
	return c
}

// HasAttribute reports whether name is a column or relation of the model.
func (m *Model) HasAttribute(name string) bool {
	switch m.Attribute(name).(type) {
	case *Column, *Relation:
		return true
	}
	return false
}

// ToSnakeCase converts PascalCase to snake_case.
func ToSnakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && ((prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9')) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToLower(b.String())
}
