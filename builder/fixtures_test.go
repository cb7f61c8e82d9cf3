package builder

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

type Person struct {
	ID        int64 `ormschema:"column:id"`
	Name      string
	Surname   string
	Gender    string
	Birthday  *time.Time
	Age       *int64
	Addresses []*Address
}

type Address struct {
	ID        int64 `ormschema:"column:id"`
	Street    string
	City      string
	Latitude  *float64
	PersonID  *int64
	Person    *Person
	Ephemeral string `ormschema:"-"`
}

type Account struct {
	Email    string
	Enabled  bool
	Created  *time.Time
	Timeout  time.Time
	PersonID *int64
	Person   *Person
}

func col(name, typ string, opts ...func(*schema.Column)) *schema.Column {
	c := &schema.Column{Name: name, Type: schema.MustParseType(typ)}
	for _, o := range opts {
		o(c)
	}
	return c
}

func primary(c *schema.Column)  { c.PrimaryKey = true }
func nullable(c *schema.Column) { c.Nullable = true }

func fk(table, column string) func(*schema.Column) {
	return func(c *schema.Column) {
		c.ForeignKey = &schema.ForeignKey{ReferencesTable: table, ReferencesColumn: column}
	}
}

func info(cfg schema.Config) func(*schema.Column) {
	return func(c *schema.Column) { c.Info = cfg }
}

func withDefault(d schema.DefaultSpec) func(*schema.Column) {
	return func(c *schema.Column) { c.Default = d }
}

// accountCatalog holds Account -> Person -> Address, with Address.person
// and Address.city excluded declaratively.
func accountCatalog(t *testing.T) *schema.Catalog {
	t.Helper()

	person := &schema.Model{
		Name:      "Person",
		TableName: "people",
		Type:      reflect.TypeOf(Person{}),
		Config:    schema.Config{"widget": "DummyWidget", "title": "Person Object"},
		Attributes: []schema.Attribute{
			col("id", "integer", primary),
			col("name", "varchar(32)"),
			col("surname", "varchar(32)"),
			col("gender", "enum(M,F)"),
			col("birthday", "date", nullable),
			col("age", "integer", nullable),
			&schema.Relation{Name: "addresses", Type: schema.OneToMany, Target: "Address",
				Info: schema.Config{"overrides": map[string]schema.Config{"id": {"typ": node.Float{}}}}},
		},
	}
	address := &schema.Model{
		Name:      "Address",
		TableName: "addresses",
		Type:      reflect.TypeOf(Address{}),
		Attributes: []schema.Attribute{
			col("id", "integer", primary),
			col("street", "varchar(64)"),
			col("city", "varchar(32)", info(schema.Config{"exclude": true})),
			col("latitude", "float", nullable),
			col("person_id", "integer", nullable, fk("people", "id")),
			&schema.Relation{Name: "person", Type: schema.ManyToOne, Target: "Person",
				Info: schema.Config{"exclude": true}},
		},
	}
	account := &schema.Model{
		Name:      "Account",
		TableName: "accounts",
		Type:      reflect.TypeOf(Account{}),
		Config:    schema.Config{"preparer": "DummyPreparer"},
		Attributes: []schema.Attribute{
			col("email", "varchar(64)", primary),
			col("enabled", "boolean", withDefault(schema.Static(true))),
			col("created", "datetime", nullable, withDefault(schema.Callable(func() any { return time.Now() }))),
			col("timeout", "time"),
			col("person_id", "integer", nullable, fk("people", "id")),
			&schema.Relation{Name: "person", Type: schema.ManyToOne, Target: "Person"},
		},
	}

	c, err := schema.NewCatalog(account, person, address)
	require.NoError(t, err)
	return c
}

func mustBuild(t *testing.T, c *schema.Catalog, name string, opts Options) *Schema {
	t.Helper()

	m, ok := c.Model(name)
	require.True(t, ok, "model %s", name)
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	s, err := Build(c, m, opts)
	require.NoError(t, err)
	return s
}

func buildModels(t *testing.T, name string, opts Options, models ...*schema.Model) (*Schema, error) {
	t.Helper()

	c, err := schema.NewCatalog(models...)
	require.NoError(t, err)
	m, _ := c.Model(name)
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return Build(c, m, opts)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func childNames(n *node.Node) []string {
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Name
	}
	return names
}
