package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

type Category struct {
	ID    int64  `ormschema:"column:id;primary"`
	Label string `ormschema:"type:varchar(32);title:Label"`
	Items []*Item
}

type Item struct {
	ID         int64      `ormschema:"column:id;primary"`
	Name       string     `ormschema:"type:varchar(64)"`
	Price      float64    `ormschema:"default:9.5"`
	Active     bool       `ormschema:"default:true"`
	Created    *time.Time `ormschema:"default_sql:now()"`
	Note       *string
	Secret     string    `ormschema:"-"`
	CategoryID *int64    `ormschema:"fk:categories.id:CASCADE"`
	Category   *Category `ormschema:"required"`
	internal   int
}

func (Item) TableName() string { return "shop_items" }

func (Item) SchemaConfig() schema.Config {
	return schema.Config{"title": "Shop item"}
}

func (Item) SchemaInfo() map[string]schema.Config {
	return map[string]schema.Config{"price": {"typ": node.Decimal{}}}
}

func TestFromStructs(t *testing.T) {
	c, err := FromStructs(Category{}, &Item{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Category", "Item"}, c.Names())

	category, ok := c.Model("Category")
	require.True(t, ok)
	assert.Equal(t, "categories", category.TableName)
	assert.Equal(t, schema.Config{"title": "Label"}, category.Column("label").Info)
	assert.Equal(t, 32, category.Column("label").Type.Length)

	items := category.Relation("items")
	require.NotNil(t, items)
	assert.Equal(t, schema.OneToMany, items.Type)
	assert.Equal(t, "Item", items.Target)

	item, _ := c.Model("Item")
	assert.Equal(t, "shop_items", item.TableName)
	assert.Equal(t, schema.Config{"title": "Shop item"}, item.Config)

	var names []string
	for _, a := range item.Attributes {
		names = append(names, a.AttrName())
	}
	assert.Equal(t, []string{"id", "name", "price", "active", "created", "note", "category_id", "category"}, names)

	assert.True(t, item.Column("id").PrimaryKey)
	assert.Equal(t, "bigint", item.Column("id").Type.Name)
	assert.Equal(t, schema.Static(9.5), item.Column("price").Default)
	assert.Equal(t, node.Decimal{}, item.Column("price").Info["typ"])
	assert.Equal(t, schema.Static(true), item.Column("active").Default)
	assert.Equal(t, schema.ServerComputed("now()"), item.Column("created").Default)
	assert.True(t, item.Column("note").Nullable)
	assert.False(t, item.Column("name").Nullable)
	assert.Equal(t, &schema.ForeignKey{ReferencesTable: "categories", ReferencesColumn: "id", OnDelete: "CASCADE"},
		item.Column("category_id").ForeignKey)

	rel := item.Relation("category")
	require.NotNil(t, rel)
	assert.Equal(t, schema.ManyToOne, rel.Type)
	assert.True(t, rel.Required)
}

func TestFromStructs_Errors(t *testing.T) {
	_, err := FromStructs(42)
	assert.Error(t, err)

	type Bad struct {
		Count int `ormschema:"default:many"`
	}
	_, err = FromStructs(Bad{})
	assert.Error(t, err)
}

func TestGetTableName(t *testing.T) {
	tl := &TagLoader{}
	type Company struct{}
	type Address struct{}
	type Person struct{}

	tests := []struct {
		value any
		want  string
	}{
		{Company{}, "companies"},
		{Address{}, "address"},
		{Person{}, "persons"},
		{Item{}, "shop_items"},
	}
	for _, tt := range tests {
		got := tl.getTableName(reflect.TypeOf(tt.value))
		assert.Equal(t, tt.want, got)
	}
}

const modelsYAML = `
models:
  - name: Category
    table: categories
    columns:
      - name: id
        type: bigint
        primary: true
      - name: label
        type: varchar(32)
        info:
          title: Label
    relations:
      - name: items
        type: one-to-many
        target: Item
        info:
          overrides:
            price:
              typ: string
  - name: Item
    table: shop_items
    config:
      title: Shop item
      unknown: raise
    columns:
      - name: id
        type: bigint
        primary: true
      - name: price
        type: double precision
        default: 9.5
      - name: created
        type: timestamp
        nullable: true
        default_sql: now()
      - name: category_id
        type: bigint
        nullable: true
        references: categories.id
        on_delete: CASCADE
    relations:
      - name: category
        target: Category
        required: true
    computed:
      - display_name
`

func TestLoadModelsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelsYAML), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	category, _ := c.Model("Category")
	assert.Equal(t, schema.Config{"title": "Label"}, category.Column("label").Info)
	items := category.Relation("items")
	require.NotNil(t, items)
	assert.Equal(t, schema.OneToMany, items.Type)
	assert.Equal(t, map[string]schema.Config{"price": {"typ": node.String{}}}, items.Info["overrides"])

	item, _ := c.Model("Item")
	assert.Equal(t, schema.Config{"title": "Shop item", "unknown": "raise"}, item.Config)
	assert.Equal(t, schema.Static(9.5), item.Column("price").Default)
	assert.Equal(t, schema.ServerComputed("now()"), item.Column("created").Default)
	assert.Equal(t, "categories", item.Column("category_id").ForeignKey.ReferencesTable)
	assert.Equal(t, schema.ManyToOne, item.Relation("category").Type)
	assert.IsType(t, &schema.Computed{}, item.Attribute("display_name"))
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad type", "models:\n  - name: A\n    columns:\n      - name: a\n        type: varchar(x)\n"},
		{"bad relation", "models:\n  - name: A\n    relations:\n      - name: b\n        type: sideways\n        target: B\n"},
		{"missing target", "models:\n  - name: A\n    relations:\n      - name: b\n"},
		{"bad typ", "models:\n  - name: A\n    columns:\n      - name: a\n        type: text\n        info:\n          typ: blob\n"},
		{"bad reference", "models:\n  - name: A\n    columns:\n      - name: a\n        type: int\n        references: nodot\n"},
		{"not yaml", "models: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

// Tags and YAML describing the same classes yield the same columns.
func TestLoaders_Equivalent(t *testing.T) {
	fromTags, err := FromStructs(Category{}, Item{})
	require.NoError(t, err)
	fromYAML, err := ParseYAML([]byte(modelsYAML))
	require.NoError(t, err)

	tagged, _ := fromTags.Model("Category")
	for _, m := range fromYAML {
		if m.Name != "Category" {
			continue
		}
		for _, col := range m.Columns() {
			other := tagged.Column(col.Name)
			require.NotNil(t, other, col.Name)
			assert.Equal(t, col.Type, other.Type, col.Name)
			assert.Equal(t, col.PrimaryKey, other.PrimaryKey, col.Name)
			assert.Equal(t, col.Nullable, other.Nullable, col.Name)
		}
	}
}
