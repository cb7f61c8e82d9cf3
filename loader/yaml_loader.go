package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

type yamlFile struct {
	Models []yamlModel `yaml:"models"`
}

type yamlModel struct {
	Name      string         `yaml:"name"`
	Table     string         `yaml:"table"`
	Config    map[string]any `yaml:"config"`
	Columns   []yamlColumn   `yaml:"columns"`
	Relations []yamlRelation `yaml:"relations"`
	Computed  []string       `yaml:"computed"`
}

type yamlColumn struct {
	Name          string         `yaml:"name"`
	Type          string         `yaml:"type"`
	Primary       bool           `yaml:"primary"`
	Unique        bool           `yaml:"unique"`
	Nullable      bool           `yaml:"nullable"`
	Default       any            `yaml:"default"`
	DefaultSQL    string         `yaml:"default_sql"`
	ServerDefault bool           `yaml:"server_default"`
	Autoincrement *bool          `yaml:"autoincrement"`
	References    string         `yaml:"references"` // table.column
	OnDelete      string         `yaml:"on_delete"`
	OnUpdate      string         `yaml:"on_update"`
	Info          map[string]any `yaml:"info"`
}

type yamlRelation struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Target      string         `yaml:"target"`
	Required    bool           `yaml:"required"`
	ForeignKeys []string       `yaml:"foreign_keys"`
	Through     string         `yaml:"through"`
	Info        map[string]any `yaml:"info"`
}

// LoadModelsFromYAML reads model definitions from a YAML file.
func LoadModelsFromYAML(filename string) ([]*schema.Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return ParseYAML(data)
}

// LoadCatalog reads a YAML file into a catalog.
func LoadCatalog(filename string) (*schema.Catalog, error) {
	models, err := LoadModelsFromYAML(filename)
	if err != nil {
		return nil, err
	}
	return schema.NewCatalog(models...)
}

func ParseYAML(data []byte) ([]*schema.Model, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	var models []*schema.Model
	for _, ym := range yf.Models {
		model := &schema.Model{
			Name:      ym.Name,
			TableName: ym.Table,
		}
		if model.TableName == "" {
			model.TableName = schema.ToSnakeCase(ym.Name)
		}
		cfg, err := configFromYAML(ym.Config)
		if err != nil {
			return nil, fmt.Errorf("model '%s': %w", ym.Name, err)
		}
		model.Config = cfg

		for _, c := range ym.Columns {
			column, err := c.toColumn()
			if err != nil {
				return nil, fmt.Errorf("model '%s': column '%s': %w", ym.Name, c.Name, err)
			}
			model.Attributes = append(model.Attributes, column)
		}
		for _, r := range ym.Relations {
			relation, err := r.toRelation()
			if err != nil {
				return nil, fmt.Errorf("model '%s': relation '%s': %w", ym.Name, r.Name, err)
			}
			model.Attributes = append(model.Attributes, relation)
		}
		for _, name := range ym.Computed {
			model.Attributes = append(model.Attributes, &schema.Computed{Name: name})
		}
		models = append(models, model)
	}

	return models, nil
}

func (c yamlColumn) toColumn() (*schema.Column, error) {
	typ, err := schema.ParseType(c.Type)
	if err != nil {
		return nil, err
	}
	info, err := configFromYAML(c.Info)
	if err != nil {
		return nil, err
	}

	column := &schema.Column{
		Name:          c.Name,
		Type:          typ,
		PrimaryKey:    c.Primary,
		Unique:        c.Unique,
		Nullable:      c.Nullable,
		ServerDefault: c.ServerDefault,
		Autoincrement: c.Autoincrement,
		Info:          info,
	}
	switch {
	case c.DefaultSQL != "":
		column.Default = schema.ServerComputed(c.DefaultSQL)
	case c.Default != nil:
		column.Default = schema.Static(c.Default)
	}

	if c.References != "" {
		table, col, ok := strings.Cut(c.References, ".")
		if !ok {
			return nil, fmt.Errorf("references must be table.column, got '%s'", c.References)
		}
		column.ForeignKey = &schema.ForeignKey{
			ReferencesTable:  table,
			ReferencesColumn: col,
			OnDelete:         c.OnDelete,
			OnUpdate:         c.OnUpdate,
		}
	}
	return column, nil
}

func (r yamlRelation) toRelation() (*schema.Relation, error) {
	info, err := configFromYAML(r.Info)
	if err != nil {
		return nil, err
	}

	rel := &schema.Relation{
		Name:          r.Name,
		Type:          schema.RelationType(r.Type),
		Target:        r.Target,
		Required:      r.Required,
		ForeignKeys:   r.ForeignKeys,
		JunctionTable: r.Through,
		Info:          info,
	}
	switch rel.Type {
	case schema.OneToOne, schema.OneToMany, schema.ManyToOne, schema.ManyToMany:
	case "":
		rel.Type = schema.ManyToOne
	default:
		return nil, fmt.Errorf("unknown relation type '%s'", r.Type)
	}
	if rel.Target == "" {
		return nil, fmt.Errorf("target is required")
	}
	return rel, nil
}

// nodeTypes are the node types a YAML config may name in "typ".
var nodeTypes = map[string]node.Type{
	"boolean":  node.Boolean{},
	"integer":  node.Integer{},
	"float":    node.Float{},
	"decimal":  node.Decimal{},
	"string":   node.String{},
	"date":     node.Date{},
	"datetime": node.DateTime{},
	"time":     node.Time{},
}

// configFromYAML converts a decoded YAML mapping to a schema.Config, resolving
// "typ" names to node types at every nesting level.
func configFromYAML(raw map[string]any) (schema.Config, error) {
	if raw == nil {
		return nil, nil
	}
	cfg := make(schema.Config, len(raw))
	for k, v := range raw {
		switch k {
		case "typ":
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("typ must be a type name, got %T", v)
			}
			typ, ok := nodeTypes[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("unknown node type '%s'", name)
			}
			cfg[k] = typ
		case "overrides":
			nested, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("overrides must map attribute names to configs")
			}
			out := make(map[string]schema.Config, len(nested))
			for attr, item := range nested {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("override for '%s' must be a mapping", attr)
				}
				sub, err := configFromYAML(m)
				if err != nil {
					return nil, fmt.Errorf("override for '%s': %w", attr, err)
				}
				out[attr] = sub
			}
			cfg[k] = out
		default:
			cfg[k] = v
		}
	}
	return cfg, nil
}
