package loader

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ridoystarlord/ormschema/schema"
)

// Configurer is implemented by structs that carry class-level schema config.
type Configurer interface {
	SchemaConfig() schema.Config
}

// AttributeConfigurer is implemented by structs that attach schema config to
// individual attributes, for values a tag cannot express (node types,
// validators, nested overrides).
type AttributeConfigurer interface {
	SchemaInfo() map[string]schema.Config
}

// Tabler overrides the table name derived from the struct name.
type Tabler interface {
	TableName() string
}

// TagLoader loads models from Go structs with ormschema tags
type TagLoader struct {
	types []reflect.Type
	known map[reflect.Type]bool
}

// NewTagLoader creates a loader for the struct types of values. Values may be
// structs or pointers to structs.
func NewTagLoader(values ...any) (*TagLoader, error) {
	tl := &TagLoader{known: make(map[reflect.Type]bool)}
	for _, v := range values {
		t := reflect.TypeOf(v)
		for t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("cannot load model from %T: not a struct", v)
		}
		if tl.known[t] {
			continue
		}
		tl.known[t] = true
		tl.types = append(tl.types, t)
	}
	return tl, nil
}

// FromStructs loads the struct types of values into a catalog. Fields whose
// type is another loaded struct (or a pointer or slice of one) become
// relations; every other exported field becomes a column.
func FromStructs(values ...any) (*schema.Catalog, error) {
	tl, err := NewTagLoader(values...)
	if err != nil {
		return nil, err
	}
	models, err := tl.Load()
	if err != nil {
		return nil, err
	}
	return schema.NewCatalog(models...)
}

// Load converts every struct type into a model
func (tl *TagLoader) Load() ([]*schema.Model, error) {
	models := make([]*schema.Model, 0, len(tl.types))
	for _, t := range tl.types {
		m, err := tl.parseStruct(t)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", t.Name(), err)
		}
		models = append(models, m)
	}
	return models, nil
}

// parseStruct converts a Go struct type to a schema.Model
func (tl *TagLoader) parseStruct(t reflect.Type) (*schema.Model, error) {
	model := &schema.Model{
		Name:      t.Name(),
		TableName: tl.getTableName(t),
		Type:      t,
	}

	zero := reflect.New(t).Interface()
	if c, ok := zero.(Configurer); ok {
		model.Config = c.SchemaConfig()
	}
	var info map[string]schema.Config
	if c, ok := zero.(AttributeConfigurer); ok {
		info = c.SchemaInfo()
	}

	for _, field := range reflect.VisibleFields(t) {
		if field.Anonymous {
			continue
		}
		name, ok := schema.AttrName(field)
		if !ok {
			continue
		}

		tag := tl.parseDBTag(field.Tag.Get(schema.TagKey))
		attrInfo := tag.Info
		if extra, ok := info[name]; ok {
			attrInfo = mergeInfo(attrInfo, extra)
		}

		if target, many, ok := tl.relationTarget(field.Type); ok {
			model.Attributes = append(model.Attributes, tl.parseRelation(name, target, many, tag, attrInfo))
			continue
		}

		column, err := tl.parseField(name, field.Type, tag, attrInfo)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		model.Attributes = append(model.Attributes, column)
	}

	return model, nil
}

// parseField converts a struct field to a schema.Column
func (tl *TagLoader) parseField(name string, goType reflect.Type, tag *FieldTag, info schema.Config) (*schema.Column, error) {
	dataType := tag.DataType
	if dataType == "" {
		dataType = tl.inferDataType(goType)
	}
	typ, err := schema.ParseType(dataType)
	if err != nil {
		return nil, err
	}

	column := &schema.Column{
		Name:          name,
		Type:          typ,
		PrimaryKey:    tag.Primary,
		Unique:        tag.Unique,
		ServerDefault: tag.ServerDefault,
		Autoincrement: tag.Autoincrement,
		ForeignKey:    tag.ForeignKey,
		Info:          info,
	}

	// pointers are nullable unless the tag says otherwise
	column.Nullable = tag.Nullable || (goType.Kind() == reflect.Ptr && !tag.NotNull && !tag.Primary)

	switch {
	case tag.DefaultSQL != "":
		column.Default = schema.ServerComputed(tag.DefaultSQL)
	case tag.Default != nil:
		v, err := parseDefault(*tag.Default, goType)
		if err != nil {
			return nil, err
		}
		column.Default = schema.Static(v)
	}

	return column, nil
}

func (tl *TagLoader) parseRelation(name string, target reflect.Type, many bool, tag *FieldTag, info schema.Config) *schema.Relation {
	rel := &schema.Relation{
		Name:          name,
		Type:          schema.ManyToOne,
		Target:        target.Name(),
		Required:      tag.Required,
		ForeignKeys:   tag.JoinColumns,
		JunctionTable: tag.JunctionTable,
		Info:          info,
	}
	if many {
		rel.Type = schema.OneToMany
	}
	if tag.Relation != "" {
		rel.Type = schema.RelationType(tag.Relation)
	}
	return rel
}

// relationTarget reports whether t refers to a loaded struct type, directly,
// through a pointer or as a slice element.
func (tl *TagLoader) relationTarget(t reflect.Type) (reflect.Type, bool, bool) {
	many := false
	if t.Kind() == reflect.Slice {
		many = true
		t = t.Elem()
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if tl.known[t] {
		return t, many, true
	}
	return nil, false, false
}

// parseDBTag parses the ormschema tag value
func (tl *TagLoader) parseDBTag(dbTag string) *FieldTag {
	tag := &FieldTag{}

	// e.g. "column:email;type:varchar(64);primary;unique;not_null;default:value"
	for key, value := range schema.ParseTag(dbTag) {
		switch key {
		case "column":
			tag.ColumnName = value
		case "type":
			tag.DataType = value
		case "default":
			v := value
			tag.Default = &v
		case "default_sql":
			tag.DefaultSQL = value
		case "fk":
			tag.ForeignKey = tl.parseForeignKey(value)
		case "rel":
			tag.Relation = value
		case "fk_columns":
			tag.JoinColumns = strings.Split(value, ",")
		case "through":
			tag.JunctionTable = value
		case "primary":
			tag.Primary = true
		case "unique":
			tag.Unique = true
		case "not_null":
			tag.NotNull = true
		case "nullable":
			tag.Nullable = true
		case "required":
			tag.Required = true
		case "server_default":
			tag.ServerDefault = true
		case "autoincrement":
			b := value != "false"
			tag.Autoincrement = &b
		case "title", "description":
			tag.setInfo(key, value)
		case "exclude":
			tag.setInfo(key, value != "false")
		}
	}

	return tag
}

// parseForeignKey parses foreign key specification
func (tl *TagLoader) parseForeignKey(fkSpec string) *schema.ForeignKey {
	// Format: "table.column:on_delete:on_update"
	parts := strings.Split(fkSpec, ":")

	refParts := strings.Split(parts[0], ".")
	if len(refParts) != 2 {
		return nil
	}

	fk := &schema.ForeignKey{
		ReferencesTable:  refParts[0],
		ReferencesColumn: refParts[1],
	}

	if len(parts) > 1 {
		fk.OnDelete = parts[1]
	}
	if len(parts) > 2 {
		fk.OnUpdate = parts[2]
	}

	return fk
}

// getTableName converts struct name to table name
func (tl *TagLoader) getTableName(t reflect.Type) string {
	if tabler, ok := reflect.New(t).Interface().(Tabler); ok {
		return tabler.TableName()
	}

	// Convert PascalCase to snake_case and pluralize
	tableName := schema.ToSnakeCase(t.Name())

	// Simple pluralization rules
	if strings.HasSuffix(tableName, "y") {
		// Change y to ies (e.g., category -> categories)
		tableName = strings.TrimSuffix(tableName, "y") + "ies"
	} else if !strings.HasSuffix(tableName, "s") {
		// Add s if it doesn't end with s
		tableName += "s"
	}

	return tableName
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	ratType  = reflect.TypeOf(big.Rat{})
)

// inferDataType infers a storage type from the Go type
func (tl *TagLoader) inferDataType(goType reflect.Type) string {
	for goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}

	switch goType {
	case timeType:
		return "timestamp"
	case uuidType:
		return "uuid"
	case ratType:
		return "numeric"
	}

	switch goType.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int16, reflect.Int8,
		reflect.Uint, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		return "integer"
	case reflect.Int64, reflect.Uint64:
		return "bigint"
	case reflect.String:
		return "text"
	case reflect.Bool:
		return "boolean"
	case reflect.Float32, reflect.Float64:
		return "double precision"
	case reflect.Slice, reflect.Map, reflect.Struct:
		return "jsonb" // Arrays and objects as JSON
	}
	return "text" // Default fallback
}

// parseDefault converts a tag default to the field's Go kind.
func parseDefault(value string, goType reflect.Type) (any, error) {
	for goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	switch goType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid default '%s': %w", value, err)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid default '%s': %w", value, err)
		}
		return f, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid default '%s': %w", value, err)
		}
		return b, nil
	}
	return value, nil
}

func mergeInfo(base, extra schema.Config) schema.Config {
	out := base.Copy()
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// FieldTag represents parsed ormschema tag information
type FieldTag struct {
	ColumnName    string
	DataType      string
	Primary       bool
	Unique        bool
	NotNull       bool
	Nullable      bool
	Default       *string
	DefaultSQL    string
	ServerDefault bool
	Autoincrement *bool
	ForeignKey    *schema.ForeignKey

	Relation      string
	Required      bool
	JoinColumns   []string // local foreign key columns of a relation
	JunctionTable string

	Info schema.Config
}

func (t *FieldTag) setInfo(key string, value any) {
	if t.Info == nil {
		t.Info = schema.Config{}
	}
	t.Info[key] = value
}
