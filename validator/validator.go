package validator

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ridoystarlord/ormschema/builder"
	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/overrides"
	"github.com/ridoystarlord/ormschema/schema"
	"github.com/ridoystarlord/ormschema/typemap"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Type      string `json:"type"`
	Model     string `json:"model,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
	Severity  string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func (r *ValidationResult) add(e ValidationError) {
	switch e.Severity {
	case "error":
		r.Errors = append(r.Errors, e)
	case "warning":
		r.Warnings = append(r.Warnings, e)
	default:
		r.Info = append(r.Info, e)
	}
}

// SchemaValidator checks a catalog of models before schemas are built from it
type SchemaValidator struct {
	catalog *schema.Catalog
	logger  *slog.Logger
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator(c *schema.Catalog) *SchemaValidator {
	return &SchemaValidator{
		catalog: c,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// ValidateCatalog validates every model of the catalog and tries to build
// its schema with default options.
func (v *SchemaValidator) ValidateCatalog() *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}

	for _, model := range v.catalog.Models() {
		v.validateModel(model, result)
	}

	// Cross-model validations
	v.validateForeignKeys(result)

	// Update overall validity
	result.Valid = len(result.Errors) == 0

	return result
}

// validateModel validates a single model
func (v *SchemaValidator) validateModel(model *schema.Model, result *ValidationResult) {
	if model.TableName != "" {
		if err := v.validateIdentifier("table", model.TableName); err != nil {
			result.add(ValidationError{
				Type:     "table_name",
				Model:    model.Name,
				Message:  err.Error(),
				Severity: "error",
			})
		}
	}

	if len(model.Attributes) == 0 {
		result.add(ValidationError{
			Type:     "no_attributes",
			Model:    model.Name,
			Message:  fmt.Sprintf("Model '%s' must have at least one attribute", model.Name),
			Severity: "error",
		})
		return
	}

	v.validateClassConfig(model, result)

	names := make(map[string]bool)
	for _, attr := range model.Attributes {
		name := attr.AttrName()

		// Check for duplicate attribute names
		if names[name] {
			result.add(ValidationError{
				Type:      "duplicate_attribute",
				Model:     model.Name,
				Attribute: name,
				Message:   fmt.Sprintf("Duplicate attribute name '%s' in model '%s'", name, model.Name),
				Severity:  "error",
			})
			continue
		}
		names[name] = true

		if err := v.validateIdentifier("attribute", name); err != nil {
			result.add(ValidationError{
				Type:      "attribute_name",
				Model:     model.Name,
				Attribute: name,
				Message:   err.Error(),
				Severity:  "error",
			})
		}

		switch a := attr.(type) {
		case *schema.Column:
			v.validateColumn(model, a, result)
		case *schema.Relation:
			v.validateRelation(model, a, result)
		}
	}

	if len(model.PrimaryKey()) == 0 {
		result.add(ValidationError{
			Type:     "no_primary_key",
			Model:    model.Name,
			Message:  fmt.Sprintf("Model '%s' has no primary key: recursive relations to it nest as empty mappings", model.Name),
			Severity: "warning",
		})
	}

	// A successful build proves the override layers are consistent
	if _, err := builder.Build(v.catalog, model, builder.Options{Logger: v.logger}); err != nil {
		result.add(ValidationError{
			Type:     "build",
			Model:    model.Name,
			Message:  err.Error(),
			Severity: "error",
		})
	}
}

func (v *SchemaValidator) validateClassConfig(model *schema.Model, result *ValidationResult) {
	includes, _ := model.Config.Strings("includes")
	excludes, _ := model.Config.Strings("excludes")
	if err := overrides.CheckIncludesExcludes(includes, excludes); err != nil {
		result.add(ValidationError{
			Type:     "class_config",
			Model:    model.Name,
			Message:  err.Error(),
			Severity: "error",
		})
	}
	for _, name := range includes {
		if !model.HasAttribute(name) {
			result.add(ValidationError{
				Type:      "include_not_found",
				Model:     model.Name,
				Attribute: name,
				Message:   fmt.Sprintf("Model '%s' includes unknown attribute '%s', it will be skipped", model.Name, name),
				Severity:  "warning",
			})
		}
	}
	if u, ok := model.Config["unknown"].(string); ok {
		if _, err := node.ParseUnknown(u); err != nil {
			result.add(ValidationError{
				Type:     "class_config",
				Model:    model.Name,
				Message:  err.Error(),
				Severity: "error",
			})
		}
	}
}

// validateColumn checks that the column maps to a node type and that a
// static default serializes under it.
func (v *SchemaValidator) validateColumn(model *schema.Model, column *schema.Column, result *ValidationResult) {
	typ, _, err := typemap.Map(column.Name, column.Type)
	if err != nil {
		if column.Info.Has("typ") || column.Type.Config.Has("typ") {
			typ = nil
		} else {
			result.add(ValidationError{
				Type:      "data_type",
				Model:     model.Name,
				Attribute: column.Name,
				Message:   err.Error(),
				Severity:  "error",
			})
			return
		}
	}

	if typ != nil && column.Default.Kind == schema.DefaultStatic {
		n := node.New(column.Name, typ)
		if _, err := n.Serialize(column.Default.Value); err != nil {
			result.add(ValidationError{
				Type:      "default_value",
				Model:     model.Name,
				Attribute: column.Name,
				Message:   fmt.Sprintf("Default %v does not fit type '%s': %v", column.Default.Value, column.Type, err),
				Severity:  "warning",
			})
		}
	}

	if column.ForeignKey != nil {
		if err := v.validateForeignKeyDefinition(column, model.TableName); err != nil {
			result.add(ValidationError{
				Type:      "foreign_key",
				Model:     model.Name,
				Attribute: column.Name,
				Message:   err.Error(),
				Severity:  "error",
			})
		}
	}
}

func (v *SchemaValidator) validateRelation(model *schema.Model, rel *schema.Relation, result *ValidationResult) {
	target, err := v.catalog.Target(rel)
	if err != nil {
		result.add(ValidationError{
			Type:      "relation_target",
			Model:     model.Name,
			Attribute: rel.Name,
			Message:   err.Error(),
			Severity:  "error",
		})
		return
	}

	for _, name := range rel.ForeignKeys {
		if model.Column(name) == nil {
			result.add(ValidationError{
				Type:      "relation_foreign_key",
				Model:     model.Name,
				Attribute: rel.Name,
				Message:   fmt.Sprintf("Relation '%s' joins on non-existent column '%s'", rel.Name, name),
				Severity:  "error",
			})
		}
	}

	if target == model {
		result.add(ValidationError{
			Type:      "self_reference",
			Model:     model.Name,
			Attribute: rel.Name,
			Message:   fmt.Sprintf("Relation '%s' refers back to '%s', nested levels stop at the primary key", rel.Name, model.Name),
			Severity:  "info",
		})
	}
}

// validateIdentifier validates identifier format
func (v *SchemaValidator) validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}

	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", kind, name)
	}

	// Check for valid characters
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}

	return nil
}

// validateForeignKeyDefinition validates foreign key definition
func (v *SchemaValidator) validateForeignKeyDefinition(column *schema.Column, tableName string) error {
	fk := column.ForeignKey

	if fk.ReferencesTable == "" {
		return fmt.Errorf("foreign key references table cannot be empty")
	}

	if fk.ReferencesColumn == "" {
		return fmt.Errorf("foreign key references column cannot be empty")
	}

	if fk.ReferencesTable == tableName && fk.ReferencesColumn == column.Name {
		return fmt.Errorf("foreign key cannot reference itself")
	}

	// Validate onDelete and onUpdate actions
	validActions := []string{"CASCADE", "SET NULL", "SET DEFAULT", "RESTRICT", "NO ACTION"}
	for _, action := range []struct{ name, value string }{{"onDelete", fk.OnDelete}, {"onUpdate", fk.OnUpdate}} {
		if action.value == "" {
			continue
		}
		isValid := false
		for _, valid := range validActions {
			if strings.ToUpper(action.value) == valid {
				isValid = true
				break
			}
		}
		if !isValid {
			return fmt.Errorf("invalid %s action '%s', must be one of: %v", action.name, action.value, validActions)
		}
	}

	return nil
}

// validateForeignKeys validates foreign key references across models
func (v *SchemaValidator) validateForeignKeys(result *ValidationResult) {
	for _, model := range v.catalog.Models() {
		for _, column := range model.Columns() {
			fk := column.ForeignKey
			if fk == nil || fk.ReferencesTable == "" {
				continue
			}

			// Check if referenced table exists
			target, ok := v.catalog.ByTable(fk.ReferencesTable)
			if !ok {
				target, ok = v.catalog.Model(fk.ReferencesTable)
			}
			if !ok {
				result.add(ValidationError{
					Type:      "foreign_key_table_not_found",
					Model:     model.Name,
					Attribute: column.Name,
					Message:   fmt.Sprintf("Foreign key references non-existent table '%s'", fk.ReferencesTable),
					Severity:  "error",
				})
				continue
			}

			// Check if referenced column exists
			if fk.ReferencesColumn != "" && target.Column(fk.ReferencesColumn) == nil {
				result.add(ValidationError{
					Type:      "foreign_key_column_not_found",
					Model:     model.Name,
					Attribute: column.Name,
					Message:   fmt.Sprintf("Foreign key references non-existent column '%s' in table '%s'", fk.ReferencesColumn, fk.ReferencesTable),
					Severity:  "error",
				})
			}
		}
	}
}
