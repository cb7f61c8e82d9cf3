package cmd

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/schema"
)

var (
	outputDir   string
	packageName string
)

func init() {
	generateStructsCmd.Flags().StringVarP(&outputDir, "output", "o", "models", "Output directory for generated structs")
	generateStructsCmd.Flags().StringVarP(&packageName, "package", "p", "models", "Package name for generated structs")
}

var generateStructsCmd = &cobra.Command{
	Use:   "generate-structs",
	Short: "Generate Go structs from models",
	Long: `Generate Go structs with ormschema tags from your models file or database.
The generated structs load back into the same models with loader.FromStructs.

Examples:
  ormschema generate-structs                        # Generate ./models/models.go
  ormschema generate-structs -o ./internal/models   # Custom output directory
  ormschema generate-structs -p entities            # Custom package name
  ormschema generate-structs --db                   # Generate from DATABASE_URL
`,
	Run: func(cmd *cobra.Command, args []string) {
		catalog, err := loadCatalog(cmd.Context())
		if err != nil {
			fmt.Println("❌ Loading models:", err)
			os.Exit(1)
		}

		src, err := renderStructs(catalog, packageName)
		if err != nil {
			fmt.Println("❌ Generating structs:", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			fmt.Println("❌ Creating output directory:", err)
			os.Exit(1)
		}
		outputFile := filepath.Join(outputDir, "models.go")
		if err := os.WriteFile(outputFile, src, 0644); err != nil {
			fmt.Println("❌ Writing structs:", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Generated %d structs in %s\n", len(catalog.Models()), outputFile)
	},
}

type StructData struct {
	PackageName string
	Imports     []string
	Models      []ModelData
}

type ModelData struct {
	Name      string
	TableName string
	Fields    []FieldData
}

type FieldData struct {
	Name string
	Type string
	Tags string
}

const structsTemplate = `// Code generated by ormschema generate-structs. DO NOT EDIT.

package {{.PackageName}}
{{if .Imports}}
import (
{{range .Imports}}	"{{.}}"
{{end}})
{{end}}
{{range .Models}}
// {{.Name}} represents the {{.TableName}} table
type {{.Name}} struct {
{{range .Fields}}	{{.Name}} {{.Type}} {{.Tags}}
{{end}}}

// TableName returns the table name for {{.Name}}
func ({{.Name}}) TableName() string {
	return "{{.TableName}}"
}
{{end}}`

// renderStructs renders one struct per model of c, formatted with gofmt.
func renderStructs(c *schema.Catalog, pkg string) ([]byte, error) {
	data := StructData{PackageName: pkg}
	imports := make(map[string]bool)

	for _, model := range c.Models() {
		md := ModelData{
			Name:      toPascalCase(model.Name),
			TableName: model.TableName,
		}
		for _, attr := range model.Attributes {
			switch a := attr.(type) {
			case *schema.Column:
				goType, pkgPath := mapColumnTypeToGoType(a.Type)
				if pkgPath != "" {
					imports[pkgPath] = true
				}
				if a.Nullable && !strings.HasPrefix(goType, "*") {
					goType = "*" + goType
				}
				md.Fields = append(md.Fields, FieldData{
					Name: toPascalCase(a.Name),
					Type: goType,
					Tags: generateTags(a, strings.HasPrefix(goType, "*")),
				})
			case *schema.Relation:
				target, err := c.Target(a)
				if err != nil {
					return nil, fmt.Errorf("model %s: %v", model.Name, err)
				}
				goType := "*" + toPascalCase(target.Name)
				if a.ToMany() {
					goType = "[]" + goType
				}
				md.Fields = append(md.Fields, FieldData{
					Name: toPascalCase(a.Name),
					Type: goType,
					Tags: generateRelationTags(a),
				})
			}
		}
		data.Models = append(data.Models, md)
	}

	for path := range imports {
		data.Imports = append(data.Imports, path)
	}
	sort.Strings(data.Imports)

	tmpl, err := template.New("structs").Parse(structsTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing structs template: %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %v", err)
	}
	return src, nil
}

// mapColumnTypeToGoType returns the Go type for a column type and the import
// path it needs, if any.
func mapColumnTypeToGoType(t schema.ColumnType) (string, string) {
	for t.Impl != nil {
		t = *t.Impl
	}
	switch strings.ToLower(t.Name) {
	case "serial", "integer", "int", "int4":
		return "int", ""
	case "bigserial", "bigint", "int8":
		return "int64", ""
	case "smallint", "int2", "smallserial":
		return "int16", ""
	case "boolean", "bool":
		return "bool", ""
	case "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone",
		"datetime", "date", "time", "time without time zone":
		return "time.Time", "time"
	case "numeric", "decimal":
		return "*big.Rat", "math/big"
	case "real", "float4", "float", "double precision", "float8":
		return "float64", ""
	default:
		return "string", ""
	}
}

func generateTags(col *schema.Column, pointer bool) string {
	typ := col.Type
	for typ.Impl != nil {
		typ = *typ.Impl
	}
	parts := []string{
		"column:" + col.Name,
		"type:" + typ.String(),
	}
	if col.PrimaryKey {
		parts = append(parts, "primary")
	}
	if col.Unique {
		parts = append(parts, "unique")
	}
	switch {
	case col.Nullable && !pointer:
		parts = append(parts, "nullable")
	case !col.Nullable && pointer && !col.PrimaryKey:
		parts = append(parts, "not_null")
	}
	switch col.Default.Kind {
	case schema.DefaultStatic:
		parts = append(parts, fmt.Sprintf("default:%v", col.Default.Value))
	case schema.DefaultServerComputed:
		parts = append(parts, "default_sql:"+col.Default.Expr)
	}
	if col.ServerDefault {
		parts = append(parts, "server_default")
	}
	if col.Autoincrement != nil {
		parts = append(parts, fmt.Sprintf("autoincrement:%t", *col.Autoincrement))
	}
	if fk := col.ForeignKey; fk != nil {
		spec := fk.ReferencesTable + "." + fk.ReferencesColumn
		if fk.OnDelete != "" || fk.OnUpdate != "" {
			spec += ":" + fk.OnDelete
		}
		if fk.OnUpdate != "" {
			spec += ":" + fk.OnUpdate
		}
		parts = append(parts, "fk:"+spec)
	}
	return fmt.Sprintf("`%s:\"%s\"`", schema.TagKey, strings.Join(parts, ";"))
}

func generateRelationTags(rel *schema.Relation) string {
	parts := []string{"column:" + rel.Name}
	// slices load as one-to-many and pointers as many-to-one
	if rel.Type == schema.OneToOne || rel.Type == schema.ManyToMany {
		parts = append(parts, "rel:"+string(rel.Type))
	}
	if rel.Required {
		parts = append(parts, "required")
	}
	if len(rel.ForeignKeys) > 0 {
		parts = append(parts, "fk_columns:"+strings.Join(rel.ForeignKeys, ","))
	}
	if rel.JunctionTable != "" {
		parts = append(parts, "through:"+rel.JunctionTable)
	}
	return fmt.Sprintf("`%s:\"%s\"`", schema.TagKey, strings.Join(parts, ";"))
}

func toPascalCase(s string) string {
	// Convert snake_case to PascalCase, keeping common initialisms upper case
	parts := strings.Split(s, "_")
	for i, part := range parts {
		switch strings.ToLower(part) {
		case "id", "url", "uuid", "api":
			parts[i] = strings.ToUpper(part)
		default:
			if len(part) > 0 {
				parts[i] = strings.ToUpper(part[:1]) + part[1:]
			}
		}
	}
	return strings.Join(parts, "")
}
