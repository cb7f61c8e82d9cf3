package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/builder"
	"github.com/ridoystarlord/ormschema/schema"
)

var (
	docsFormat string
	docsOutput string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate documentation from models",
	Long: `Generate documentation for the schemas built from your models.

Supported formats:
  - markdown: one table per model listing every field of its schema
  - mermaid: Mermaid ERD diagram of models and relations

Examples:
  ormschema docs --format markdown --output schemas.md
  ormschema docs --format mermaid --output erd.md
`,
	Run: func(cmd *cobra.Command, args []string) {
		catalog, err := loadCatalog(cmd.Context())
		if err != nil {
			fmt.Printf("❌ Error loading models: %v\n", err)
			os.Exit(1)
		}
		if len(catalog.Models()) == 0 {
			fmt.Println("❌ No models found")
			os.Exit(1)
		}

		var content string
		switch docsFormat {
		case "markdown":
			content, err = generateMarkdownContent(catalog, logger)
		case "mermaid":
			content = generateMermaidContent(catalog)
		default:
			fmt.Printf("❌ Unsupported format: %s\n", docsFormat)
			fmt.Println("Supported formats: markdown, mermaid")
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("❌ Error generating documentation: %v\n", err)
			os.Exit(1)
		}

		if docsOutput == "" || docsOutput == "-" {
			fmt.Print(content)
			return
		}
		if err := os.WriteFile(docsOutput, []byte(content), 0644); err != nil {
			fmt.Printf("❌ Error writing documentation: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Documentation saved to: %s\n", docsOutput)
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsFormat, "format", "f", "markdown", "Documentation format (markdown, mermaid)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file (default stdout)")
}

func generateMarkdownContent(c *schema.Catalog, log *slog.Logger) (string, error) {
	var content strings.Builder

	content.WriteString("# Schemas\n\n")
	content.WriteString("Fields of the schema built for each model with default options. Nested fields use dotted paths.\n\n")

	for _, model := range c.Models() {
		s, err := builder.Build(c, model, builder.Options{Logger: log})
		if err != nil {
			return "", fmt.Errorf("model %s: %w", model.Name, err)
		}
		d := Describe(s.Node)

		content.WriteString(fmt.Sprintf("## %s\n\n", model.Name))
		if d.Description != "" {
			content.WriteString(d.Description + "\n\n")
		}
		content.WriteString(fmt.Sprintf("Table `%s`, unknown keys: %s.\n\n", model.TableName, d.Unknown))
		content.WriteString("| Field | Type | Required | Missing | Default | Title |\n")
		content.WriteString("|-------|------|----------|---------|---------|-------|\n")
		writeFieldRows(&content, d.Children, "")
		content.WriteString("\n")
	}

	return content.String(), nil
}

func writeFieldRows(w io.Writer, fields []NodeDescription, prefix string) {
	for _, f := range fields {
		path := prefix + f.Name
		required := ""
		if f.Required {
			required = "yes"
		}
		fmt.Fprintf(w, "| `%s` | %s | %s | %s | %s | %s |\n", path, f.Type, required, f.Missing, f.Default, f.Title)

		children := f.Children
		if f.Type == "Sequence" && len(children) == 1 {
			path += "[]"
			children = children[0].Children
		}
		writeFieldRows(w, children, path+".")
	}
}

func generateMermaidContent(c *schema.Catalog) string {
	var content strings.Builder

	content.WriteString("```mermaid\n")
	content.WriteString("erDiagram\n")

	for _, model := range c.Models() {
		content.WriteString(fmt.Sprintf("    %s {\n", model.Name))
		for _, col := range model.Columns() {
			var keys []string
			if col.PrimaryKey {
				keys = append(keys, "PK")
			}
			if col.ForeignKey != nil {
				keys = append(keys, "FK")
			}
			if col.Unique {
				keys = append(keys, "UK")
			}
			typ := strings.ReplaceAll(col.Type.Underlying().Name, " ", "_")
			content.WriteString(fmt.Sprintf("        %s %s %s\n", typ, col.Name, strings.Join(keys, ",")))
		}
		content.WriteString("    }\n")
	}

	for _, model := range c.Models() {
		for _, attr := range model.Attributes {
			rel, ok := attr.(*schema.Relation)
			if !ok {
				continue
			}
			target, err := c.Target(rel)
			if err != nil {
				continue
			}
			content.WriteString(fmt.Sprintf("    %s %s %s : %s\n", model.Name, mermaidCardinality(rel), target.Name, rel.Name))
		}
	}

	content.WriteString("```\n")
	return content.String()
}

func mermaidCardinality(rel *schema.Relation) string {
	switch rel.Type {
	case schema.OneToOne:
		return "||--||"
	case schema.OneToMany:
		return "||--o{"
	case schema.ManyToMany:
		return "}o--o{"
	}
	return "}o--||"
}
