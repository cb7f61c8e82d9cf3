package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate model definitions and the schemas built from them",
	Long: `Validate your model definitions before building schemas from them.

This command checks:
- Model and attribute naming
- Column types (every type must map to a schema node type, or carry a typ override)
- Static defaults (they must serialize under the column's type)
- Class config (includes, excludes and unknown policy)
- Foreign key references and relation targets
- That a schema builds for every model with default options

Examples:
  ormschema validate                     # Validate models.yaml
  ormschema validate --models shop.yaml  # Validate another models file
  ormschema validate --db                # Validate the models introspected from DATABASE_URL
  ormschema validate --format json       # Output validation results as JSON
`,
	Run: func(cmd *cobra.Command, args []string) {
		valid, err := validateModels(cmd.Context())
		if err != nil {
			fmt.Printf("❌ Model validation failed: %v\n", err)
			os.Exit(1)
		}
		if !valid {
			os.Exit(1)
		}
	},
}

var validateFormat string

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateModels(ctx context.Context) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	catalog, err := loadCatalog(ctx)
	if err != nil {
		return false, err
	}

	result := validator.NewSchemaValidator(catalog).ValidateCatalog()
	if validateFormat == "json" {
		return result.Valid, outputJSON(result)
	}
	return result.Valid, outputText(result)
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputText(result *validator.ValidationResult) error {
	if result.Valid {
		color.Green("✅ Model validation passed!")
	} else {
		color.Red("❌ Model validation failed!")
	}

	printIssues("🔴 Errors", result.Errors)
	printIssues("🟡 Warnings", result.Warnings)
	printIssues("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if result.Valid {
		fmt.Printf("\n🎉 Your models are valid and ready to build schemas from!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before building schemas.\n")
	}

	return nil
}

func printIssues(title string, issues []validator.ValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(issues))
	for i, issue := range issues {
		fmt.Printf("  %d. ", i+1)
		if issue.Model != "" {
			fmt.Printf("[%s]", issue.Model)
		}
		if issue.Attribute != "" {
			fmt.Printf(".%s", issue.Attribute)
		}
		fmt.Printf(": %s\n", issue.Message)
	}
}
