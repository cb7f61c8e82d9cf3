package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/diff"
	"github.com/ridoystarlord/ormschema/loader"
)

var diffVisual bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between the models file and the database",
	Long: `Show where your models file and the database at DATABASE_URL disagree.
Schemas are built from the models, so drift means they accept data the
database would reject, or reject data it would accept.

Examples:
  ormschema diff                    # Show differences in text format
  ormschema diff --visual           # Group differences by table, with colors
  ormschema diff -m custom.yaml     # Use a custom models file
`,
	Run: func(cmd *cobra.Command, args []string) {
		defined, err := loader.LoadCatalog(cfg.ModelsFile)
		if err != nil {
			fmt.Printf("❌ Error loading models: %v\n", err)
			os.Exit(1)
		}

		existing, err := introspectCatalog(cmd.Context())
		if err != nil {
			fmt.Printf("❌ Error introspecting database: %v\n", err)
			os.Exit(1)
		}

		differences := diff.Compare(defined, existing)
		if len(differences) == 0 {
			fmt.Println("✅ No differences found between models and database")
			return
		}

		if diffVisual {
			showVisualDiff(differences)
		} else {
			showTextDiff(differences)
		}
		os.Exit(1)
	},
}

func init() {
	diffCmd.Flags().BoolVarP(&diffVisual, "visual", "v", false, "Group differences by table")
}

func showTextDiff(differences []diff.Difference) {
	fmt.Printf("🔍 Found %d differences:\n", len(differences))
	for i, d := range differences {
		fmt.Printf("  %d. %s\n", i+1, d)
	}
}

func showVisualDiff(differences []diff.Difference) {
	fmt.Println("🌳 Model Drift (Visual Diff)")
	fmt.Println(strings.Repeat("=", 50))

	var tables []string
	byTable := make(map[string][]diff.Difference)
	for _, d := range differences {
		if _, ok := byTable[d.TableName]; !ok {
			tables = append(tables, d.TableName)
		}
		byTable[d.TableName] = append(byTable[d.TableName], d)
	}

	for _, table := range tables {
		fmt.Printf("\n📋 %s\n", color.CyanString(table))
		for _, d := range byTable[table] {
			symbol, paint := diffSymbol(d.Type)
			detail := d.ColumnName
			if detail == "" {
				detail = "(table)"
			}
			switch {
			case d.Expected != "" && d.Actual != "":
				detail += fmt.Sprintf(": %s → %s", d.Actual, d.Expected)
			case d.Expected != "":
				detail += ": " + d.Expected
			case d.Actual != "":
				detail += ": " + d.Actual
			}
			fmt.Printf("  %s %s\n", paint(symbol), detail)
		}
	}
}

// diffSymbol returns a marker for the difference and its color: green for
// what the database lacks, red for what it has in excess.
func diffSymbol(t diff.DifferenceType) (string, func(format string, a ...interface{}) string) {
	switch t {
	case diff.MissingTable, diff.MissingColumn, diff.MissingForeignKey:
		return "+", color.GreenString
	case diff.ExtraTable, diff.ExtraColumn, diff.ExtraForeignKey:
		return "-", color.RedString
	}
	return "~", color.YellowString
}
