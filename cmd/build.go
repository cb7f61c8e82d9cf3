package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/builder"
	"github.com/ridoystarlord/ormschema/lookup"
	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/schema"
)

var buildCmd = &cobra.Command{
	Use:   "build <model>",
	Short: "Build and print the schema derived from a model",
	Long: `Build the validation schema for a model and print it.

Columns become scalar nodes, relations become nested mappings (to-one) or
sequences of mappings (to-many). Class config declared on the model applies
unless overridden by flags.

Examples:
  ormschema build Account                          # Print the schema tree
  ormschema build Account --exclude password       # Leave an attribute out
  ormschema build Account --include id,email       # Select and order attributes
  ormschema build Account --unknown raise          # Reject unexpected keys
  ormschema build Account --format json            # Describe the schema as JSON
  ormschema build Account --format dump            # Dump the raw node tree
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := buildSchema(cmd.Context(), args[0]); err != nil {
			fmt.Printf("❌ Failed to build schema: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	buildIncludes []string
	buildExcludes []string
	buildUnknown  string
	buildFormat   string
)

func init() {
	buildCmd.Flags().StringSliceVarP(&buildIncludes, "include", "i", nil, "Attributes to include, in order")
	buildCmd.Flags().StringSliceVarP(&buildExcludes, "exclude", "e", nil, "Attributes to exclude")
	buildCmd.Flags().StringVarP(&buildUnknown, "unknown", "u", "", "Unknown key policy (ignore, raise, preserve)")
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "text", "Output format (text, json, dump)")
}

// schemaFor loads the catalog and builds the schema of the named model
// with the build flags applied.
func schemaFor(ctx context.Context, name string, store lookup.Store) (*builder.Schema, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	catalog, err := loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	model, ok := catalog.Model(name)
	if !ok {
		return nil, fmt.Errorf("model '%s' not found, available: %v", name, catalog.Names())
	}

	opts, err := buildOptions(model)
	if err != nil {
		return nil, err
	}
	opts.Lookup = store
	return builder.Build(catalog, model, opts)
}

func buildOptions(model *schema.Model) (builder.Options, error) {
	opts := builder.Options{
		Includes:  buildIncludes,
		Excludes:  buildExcludes,
		Callables: cfg.Callables,
		Logger:    logger.With("command", "build"),
	}

	unknown := buildUnknown
	if unknown == "" && !model.Config.Has("unknown") {
		unknown = string(cfg.Unknown)
	}
	if unknown != "" {
		u, err := node.ParseUnknown(unknown)
		if err != nil {
			return opts, err
		}
		opts.Unknown = u
	}
	return opts, nil
}

func buildSchema(ctx context.Context, name string) error {
	s, err := schemaFor(ctx, name, nil)
	if err != nil {
		return err
	}

	switch buildFormat {
	case "json":
		return outputJSON(Describe(s.Node))
	case "dump":
		dumpNode(os.Stdout, s.Node)
		return nil
	case "text":
		color.Green("✅ Schema for %s (%d attributes)", s.Model.Name, len(s.Children))
		printTree(os.Stdout, Describe(s.Node), 0)
		return nil
	}
	return fmt.Errorf("unknown format '%s', must be one of: text, json, dump", buildFormat)
}
