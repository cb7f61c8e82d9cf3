package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/config"
	"github.com/ridoystarlord/ormschema/database"
	"github.com/ridoystarlord/ormschema/introspect"
	"github.com/ridoystarlord/ormschema/loader"
	"github.com/ridoystarlord/ormschema/schema"
)

var rootCmd = &cobra.Command{
	Use:   "ormschema",
	Short: "Derive validation schemas from ORM model definitions",
	Long: `ormschema builds validation and serialization schemas from model
definitions: a YAML models file or the tables of a live database.

Examples:

  ormschema init
  ormschema validate
  ormschema build Account --exclude password
  ormschema check Account --data account.json
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if modelsFile != "" {
			cfg.ModelsFile = modelsFile
		}
		logger = cfg.Logger()
		return nil
	},
}

var (
	cfg        *config.Config
	logger     *slog.Logger
	modelsFile string
	fromDB     bool
)

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&modelsFile, "models", "m", "", "Models YAML file (default $ORMSCHEMA_MODELS or models.yaml)")
	rootCmd.PersistentFlags().BoolVar(&fromDB, "db", false, "Introspect the database at DATABASE_URL instead of reading the models file")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateStructsCmd)
}

// loadCatalog reads the models from the models file, or from the database
// when --db is set.
func loadCatalog(ctx context.Context) (*schema.Catalog, error) {
	if !fromDB {
		c, err := loader.LoadCatalog(cfg.ModelsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load models: %v", err)
		}
		return c, nil
	}
	return introspectCatalog(ctx)
}

// introspectCatalog reads the tables of the database at DATABASE_URL.
func introspectCatalog(ctx context.Context) (*schema.Catalog, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}
	switch driver {
	case config.DriverPostgres:
		pool, err := database.GetPool(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get database pool: %v", err)
		}
		return introspect.Postgres(ctx, pool, "")
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return introspect.SQLite(ctx, db)
	}
	return nil, fmt.Errorf("DATABASE_URL not set (in .env or environment)")
}
