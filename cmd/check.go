package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/config"
	"github.com/ridoystarlord/ormschema/database"
	"github.com/ridoystarlord/ormschema/lookup"
	"github.com/ridoystarlord/ormschema/node"
)

var checkCmd = &cobra.Command{
	Use:   "check <model>",
	Short: "Validate a JSON document against a model's schema",
	Long: `Deserialize a JSON document with the schema built for a model and
report every validation failure by its dotted path.

With --objectify the validated data is also applied to a record of the
model. Adding --lookup resolves related objects given by primary key from
the database at DATABASE_URL.

Examples:
  ormschema check Account --data account.json
  ormschema check Address --data address.json --objectify --lookup
  cat account.json | ormschema check Account
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ok, err := checkData(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("❌ Check failed: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
	},
}

var (
	checkDataFile  string
	checkObjectify bool
	checkLookup    bool
	checkTimeout   time.Duration
)

func init() {
	checkCmd.Flags().StringVarP(&checkDataFile, "data", "d", "-", "JSON file to check (- for stdin)")
	checkCmd.Flags().BoolVar(&checkObjectify, "objectify", false, "Apply the validated data to a record")
	checkCmd.Flags().BoolVar(&checkLookup, "lookup", false, "Load related objects given by key from the database")
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "Timeout for database lookups")
}

func checkData(ctx context.Context, name string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	data, err := readJSON(checkDataFile)
	if err != nil {
		return false, err
	}

	var store lookup.Store
	if checkLookup {
		var closeStore func()
		store, closeStore, err = lookupStore(ctx)
		if err != nil {
			return false, err
		}
		defer closeStore()
	}

	s, err := schemaFor(ctx, name, store)
	if err != nil {
		return false, err
	}

	appstruct, err := s.Deserialize(data)
	if err != nil {
		return false, reportInvalid(err)
	}
	if !checkObjectify {
		color.Green("✅ Data is valid for %s", name)
		return true, outputJSON(appstruct)
	}

	fields, ok := appstruct.(map[string]any)
	if !ok {
		return false, fmt.Errorf("expected an object, got %T", appstruct)
	}
	obj, err := s.Objectify(ctx, fields, nil)
	if err != nil {
		return false, reportInvalid(err)
	}
	color.Green("✅ Data is valid for %s", name)
	return true, outputJSON(obj)
}

func readJSON(path string) (any, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %v", err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse data: %v", err)
	}
	return data, nil
}

// reportInvalid prints validation failures and swallows them; other errors
// are returned.
func reportInvalid(err error) error {
	var inv *node.Invalid
	if !errors.As(err, &inv) {
		return err
	}

	flat := inv.Asdict()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	color.Red("❌ Data is invalid (%d problems):", len(keys))
	for _, k := range keys {
		path := k
		if path == "" {
			path = "(root)"
		}
		fmt.Printf("  • %s: %s\n", path, flat[k])
	}
	return nil
}

func lookupStore(ctx context.Context) (lookup.Store, func(), error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, nil, err
	}
	switch driver {
	case config.DriverPostgres:
		pool, err := database.GetPool(cfg)
		if err != nil {
			return nil, nil, err
		}
		return lookup.NewPostgresStore(pool), database.ClosePool, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return lookup.NewSQLStore(db), func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("--lookup needs DATABASE_URL")
}
