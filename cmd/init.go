package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/ormschema/loader"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new ormschema project",
	Long: `Initialize a new ormschema project with an example models file.

Default: YAML models file (models.yaml)
- Simple, declarative model definitions
- Works with every command out of the box

Alternative: Go structs with ormschema tags (--structs)
- Type-safe, IDE-friendly model definitions
- Load them with loader.FromStructs

Examples:
  ormschema init                    # Write models.yaml
  ormschema init --structs          # Write models/models.go
`,
	Run: func(cmd *cobra.Command, args []string) {
		path, content := cfg.ModelsFile, scaffoldYAML
		if useStructs {
			path, content = filepath.Join("models", "models.go"), scaffoldStructs
		}

		if err := writeScaffold(path, content); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Created %s\n", path)
		if useStructs {
			fmt.Println("📝 Load the structs with loader.FromStructs(Account{}, Address{})")
		} else {
			fmt.Println("📝 Next: ormschema validate && ormschema build Account")
		}
	},
}

var useStructs bool

func init() {
	initCmd.Flags().BoolVar(&useStructs, "structs", false, "Scaffold Go structs with ormschema tags instead of YAML")
}

func writeScaffold(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml" {
		if _, err := loader.ParseYAML([]byte(content)); err != nil {
			return fmt.Errorf("invalid scaffold: %v", err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return nil
}

const scaffoldYAML = `# Model definitions: columns become schema nodes, relations nest
models:
  - name: Account
    table: accounts
    config:
      unknown: raise
      excludes: [password]
    columns:
      - name: id
        type: integer
        primary: true
      - name: email
        type: varchar(255)
        unique: true
        info:
          title: E-mail
      - name: password
        type: varchar(128)
      - name: name
        type: varchar(64)
        nullable: true
      - name: active
        type: boolean
        default: true
      - name: created_at
        type: timestamp
        default_sql: now()
    relations:
      - name: addresses
        type: one-to-many
        target: Address

  - name: Address
    table: addresses
    columns:
      - name: id
        type: integer
        primary: true
      - name: street
        type: varchar(128)
      - name: city
        type: varchar(64)
      - name: account_id
        type: integer
        references: accounts.id
        on_delete: CASCADE
    relations:
      - name: account
        target: Account
        foreign_keys: [account_id]
`

const scaffoldStructs = `package models

import "time"

type Account struct {
	ID        int64      ` + "`ormschema:\"column:id;primary\"`" + `
	Email     string     ` + "`ormschema:\"type:varchar(255);unique;title:E-mail\"`" + `
	Password  string     ` + "`ormschema:\"type:varchar(128);exclude\"`" + `
	Name      *string    ` + "`ormschema:\"type:varchar(64)\"`" + `
	Active    bool       ` + "`ormschema:\"default:true\"`" + `
	CreatedAt *time.Time ` + "`ormschema:\"default_sql:now()\"`" + `
	Addresses []*Address
}

type Address struct {
	ID        int64    ` + "`ormschema:\"column:id;primary\"`" + `
	Street    string   ` + "`ormschema:\"type:varchar(128)\"`" + `
	City      string   ` + "`ormschema:\"type:varchar(64)\"`" + `
	AccountID int64    ` + "`ormschema:\"fk:accounts.id:CASCADE\"`" + `
	Account   *Account ` + "`ormschema:\"fk_columns:account_id\"`" + `
}
`
