package cmd

import (
	"fmt"
	"os"

	"github.com/curaious/tasky/internal/config"
	"github.com/curaious/tasky/internal/db"
	"github.com/curaious/tasky/internal/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run Migrations",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display status of each migration",
	Run: func(cmd *cobra.Command, args []string) {
		status := mustMigrator().Status()

		pending := 0
		for _, st := range status {
			if !st.Applied() {
				pending++
			}
			fmt.Println(st)
		}
		fmt.Printf("%d applied, %d pending\n", len(status)-pending, pending)
	},
}

var migrateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new empty migration file",
	Run: func(cmd *cobra.Command, args []string) {
		name, err := cmd.Flags().GetString("name")
		exitOnError("Unable to read flag `name`", err)
		dir, err := cmd.Flags().GetString("dir")
		exitOnError("Unable to read flag `dir`", err)

		path, err := migrations.CreateMigration(dir, name)
		exitOnError("Unable to create new migration file", err)
		fmt.Println("Generated", path)
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run up migrations",
	Long:  "Run all 'up' migrations by default.\nIf step is provided, it will run `N` 'up' migrations.",
	Run: func(cmd *cobra.Command, args []string) {
		step, err := cmd.Flags().GetInt("step")
		exitOnError("Unable to read flag `step`", err)

		exitOnError("Unable to run `up` migrations", mustMigrator().Up(cmd.Context(), step))
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Run down migrations",
	Long:  "Run all 'down' migrations by default.\nIf step is provided, it will run `N` 'down' migrations.",
	Run: func(cmd *cobra.Command, args []string) {
		step, err := cmd.Flags().GetInt("step")
		exitOnError("Unable to read flag `step`", err)

		exitOnError("Unable to run `down` migrations", mustMigrator().Down(cmd.Context(), step))
	},
}

func mustMigrator() *migrations.Migrator {
	migrator, err := migrations.NewMigrator(db.NewConn(config.ReadConfig()))
	exitOnError("Unable to initialize migrator", err)
	return migrator
}

func exitOnError(msg string, err error) {
	if err != nil {
		fmt.Println(msg, err)
		os.Exit(1)
	}
}

// Register the "migrate" command
func init() {
	migrateCreateCmd.Flags().StringP("name", "n", "", "Name for the migration, in lower snake case")
	migrateCreateCmd.Flags().String("dir", "./internal/migrations", "Directory the migration file is written to")
	migrateCmd.AddCommand(migrateCreateCmd)

	migrateUpCmd.Flags().IntP("step", "s", 0, "Number of migrations to execute")
	migrateCmd.AddCommand(migrateUpCmd)

	migrateDownCmd.Flags().IntP("step", "s", 0, "Number of migrations to execute")
	migrateCmd.AddCommand(migrateDownCmd)

	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(migrateCmd)
}
