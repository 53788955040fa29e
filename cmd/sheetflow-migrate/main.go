// cmd/sheetflow-migrate/main.go
package main

import (
	"fmt"
	"os"

	"github.com/ignatij/sheetflow/internal/config"
	internal_storage "github.com/ignatij/sheetflow/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "sheetflow-migrate"}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the journal table",
	Run: func(cmd *cobra.Command, args []string) {
		// Load .env if present
		if err := godotenv.Load(); err != nil {
			fmt.Printf("No .env file found or failed to load: %v. Using --db flag.\n", err)
		}

		dsn, _ := cmd.Flags().GetString("db")
		if dsn == "" {
			dsn = os.Getenv("SHEETFLOW_JOURNAL_DSN")
		}
		if dsn == "" {
			dsn = config.DefaultJournalDSN
		}
		if dsn == internal_storage.MemoryDSN {
			fmt.Println("Error: the in-memory journal has nothing to migrate")
			os.Exit(1)
		}

		if err := internal_storage.Migrate(dsn); err != nil {
			fmt.Printf("Failed to apply migrations: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied successfully")
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("db", "", "Journal DSN: sqlite path or postgres:// URL (default SHEETFLOW_JOURNAL_DSN, then sheetflow.db)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
