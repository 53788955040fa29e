package main

import (
	"fmt"
	"os"

	"github.com/ignatij/sheetflow/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sheetflow",
	Short: "Field data entry forwarded to Google Sheets",
}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
