package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tasnim.dev/datalake-indexer/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "datalake-indexer",
		Short:         "Catalog the objects under an S3 prefix as a Parquet table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.NewRunCmd())
	rootCmd.AddCommand(cmd.NewInspectCmd())
	rootCmd.AddCommand(cmd.NewHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
