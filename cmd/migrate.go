package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations on both stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		working, _, err := openWorking(ctx)
		if err != nil {
			return err
		}
		defer working.Close()

		if cfg.Record.DatabaseURL != "" {
			record, err := openRecord()
			if err != nil {
				return err
			}
			defer record.Close()
			if err := record.Migrate(ctx); err != nil {
				return err
			}
		}

		fmt.Println("migrations complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
