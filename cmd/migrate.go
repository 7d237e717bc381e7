package cmd

import (
	"context"
	"fmt"
	"os"

	"edi-exchange/feature/exchange"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the exchange tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the exchange tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		ctx := context.Background()
		if err := rt.repo.Migrate(ctx); err != nil {
			return err
		}
		missing, err := rt.repo.VerifySchema(ctx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("schema still missing columns after migration: %v", missing)
		}
		rt.logger.Info("Schema is up to date")
		return nil
	},
}

// seedCmd loads backends and exchange types from a YAML file.
var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Create backends and exchange types from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()

		result, err := exchange.Seed(context.Background(), rt.repo, f, rt.logger)
		if err != nil {
			return err
		}
		rt.logger.Info("Seed finished", zap.Int("backends", result.Backends), zap.Int("types", result.Types))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
	RootCmd.AddCommand(seedCmd)
}
