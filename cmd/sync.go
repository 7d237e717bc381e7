package cmd

import (
	"context"

	"edi-exchange/feature/exchange/batch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncInput  bool
	syncOutput bool
)

// syncCmd runs one reconciliation pass.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile due exchange records once",
	Long: `Checks every output record waiting for an outcome and every input record
waiting for its file. Without flags both sweeps run.

Examples:
  # Both sweeps
  sync

  # Only look for partner outcomes of sent files
  sync --output`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncInput, "input", false, "Run the input sweep")
	syncCmd.Flags().BoolVar(&syncOutput, "output", false, "Run the output sweep")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	opts := batch.Options{CheckInput: syncInput, CheckOutput: syncOutput}
	if !syncInput && !syncOutput {
		opts = batch.Options{CheckInput: true, CheckOutput: true}
	}

	report, err := rt.service.Sync(context.Background(), opts)
	if err != nil {
		return err
	}
	logSweep(rt.logger, batch.SweepOutput, report.Output)
	logSweep(rt.logger, batch.SweepInput, report.Input)
	return nil
}

func logSweep(l *zap.Logger, name string, r *batch.SweepReport) {
	if r == nil {
		return
	}
	l.Info("Sync report",
		zap.String("sweep", name),
		zap.Int("selected", r.Selected),
		zap.Int("settled", r.Settled),
		zap.Int("pending", r.Pending),
		zap.Int("failed", r.Failed),
		zap.Duration("took", r.Took))
	for _, f := range r.Failures {
		l.Warn("Record failed", zap.Uint("record_id", f.RecordID), zap.String("error", f.Error))
	}
}
