package cmd

import (
	"context"
	"fmt"

	"edi-exchange/core/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sendCmd sends one output record.
var sendCmd = &cobra.Command{
	Use:   "send <record-id>",
	Short: "Send an output record to its backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := recordID(args[0])
		if err != nil {
			return err
		}
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		rec, sent, err := rt.service.Send(context.Background(), id)
		if err != nil {
			return err
		}
		rt.logger.Info("Send finished",
			zap.Uint("record_id", rec.ID),
			zap.Bool("sent", sent),
			zap.String("state", string(rec.State)),
			zap.String("error", rec.ExchangeError))
		return nil
	},
}

// processCmd imports one received input record.
var processCmd = &cobra.Command{
	Use:   "process <record-id>",
	Short: "Process a received input record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := recordID(args[0])
		if err != nil {
			return err
		}
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		rec, ok, err := rt.service.Process(context.Background(), id)
		if err != nil {
			return err
		}
		rt.logger.Info("Process finished",
			zap.Uint("record_id", rec.ID),
			zap.Bool("processed", ok),
			zap.String("state", string(rec.State)),
			zap.String("error", rec.ExchangeError))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(sendCmd)
	RootCmd.AddCommand(processCmd)
}

func recordID(arg string) (uint, error) {
	id := utils.ToUint64(arg)
	if id == 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return uint(id), nil
}
