package cmd

import (
	"fmt"
	"os"

	"edi-exchange/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "edi-exchange",
	Short: "EDI file exchange service",
	Long: `EDI Exchange moves EDI files between this system and its trading partners.
It sends output files to partner storage (S3 or local disk), watches for their outcome
and picks up input files, tracking every file as an exchange record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps reads better from a terminal.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
