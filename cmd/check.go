package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veerababu74/spunkads/pkg/sheetpush"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe connectivity to the sheet endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := sheetpush.NewClient(cfg.Sheets.WebAppURL,
			sheetpush.WithRetries(cfg.Sheets.RetryAttempts))

		if err := client.Check(cmd.Context()); err != nil {
			return err
		}
		zap.L().Info("sheet endpoint reachable", zap.String("url", cfg.Sheets.WebAppURL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
