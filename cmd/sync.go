package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veerababu74/spunkads/internal/pipeline"
)

var syncKeepFiles bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full pipeline: extract, write files, upload",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyExtractFlags()
		if err := cfg.Extract.Validate(); err != nil {
			return err
		}
		if syncKeepFiles {
			cfg.Output.ClearFiles = false
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		if err := p.Sync(cmd.Context()); err != nil {
			return err
		}
		zap.L().Info("sync complete")
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&extractMode, "mode", "", "extraction window: today, yesterday, specific_date, date_range")
	syncCmd.Flags().StringVar(&extractDate, "date", "", "specific date (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&extractStart, "start", "", "range start (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&extractEnd, "end", "", "range end (YYYY-MM-DD)")
	syncCmd.Flags().BoolVar(&syncKeepFiles, "keep-files", false, "keep emitted files even when cleanup is configured")
	rootCmd.AddCommand(syncCmd)
}
