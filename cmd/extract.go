package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veerababu74/spunkads/internal/pipeline"
)

var (
	extractMode  string
	extractDate  string
	extractStart string
	extractEnd   string
)

// applyExtractFlags folds the date window flags into the loaded config.
func applyExtractFlags() {
	if extractMode != "" {
		cfg.Extract.Mode = extractMode
	}
	if extractDate != "" {
		cfg.Extract.Mode = "specific_date"
		cfg.Extract.SpecificDate = extractDate
	}
	if extractStart != "" && extractEnd != "" {
		cfg.Extract.Mode = "date_range"
		cfg.Extract.RangeStart = extractStart
		cfg.Extract.RangeEnd = extractEnd
	}
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch campaign stats and write CSV/XLSX files",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyExtractFlags()
		if err := cfg.Extract.Validate(); err != nil {
			return err
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		res, err := p.Extract(cmd.Context())
		if err != nil {
			return err
		}
		if err := p.WriteFiles(res); err != nil {
			return err
		}

		zap.L().Info("extract complete",
			zap.Int("detailed_rows", len(res.Detailed.Rows)),
			zap.Int("summary_rows", len(res.Summary.Rows)),
			zap.Strings("files", res.Files))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractMode, "mode", "", "extraction window: today, yesterday, specific_date, date_range")
	extractCmd.Flags().StringVar(&extractDate, "date", "", "specific date (YYYY-MM-DD)")
	extractCmd.Flags().StringVar(&extractStart, "start", "", "range start (YYYY-MM-DD)")
	extractCmd.Flags().StringVar(&extractEnd, "end", "", "range end (YYYY-MM-DD)")
	rootCmd.AddCommand(extractCmd)
}
