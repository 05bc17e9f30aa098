package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veerababu74/spunkads/internal/pipeline"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Push previously written CSV files to the sheet endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		if err := p.UploadFiles(cmd.Context()); err != nil {
			return err
		}
		zap.L().Info("upload complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
