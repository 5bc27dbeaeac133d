package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

func newStagesCommand(a *app) *cobra.Command {
	var (
		format    string
		outputDir string
		verbose   bool
	)
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Aggregate manufactured component needs per production stage over all root products",
		Example: `  prodplan stages --scenario scenarios/bicycle
  prodplan stages --format xlsx --output reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			_, stages, _ := a.services(s)

			start := time.Now()
			report, err := stages.Calculate(ctx)
			if err != nil {
				return err
			}
			return output.GenerateStages(a.out, report, output.Config{
				Format:    format,
				OutputDir: outputDir,
				Verbose:   verbose,
				Elapsed:   time.Since(start),
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", output.FormatText, "Output format: text, json, csv, xlsx")
	cmd.Flags().StringVar(&outputDir, "output", "", "Write the report into this directory (required for xlsx)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print explosion statistics")
	return cmd
}
