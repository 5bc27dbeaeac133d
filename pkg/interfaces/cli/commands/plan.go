package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/application/services/planning"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

type planOptions struct {
	start     string
	days      int
	stageID   int64
	page      int
	pageSize  int
	sortBy    string
	sortDir   string
	format    string
	outputDir string
}

func newPlanCommand(a *app) *cobra.Command {
	opts := planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the production plan of root products as a date matrix",
		Example: `  prodplan plan --scenario scenarios/bicycle --start 2026-04-01 --days 7
  prodplan plan --stage 3 --sort-by month_plan --sort-dir desc --format csv
  prodplan plan --format xlsx --output reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := planning.MatrixRequest{
				StartDate: opts.start,
				Days:      opts.days,
				Page:      opts.page,
				PageSize:  opts.pageSize,
				SortBy:    opts.sortBy,
				SortDir:   opts.sortDir,
			}
			if cmd.Flags().Changed("stage") {
				stage := opts.stageID
				req.StageID = &stage
			}

			ctx := cmd.Context()
			s, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			matrix, err := a.planService(s).Matrix(ctx, req)
			if err != nil {
				return err
			}
			return output.GeneratePlan(a.out, matrix, output.Config{Format: opts.format, OutputDir: opts.outputDir})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.start, "start", "", "First plan date, YYYY-MM-DD (default: today)")
	flags.IntVar(&opts.days, "days", planning.DefaultPlanDays, "Number of days in the matrix")
	flags.Int64Var(&opts.stageID, "stage", 0, "Only entries of this production stage")
	flags.IntVar(&opts.page, "page", 1, "Page of products")
	flags.IntVar(&opts.pageSize, "page-size", planning.DefaultPlanPageSize, "Products per page")
	flags.StringVar(&opts.sortBy, "sort-by", planning.SortByItemName, "Sort key: item_name, item_code, item_article, month_plan")
	flags.StringVar(&opts.sortDir, "sort-dir", "asc", "Sort direction: asc, desc")
	flags.StringVar(&opts.format, "format", output.FormatText, "Output format: text, json, csv, xlsx")
	flags.StringVar(&opts.outputDir, "output", "", "Write the plan into this directory (required for xlsx)")
	return cmd
}
