package commands

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/application/services/planning"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the specification graph for cycles, duplicate and dangling component lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := planning.NewValidationService(s.catalog, a.logger).Validate(ctx)
			if err != nil {
				return err
			}

			if result.Valid() {
				fmt.Fprintln(a.out, "✅ Specification graph is valid")
				return nil
			}

			fmt.Fprintln(a.out, "❌ Specification graph has problems:")
			for _, path := range result.CyclePaths {
				fmt.Fprintf(a.out, "  cycle: %s\n", strings.Join(path, " -> "))
			}
			for _, line := range result.DuplicateLines {
				fmt.Fprintf(a.out, "  duplicate line %d in specification %d (item %d)\n", line.ID, line.SpecID, line.ChildItemID)
			}
			for _, line := range result.DanglingLines {
				fmt.Fprintf(a.out, "  dangling line %d in specification %d (unknown item %d)\n", line.ID, line.SpecID, line.ChildItemID)
			}
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("specification graph invalid: %d problem(s)", len(result.Errors)))
		},
	}
}
