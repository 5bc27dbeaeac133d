package commands

import (
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

type treeOptions struct {
	itemCode       string
	itemID         int64
	qty            string
	depth          int
	full           bool
	maxDepth       int
	parentID       string
	characteristic string
	debug          bool
	format         string
	verbose        bool
}

func newTreeCommand(a *app) *cobra.Command {
	opts := treeOptions{}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the specification tree of an item",
		Example: `  prodplan tree --scenario scenarios/bicycle --item-code BIKE --depth 2
  prodplan tree --item-code BIKE --full --format json
  prodplan tree --parent-id item:3:2.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTree(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.itemCode, "item-code", "", "Root item code")
	flags.Int64Var(&opts.itemID, "item-id", 0, "Root item id")
	flags.StringVar(&opts.qty, "qty", "1", "Root quantity")
	flags.IntVar(&opts.depth, "depth", 1, "Levels to pre-expand")
	flags.BoolVar(&opts.full, "full", false, "Expand the whole tree up to --max-depth")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "Depth bound of --full (default: explosion.max_depth)")
	flags.StringVar(&opts.parentID, "parent-id", "", "Print only the children of this node id")
	flags.StringVar(&opts.characteristic, "characteristic", "", "Variant characteristic of the root")
	flags.BoolVar(&opts.debug, "debug", false, "Explain how the root's specification resolves")
	flags.StringVar(&opts.format, "format", output.FormatText, "Output format: text, json")
	flags.BoolVar(&opts.verbose, "verbose", false, "Print explosion statistics")
	return cmd
}

func (a *app) runTree(cmd *cobra.Command, opts treeOptions) error {
	ctx := cmd.Context()
	qty, err := decimal.NewFromString(opts.qty)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid --qty: " + opts.qty).
			WithCause(err)
	}

	req := explosion.TreeRequest{
		ItemCode:       opts.itemCode,
		Characteristic: opts.characteristic,
		RootQty:        qty,
		Depth:          opts.depth,
		ParentNodeID:   opts.parentID,
	}
	if cmd.Flags().Changed("item-id") {
		id := entities.ItemID(opts.itemID)
		req.ItemID = &id
	}

	s, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	trees, _, _ := a.services(s)

	if opts.debug {
		report, err := trees.Debug(ctx, req)
		if err != nil {
			return err
		}
		return output.GenerateDebug(a.out, report, output.Config{Format: opts.format})
	}

	var tree *explosion.TreeResponse
	if opts.full {
		tree, err = trees.Full(ctx, req, opts.maxDepth)
	} else {
		tree, err = trees.Tree(ctx, req)
	}
	if err != nil {
		return err
	}
	return output.GenerateTree(a.out, tree, output.Config{Format: opts.format, Verbose: opts.verbose})
}
