package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// Supported formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
}

// GenerateStages renders a stage report to w, or to a file in OutputDir when set
func GenerateStages(w io.Writer, report *explosion.StageReport, config Config) error {
	switch config.Format {
	case FormatText, "":
		return toTarget(w, config, "stage_report.txt", func(out io.Writer) error {
			return writeStagesText(out, report, config)
		})
	case FormatJSON:
		return toTarget(w, config, "stage_report.json", func(out io.Writer) error {
			return writeJSON(out, report)
		})
	case FormatCSV:
		return toTarget(w, config, "stage_report.csv", func(out io.Writer) error {
			return WriteStagesCSV(out, report)
		})
	case FormatXLSX:
		if config.OutputDir == "" {
			return fmt.Errorf("output directory required for xlsx format")
		}
		return toTarget(w, config, StagesWorkbookFilename(report.AsOf), func(out io.Writer) error {
			return WriteStagesWorkbook(out, report)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateTree renders a specification tree to w, or to a file in OutputDir when set
func GenerateTree(w io.Writer, tree *explosion.TreeResponse, config Config) error {
	switch config.Format {
	case FormatText, "":
		return toTarget(w, config, "spec_tree.txt", func(out io.Writer) error {
			return writeTreeText(out, tree, config)
		})
	case FormatJSON:
		return toTarget(w, config, "spec_tree.json", func(out io.Writer) error {
			return writeJSON(out, tree)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateDebug renders a specification resolution report
func GenerateDebug(w io.Writer, report *explosion.DebugReport, config Config) error {
	switch config.Format {
	case FormatText, "":
		return toTarget(w, config, "spec_debug.txt", func(out io.Writer) error {
			return writeDebugText(out, report)
		})
	case FormatJSON:
		return toTarget(w, config, "spec_debug.json", func(out io.Writer) error {
			return writeJSON(out, report)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func toTarget(w io.Writer, config Config, filename string, write func(io.Writer) error) error {
	if config.OutputDir == "" {
		return write(w)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "💾 Results saved to: %s\n", path)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeStagesText(w io.Writer, report *explosion.StageReport, config Config) error {
	fmt.Fprintf(w, "📊 Stage Requirements\n")
	fmt.Fprintf(w, "=====================\n\n")
	if report.AsOf != nil {
		fmt.Fprintf(w, "Stock as of: %s\n", report.AsOf.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(w, "Stock as of: unknown\n")
	}
	fmt.Fprintf(w, "Stages: %d\n", len(report.Stages))
	if config.Verbose {
		fmt.Fprintf(w, "Nodes visited: %d, cycles: %d, depth limit hits: %d\n",
			report.Stats.NodesVisited, report.Stats.CyclesDetected, report.Stats.DepthLimitHits)
		fmt.Fprintf(w, "Explosion Time: %v\n", config.Elapsed)
	}
	fmt.Fprintln(w)

	for _, stage := range report.Stages {
		fmt.Fprintf(w, "🏭 %s (stage %d)\n", stage.StageName, stage.StageID)
		for _, product := range stage.Products {
			fmt.Fprintf(w, "  %s %s\n", product.RootItemCode, product.RootItemName)
			fmt.Fprintf(w, "    %-15s %-30s %12s %12s %-14s\n", "Code", "Name", "Qty/Unit", "Stock", "Method")
			fmt.Fprintf(w, "    %-15s %-30s %12s %12s %-14s\n",
				"---------------", "------------------------------", "------------", "------------", "--------------")
			for _, c := range product.Components {
				fmt.Fprintf(w, "    %-15s %-30s %12s %12s %-14s\n",
					c.ItemCode, c.ItemName, formatQty(c.QtyPerUnit), formatQty(c.StockQty), c.ReplenishmentMethod)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

var stageCSVHeader = []string{
	"stage_id", "stage_name", "root_item_id", "root_item_code", "root_item_name",
	"item_id", "item_code", "item_name", "qty_per_unit", "stock_qty", "replenishment_method",
}

// WriteStagesCSV writes one row per (stage, root product, component)
func WriteStagesCSV(w io.Writer, report *explosion.StageReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(stageCSVHeader); err != nil {
		return err
	}
	for _, stage := range report.Stages {
		for _, product := range stage.Products {
			for _, c := range product.Components {
				err := cw.Write([]string{
					strconv.FormatInt(stage.StageID, 10),
					stage.StageName,
					strconv.FormatInt(product.RootItemID, 10),
					product.RootItemCode,
					product.RootItemName,
					strconv.FormatInt(c.ItemID, 10),
					c.ItemCode,
					c.ItemName,
					formatQty(c.QtyPerUnit),
					formatQty(c.StockQty),
					c.ReplenishmentMethod,
				})
				if err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTreeText(w io.Writer, tree *explosion.TreeResponse, config Config) error {
	fmt.Fprintf(w, "🌳 Specification Tree\n")
	fmt.Fprintf(w, "=====================\n\n")
	for _, node := range tree.Nodes {
		writeTreeNode(w, node, 0)
	}
	if config.Verbose && tree.Meta.Stats != nil {
		fmt.Fprintf(w, "\nNodes visited: %d, cycles: %d, depth limit hits: %d, dangling lines: %d\n",
			tree.Meta.Stats.NodesVisited, tree.Meta.Stats.CyclesDetected,
			tree.Meta.Stats.DepthLimitHits, tree.Meta.Stats.DanglingComponents)
	}
	return nil
}

func writeTreeNode(w io.Writer, node *explosion.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	var line string
	switch node.Type {
	case explosion.NodeOperation:
		line = fmt.Sprintf("%s⚙ %s", indent, node.Name)
		if node.Computed.TreeTimeNh != nil {
			line += fmt.Sprintf("  %s h", formatQty(*node.Computed.TreeTimeNh))
		}
	default:
		code := ""
		if node.Item != nil {
			code = node.Item.Code + " "
		}
		line = fmt.Sprintf("%s%s%s", indent, code, node.Name)
		if node.Computed.TreeQty != nil {
			line += fmt.Sprintf("  x%s %s", formatQty(*node.Computed.TreeQty), node.Unit)
		}
		if node.HasChildren && len(node.Children) == 0 && !node.Cycle {
			line += "  [+]"
		}
	}
	if node.Stage != nil {
		line += fmt.Sprintf("  @%s", node.Stage.Name)
	}
	if len(node.Warnings) > 0 {
		line += "  ⚠ " + strings.Join(node.Warnings, ",")
	}
	fmt.Fprintln(w, line)

	for _, child := range node.Children {
		writeTreeNode(w, child, depth+1)
	}
}

func writeDebugText(w io.Writer, report *explosion.DebugReport) error {
	fmt.Fprintf(w, "🔍 %s %s (id %d, %s)\n", report.Item.Code, report.Item.Name, report.Item.ID, report.Item.Unit)
	fmt.Fprintf(w, "Default specification:  %s\n", specIDText(report.DefaultSpecID))
	fmt.Fprintf(w, "Resolved specification: %s", specIDText(report.ResolvedSpecID))
	if report.UsedFallback {
		fmt.Fprintf(w, " (code/name fallback)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Components: %d, operations: %d, children: %d\n",
		report.ComponentsCount, report.OperationsCount, report.ChildrenCount)

	for _, child := range report.ChildrenSample {
		line := fmt.Sprintf("  %-9s %s", child.Type, child.Name)
		if child.StageName != nil {
			line += "  @" + *child.StageName
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func specIDText(id *entities.SpecID) string {
	if id == nil {
		return "none"
	}
	return strconv.FormatInt(int64(*id), 10)
}
