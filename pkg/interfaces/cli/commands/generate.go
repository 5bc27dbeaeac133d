package commands

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Items     int     // Total number of items to generate
	MaxDepth  int     // Maximum depth of the specification tree
	Roots     int     // Number of root products to register, 0 registers every root
	Stock     float64 // Stock multiplier (e.g., 0.5 = half of one unit's need, 4.0 = 4x)
	OutputDir string  // Output directory for generated files
	Seed      int64   // Random seed for reproducible generation
	Verbose   bool    // Verbose output
}

// Stage ids of generated scenarios, deepest work first
const (
	genStageMachining entities.StageID = 1
	genStageWelding   entities.StageID = 2
	genStageAssembly  entities.StageID = 3
)

// specNode is an item of the generated tree
type specNode struct {
	id        entities.ItemID
	code      string
	level     int
	isRoot    bool
	purchased bool
	children  []specEdge
	parents   []*specNode
}

type specEdge struct {
	child *specNode
	qty   int
}

// scenarioGenerator builds random specification trees with shared components
type scenarioGenerator struct {
	config GenerateConfig
	rand   *rand.Rand
	nodes  []*specNode
}

func newScenarioGenerator(config GenerateConfig) *scenarioGenerator {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &scenarioGenerator{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

func newGenerateCommand(a *app) *cobra.Command {
	config := GenerateConfig{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic CSV scenario for load and performance testing",
		Example: `  # Generate small test scenario
  prodplan generate --items 100 --max-depth 5 --output ./test_scenario

  # Generate large reproducible scenario
  prodplan generate --items 30000 --max-depth 8 --stock 1.2 --output ./large_scenario --seed 12345`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if config.Items < 1 || config.MaxDepth < 1 || config.OutputDir == "" {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("--items, --max-depth and --output are required")
			}

			g := newScenarioGenerator(config)
			if config.Verbose {
				fmt.Fprintf(a.out, "🔧 Generating scenario with %d items, max depth %d, %.1fx stock\n",
					config.Items, config.MaxDepth, config.Stock)
				fmt.Fprintf(a.out, "📁 Output directory: %s\n", config.OutputDir)
			}

			scenario := g.generate()
			if err := csv.WriteScenario(config.OutputDir, scenario); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to write scenario").
					WithCause(err)
			}

			if config.Verbose {
				fmt.Fprintf(a.out, "✅ Scenario generated successfully in %s (%d specifications, %d lines)\n",
					config.OutputDir, len(scenario.Specifications), len(scenario.Components))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&config.Items, "items", 0, "Number of items to generate")
	flags.IntVar(&config.MaxDepth, "max-depth", 0, "Maximum depth of the specification tree")
	flags.IntVar(&config.Roots, "roots", 0, "Number of root products to register (0: all)")
	flags.Float64Var(&config.Stock, "stock", 0.5, "Stock multiplier relative to one unit of the first root")
	flags.StringVar(&config.OutputDir, "output", "", "Output directory for generated files")
	flags.Int64Var(&config.Seed, "seed", 0, "Random seed for reproducible generation")
	flags.BoolVar(&config.Verbose, "verbose", false, "Enable verbose output")
	return cmd
}

// generate builds the tree and converts it into catalog rows
func (g *scenarioGenerator) generate() *csv.Scenario {
	roots := g.generateTree()
	stock := g.calculatePartCounts(roots)

	scenario := &csv.Scenario{
		Stages: []*entities.ProductionStage{
			{ID: genStageMachining, Name: "Machining", Order: 1},
			{ID: genStageWelding, Name: "Welding", Order: 2},
			{ID: genStageAssembly, Name: "Assembly", Order: 3},
		},
	}

	var lineID, defaultID int64
	for _, node := range g.nodes {
		method := entities.Manufactured
		if node.purchased {
			method = entities.Purchased
		}
		qty := int64(math.Round(float64(stock[node.id]) * g.config.Stock))
		scenario.Items = append(scenario.Items, &entities.Item{
			ID:                  node.id,
			Code:                node.code,
			Name:                g.generateDescription(node),
			Article:             fmt.Sprintf("ART-%05d", node.id),
			Unit:                "pcs",
			ReplenishmentMethod: method,
			StockQty:            decimal.NewFromInt(qty),
		})

		if len(node.children) == 0 {
			continue
		}

		owner := node.id
		specID := entities.SpecID(node.id)
		scenario.Specifications = append(scenario.Specifications, &entities.Specification{
			ID:          specID,
			Code:        "SP-" + node.code,
			Name:        node.code + " specification",
			OwnerItemID: &owner,
		})
		defaultID++
		scenario.DefaultSpecs = append(scenario.DefaultSpecs, &entities.DefaultSpecification{
			ID:     defaultID,
			ItemID: node.id,
			SpecID: specID,
		})

		for _, edge := range node.children {
			lineID++
			stage := stageForLevel(edge.child.level)
			scenario.Components = append(scenario.Components, &entities.SpecComponent{
				ID:           lineID,
				SpecID:       specID,
				ChildItemID:  edge.child.id,
				QtyPerParent: decimal.NewFromInt(int64(edge.qty)),
				StageID:      &stage,
			})
		}

		lineID++
		stage := stageForLevel(node.level + 1)
		opID, opName := operationForStage(stage)
		scenario.Operations = append(scenario.Operations, &entities.SpecOperation{
			ID:            lineID,
			SpecID:        specID,
			OperationID:   opID,
			OperationName: opName,
			TimeNorm:      decimal.NewFromInt(int64(1 + g.rand.Intn(16))).Div(decimal.NewFromInt(4)),
			StageID:       &stage,
		})
	}

	limit := g.config.Roots
	if limit <= 0 || limit > len(roots) {
		limit = len(roots)
	}
	for _, root := range roots[:limit] {
		scenario.RootProductCodes = append(scenario.RootProductCodes, root.code)
	}
	return scenario
}

// generateTree creates a realistic specification tree with shared components
func (g *scenarioGenerator) generateTree() []*specNode {
	var roots []*specNode

	// about 2% of all items are finished products
	numRoots := max(1, g.config.Items/50+g.rand.Intn(3))
	numRoots = min(numRoots, g.config.Items)
	for i := 0; i < numRoots; i++ {
		roots = append(roots, g.newNode(fmt.Sprintf("ROOT_ASSEMBLY_%03d", i+1), 0, true))
	}

	currentLevel := roots
	level := 0
	for level < g.config.MaxDepth && len(g.nodes) < g.config.Items {
		level++
		var nextLevel []*specNode

		for _, parent := range currentLevel {
			// Each parent gets 2-8 children
			numChildren := 2 + g.rand.Intn(7)

			for c := 0; c < numChildren && len(g.nodes) < g.config.Items; c++ {
				// 20% chance to reuse an existing part that is not an ancestor
				var child *specNode
				if level > 1 && g.rand.Float64() < 0.2 {
					candidates := g.findShareableParts(level, parent)
					if len(candidates) > 0 {
						child = candidates[g.rand.Intn(len(candidates))]
					}
				}
				if child == nil {
					child = g.newNode(fmt.Sprintf("PART_L%d_%04d", level, len(g.nodes)), level, false)
					nextLevel = append(nextLevel, child)
				}

				qty := 1 + g.rand.Intn(5)
				if level > 2 {
					qty += g.rand.Intn(5)
				}
				g.link(parent, child, qty)
			}
		}

		if len(nextLevel) == 0 {
			break
		}
		currentLevel = nextLevel
	}

	// Fill remaining items as leaf components
	for len(g.nodes) < g.config.Items {
		node := g.newNode(fmt.Sprintf("COMPONENT_%04d", len(g.nodes)), level+1, false)
		parent := currentLevel[g.rand.Intn(len(currentLevel))]
		g.link(parent, node, 1+g.rand.Intn(10))
	}

	// deep leaves are mostly bought in
	for _, node := range g.nodes {
		if len(node.children) == 0 && node.level >= 2 && g.rand.Float64() < 0.8 {
			node.purchased = true
		}
	}
	return roots
}

func (g *scenarioGenerator) newNode(code string, level int, isRoot bool) *specNode {
	node := &specNode{
		id:     entities.ItemID(len(g.nodes) + 1),
		code:   code,
		level:  level,
		isRoot: isRoot,
	}
	g.nodes = append(g.nodes, node)
	return node
}

func (g *scenarioGenerator) link(parent, child *specNode, qty int) {
	parent.children = append(parent.children, specEdge{child: child, qty: qty})
	child.parents = append(child.parents, parent)
}

// findShareableParts finds existing parts that can be shared without creating a cycle
func (g *scenarioGenerator) findShareableParts(maxLevel int, parent *specNode) []*specNode {
	var candidates []*specNode
	for _, node := range g.nodes {
		if node.isRoot || node == parent || node.level < maxLevel-1 || len(node.parents) >= 3 {
			continue
		}
		if hasChild(parent, node) {
			continue
		}
		if !g.isAncestor(node, parent, make(map[entities.ItemID]bool)) {
			candidates = append(candidates, node)
		}
	}
	return candidates
}

func hasChild(parent, child *specNode) bool {
	for _, edge := range parent.children {
		if edge.child == child {
			return true
		}
	}
	return false
}

// isAncestor checks if candidate is an ancestor of node
func (g *scenarioGenerator) isAncestor(candidate, node *specNode, visited map[entities.ItemID]bool) bool {
	if visited[node.id] {
		return false
	}
	visited[node.id] = true

	for _, parent := range node.parents {
		if parent == candidate || g.isAncestor(candidate, parent, visited) {
			return true
		}
	}
	return false
}

// calculatePartCounts explodes the first root once to size stock levels
func (g *scenarioGenerator) calculatePartCounts(roots []*specNode) map[entities.ItemID]int {
	counts := make(map[entities.ItemID]int)
	if len(roots) > 0 {
		g.explodePart(roots[0], 1, counts, 0)
	}
	return counts
}

func (g *scenarioGenerator) explodePart(node *specNode, qty int, counts map[entities.ItemID]int, depth int) {
	if depth > g.config.MaxDepth+1 {
		return
	}
	counts[node.id] += qty
	for _, edge := range node.children {
		g.explodePart(edge.child, qty*edge.qty, counts, depth+1)
	}
}

// generateDescription creates a realistic item name
func (g *scenarioGenerator) generateDescription(node *specNode) string {
	if node.isRoot {
		return fmt.Sprintf("%s Complete Assembly", node.code)
	}
	if node.level <= 2 {
		return fmt.Sprintf("%s Subassembly", node.code)
	}
	componentTypes := []string{"Component", "Module", "Unit", "Assembly", "Block", "Element"}
	return fmt.Sprintf("%s %s", node.code, componentTypes[g.rand.Intn(len(componentTypes))])
}

func stageForLevel(level int) entities.StageID {
	switch {
	case level <= 1:
		return genStageAssembly
	case level == 2:
		return genStageWelding
	default:
		return genStageMachining
	}
}

func operationForStage(stage entities.StageID) (entities.OperationID, string) {
	switch stage {
	case genStageAssembly:
		return 101, "Assembly"
	case genStageWelding:
		return 102, "Welding"
	default:
		return 103, "Machining"
	}
}
