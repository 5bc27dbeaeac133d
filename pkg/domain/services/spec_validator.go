package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// SpecGraph is a snapshot of the catalog tables the validator needs
type SpecGraph struct {
	Items          []*entities.Item
	Specifications []*entities.Specification
	Components     []*entities.SpecComponent
	Defaults       []*entities.DefaultSpecification
}

// SpecValidator checks specification data for structures that the explosion only tolerates:
// item cycles, duplicate component lines and lines pointing at unknown items
type SpecValidator struct{}

// NewSpecValidator creates a new specification validator
func NewSpecValidator() *SpecValidator {
	return &SpecValidator{}
}

// ValidationResult contains the results of specification validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]string
	DuplicateLines []*entities.SpecComponent
	DanglingLines  []*entities.SpecComponent
	Unresolved     []entities.ItemID
	Errors         []string
}

// Valid reports whether no problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate resolves every item to its specification the way the explosion does
// (default mapping with empty characteristic, then code/name match) and checks the resulting item graph
func (v *SpecValidator) Validate(graph SpecGraph) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:     make([][]string, 0),
		DuplicateLines: make([]*entities.SpecComponent, 0),
		DanglingLines:  make([]*entities.SpecComponent, 0),
		Unresolved:     make([]entities.ItemID, 0),
		Errors:         make([]string, 0),
	}

	items := make(map[entities.ItemID]*entities.Item, len(graph.Items))
	for _, item := range graph.Items {
		items[item.ID] = item
	}

	linesBySpec := make(map[entities.SpecID][]*entities.SpecComponent)
	for _, line := range graph.Components {
		if _, ok := items[line.ChildItemID]; !ok {
			result.DanglingLines = append(result.DanglingLines, line)
			continue
		}
		linesBySpec[line.SpecID] = append(linesBySpec[line.SpecID], line)
	}

	result.DuplicateLines = v.detectDuplicateLines(graph.Components)

	resolved := v.resolveSpecs(graph)
	adjacency := v.buildAdjacencyMap(graph.Items, resolved, linesBySpec)

	for _, item := range graph.Items {
		if item.IsManufactured() {
			if _, ok := resolved[item.ID]; !ok {
				result.Unresolved = append(result.Unresolved, item.ID)
			}
		}
	}

	cycles := v.detectCycles(graph.Items, adjacency)
	for _, cycle := range cycles {
		path := make([]string, 0, len(cycle))
		for _, id := range cycle {
			path = append(path, items[id].Code)
		}
		result.CyclePaths = append(result.CyclePaths, path)
	}
	result.HasCycles = len(result.CyclePaths) > 0

	for _, path := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("specification cycle detected: %s", strings.Join(path, " -> ")))
	}
	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d duplicate component lines", len(result.DuplicateLines)))
	}
	if len(result.DanglingLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d component lines referring to unknown items", len(result.DanglingLines)))
	}
	return result
}

// resolveSpecs maps each item to the spec used when it is exploded with no characteristic
func (v *SpecValidator) resolveSpecs(graph SpecGraph) map[entities.ItemID]entities.SpecID {
	resolved := make(map[entities.ItemID]entities.SpecID)
	defaultRow := make(map[entities.ItemID]int64)
	for _, def := range graph.Defaults {
		if def.Characteristic != "" {
			continue
		}
		if row, ok := defaultRow[def.ItemID]; ok && row <= def.ID {
			continue
		}
		defaultRow[def.ItemID] = def.ID
		resolved[def.ItemID] = def.SpecID
	}

	byCode := make(map[string]entities.SpecID)
	byName := make(map[string]entities.SpecID)
	for _, spec := range graph.Specifications {
		if spec.Code != "" && spec.ID > byCode[spec.Code] {
			byCode[spec.Code] = spec.ID
		}
		if spec.Name != "" && spec.ID > byName[spec.Name] {
			byName[spec.Name] = spec.ID
		}
	}

	for _, item := range graph.Items {
		if _, ok := resolved[item.ID]; ok {
			continue
		}
		best := byCode[item.Code]
		if byName[item.Name] > best {
			best = byName[item.Name]
		}
		if best > 0 {
			resolved[item.ID] = best
		}
	}
	return resolved
}

// buildAdjacencyMap creates a map of parent item -> child items, sorted by child id
func (v *SpecValidator) buildAdjacencyMap(
	items []*entities.Item,
	resolved map[entities.ItemID]entities.SpecID,
	linesBySpec map[entities.SpecID][]*entities.SpecComponent,
) map[entities.ItemID][]entities.ItemID {
	adjacency := make(map[entities.ItemID][]entities.ItemID)

	for _, item := range items {
		specID, ok := resolved[item.ID]
		if !ok {
			continue
		}
		seen := make(map[entities.ItemID]bool)
		for _, line := range linesBySpec[specID] {
			if !line.QtyPerParent.IsPositive() || seen[line.ChildItemID] {
				continue
			}
			seen[line.ChildItemID] = true
			adjacency[item.ID] = append(adjacency[item.ID], line.ChildItemID)
		}
		children := adjacency[item.ID]
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	}
	return adjacency
}

// detectCycles runs a depth-first search from every item in id order and returns each back edge as a closed path
func (v *SpecValidator) detectCycles(items []*entities.Item, adjacency map[entities.ItemID][]entities.ItemID) [][]entities.ItemID {
	order := make([]entities.ItemID, 0, len(items))
	for _, item := range items {
		order = append(order, item.ID)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	visited := make(map[entities.ItemID]bool)
	onStack := make(map[entities.ItemID]bool)
	cycles := make([][]entities.ItemID, 0)

	var dfs func(current entities.ItemID, path []entities.ItemID)
	dfs = func(current entities.ItemID, path []entities.ItemID) {
		visited[current] = true
		onStack[current] = true
		path = append(path, current)

		for _, child := range adjacency[current] {
			if !visited[child] {
				dfs(child, path)
				continue
			}
			if !onStack[child] {
				continue
			}
			for i, id := range path {
				if id == child {
					cycle := make([]entities.ItemID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child)
					cycles = append(cycles, cycle)
					break
				}
			}
		}

		onStack[current] = false
	}

	for _, id := range order {
		if !visited[id] {
			dfs(id, nil)
		}
	}
	return cycles
}

// detectDuplicateLines finds component lines repeating (spec, child, stage); every occurrence after the first is reported
func (v *SpecValidator) detectDuplicateLines(lines []*entities.SpecComponent) []*entities.SpecComponent {
	seen := make(map[string]bool)
	duplicates := make([]*entities.SpecComponent, 0)

	for _, line := range lines {
		stage := "-"
		if line.StageID != nil {
			stage = fmt.Sprintf("%d", *line.StageID)
		}
		key := fmt.Sprintf("%d|%d|%s", line.SpecID, line.ChildItemID, stage)
		if seen[key] {
			duplicates = append(duplicates, line)
			continue
		}
		seen[key] = true
	}
	return duplicates
}
