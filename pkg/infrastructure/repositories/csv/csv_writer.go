package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// WriteScenario writes s into dir in the layout LoadScenario reads.
// Operation norms are written on the spec lines, so operations.csv is not produced.
func WriteScenario(dir string, s *Scenario) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	tables := []struct {
		file   string
		header []string
		rows   [][]string
	}{
		{ItemsFile, itemsHeader, itemRows(s.Items)},
		{StagesFile, stagesHeader, stageRows(s.Stages)},
		{SpecificationsFile, specificationsHeader, specificationRows(s.Specifications)},
		{ComponentsFile, componentsHeader, componentRows(s.Components)},
		{SpecOperationsFile, specOperationsHeader, operationRows(s.Operations)},
		{DefaultSpecsFile, defaultSpecsHeader, defaultSpecRows(s.DefaultSpecs)},
	}
	if len(s.RootProductCodes) > 0 {
		rows := make([][]string, 0, len(s.RootProductCodes))
		for _, code := range s.RootProductCodes {
			rows = append(rows, []string{code})
		}
		tables = append(tables, struct {
			file   string
			header []string
			rows   [][]string
		}{RootProductsFile, rootProductsHeader, rows})
	}
	if len(s.Plan) > 0 {
		tables = append(tables, struct {
			file   string
			header []string
			rows   [][]string
		}{PlanEntriesFile, planEntriesHeader, planRows(s.Plan)})
	}

	for _, t := range tables {
		if err := writeTable(filepath.Join(dir, t.file), t.header, t.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func itemRows(items []*entities.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(int64(item.ID)),
			item.Code,
			item.Name,
			item.Article,
			item.Unit,
			item.ReplenishmentMethod.String(),
			item.StockQty.String(),
		})
	}
	return rows
}

func stageRows(stages []*entities.ProductionStage) [][]string {
	rows := make([][]string, 0, len(stages))
	for _, st := range stages {
		rows = append(rows, []string{formatID(int64(st.ID)), st.Name, strconv.Itoa(st.Order)})
	}
	return rows
}

func specificationRows(specs []*entities.Specification) [][]string {
	rows := make([][]string, 0, len(specs))
	for _, spec := range specs {
		owner := ""
		if spec.OwnerItemID != nil {
			owner = formatID(int64(*spec.OwnerItemID))
		}
		rows = append(rows, []string{formatID(int64(spec.ID)), spec.Code, spec.Name, owner})
	}
	return rows
}

func componentRows(components []*entities.SpecComponent) [][]string {
	rows := make([][]string, 0, len(components))
	for _, c := range components {
		rows = append(rows, []string{
			formatID(c.ID),
			formatID(int64(c.SpecID)),
			formatID(int64(c.ChildItemID)),
			c.QtyPerParent.String(),
			formatStage(c.StageID),
			c.ComponentType,
		})
	}
	return rows
}

func operationRows(operations []*entities.SpecOperation) [][]string {
	rows := make([][]string, 0, len(operations))
	for _, op := range operations {
		rows = append(rows, []string{
			formatID(op.ID),
			formatID(int64(op.SpecID)),
			formatID(int64(op.OperationID)),
			op.OperationName,
			formatNorm(op.TimeNorm),
			formatStage(op.StageID),
		})
	}
	return rows
}

func defaultSpecRows(defaults []*entities.DefaultSpecification) [][]string {
	rows := make([][]string, 0, len(defaults))
	for _, d := range defaults {
		rows = append(rows, []string{
			formatID(d.ID),
			formatID(int64(d.ItemID)),
			d.Characteristic,
			formatID(int64(d.SpecID)),
		})
	}
	return rows
}

func planRows(lines []PlanLine) [][]string {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []string{
			line.ItemCode,
			line.Date.Format(entities.PlanDateLayout),
			formatStage(line.StageID),
			formatNorm(line.PlannedQty),
		})
	}
	return rows
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatStage(id *entities.StageID) string {
	if id == nil {
		return ""
	}
	return formatID(int64(*id))
}

func formatNorm(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
