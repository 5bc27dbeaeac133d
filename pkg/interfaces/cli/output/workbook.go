package output

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
)

const stagesSheet = "Stages"

var stagesWorkbookHeaders = []string{
	"Stage", "Product code", "Product", "Component code", "Component", "Qty per unit", "Stock", "Method",
}

// StagesWorkbookFilename names the workbook after the stock sync time
func StagesWorkbookFilename(asOf *time.Time) string {
	if asOf == nil {
		return "stage_report.xlsx"
	}
	return fmt.Sprintf("stage_report_%s.xlsx", asOf.Format("20060102_150405"))
}

// NewStagesWorkbook lays the stage report out as one sheet, a row per component
func NewStagesWorkbook(report *explosion.StageReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", stagesSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	stageStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range stagesWorkbookHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(stagesSheet, cell, h)
		f.SetCellStyle(stagesSheet, cell, cell, headerStyle)
	}

	row := 2
	for _, stage := range report.Stages {
		f.SetCellValue(stagesSheet, fmt.Sprintf("A%d", row), stage.StageName)
		f.SetCellStyle(stagesSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), stageStyle)
		row++
		for _, product := range stage.Products {
			for _, c := range product.Components {
				f.SetCellValue(stagesSheet, fmt.Sprintf("A%d", row), stage.StageName)
				f.SetCellValue(stagesSheet, fmt.Sprintf("B%d", row), product.RootItemCode)
				f.SetCellValue(stagesSheet, fmt.Sprintf("C%d", row), product.RootItemName)
				f.SetCellValue(stagesSheet, fmt.Sprintf("D%d", row), c.ItemCode)
				f.SetCellValue(stagesSheet, fmt.Sprintf("E%d", row), c.ItemName)
				f.SetCellValue(stagesSheet, fmt.Sprintf("F%d", row), c.QtyPerUnit)
				f.SetCellValue(stagesSheet, fmt.Sprintf("G%d", row), c.StockQty)
				f.SetCellValue(stagesSheet, fmt.Sprintf("H%d", row), c.ReplenishmentMethod)
				row++
			}
		}
	}

	if report.AsOf != nil {
		f.SetCellValue(stagesSheet, fmt.Sprintf("A%d", row+1), "Stock as of")
		f.SetCellValue(stagesSheet, fmt.Sprintf("B%d", row+1), report.AsOf.Format("2006-01-02 15:04:05"))
	}

	colWidths := []float64{20, 14, 28, 14, 28, 12, 10, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(stagesSheet, col, col, w)
	}
	return f, nil
}

// WriteStagesWorkbook streams the stage report workbook to w
func WriteStagesWorkbook(w io.Writer, report *explosion.StageReport) error {
	f, err := NewStagesWorkbook(report)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
