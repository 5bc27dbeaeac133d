package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/prodplan/pkg/application/services/planning"
)

const planSheet = "Plan"

// GeneratePlan renders a plan matrix page to w, or to a file in OutputDir when set
func GeneratePlan(w io.Writer, matrix *planning.PlanMatrix, config Config) error {
	switch config.Format {
	case FormatText, "":
		return toTarget(w, config, "plan.txt", func(out io.Writer) error {
			return writePlanText(out, matrix)
		})
	case FormatJSON:
		return toTarget(w, config, "plan.json", func(out io.Writer) error {
			return writeJSON(out, matrix)
		})
	case FormatCSV:
		return toTarget(w, config, "plan.csv", func(out io.Writer) error {
			return WritePlanCSV(out, matrix)
		})
	case FormatXLSX:
		if config.OutputDir == "" {
			return fmt.Errorf("output directory required for xlsx format")
		}
		return toTarget(w, config, PlanWorkbookFilename(matrix), func(out io.Writer) error {
			return WritePlanWorkbook(out, matrix)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// PlanWorkbookFilename names the workbook after the first matrix date
func PlanWorkbookFilename(matrix *planning.PlanMatrix) string {
	if len(matrix.Dates) == 0 {
		return "plan.xlsx"
	}
	return fmt.Sprintf("plan_%s.xlsx", matrix.Dates[0])
}

func writePlanText(w io.Writer, matrix *planning.PlanMatrix) error {
	fmt.Fprintf(w, "📅 Production Plan\n")
	fmt.Fprintf(w, "==================\n\n")
	if len(matrix.Dates) > 0 {
		fmt.Fprintf(w, "Dates: %s .. %s\n", matrix.Dates[0], matrix.Dates[len(matrix.Dates)-1])
	}
	fmt.Fprintf(w, "Products: %d (page %d, %d per page)\n\n", matrix.Total, matrix.Page, matrix.PageSize)

	for _, row := range matrix.Rows {
		fmt.Fprintf(w, "%s %s  total %s\n", row.ItemCode, row.ItemName, formatQty(row.MonthPlan))
		for _, day := range matrix.Dates {
			if qty := row.Days[day]; qty != 0 {
				fmt.Fprintf(w, "  %s %12s\n", day, formatQty(qty))
			}
		}
	}
	return nil
}

// WritePlanCSV writes one row per product with a column per date
func WritePlanCSV(w io.Writer, matrix *planning.PlanMatrix) error {
	cw := csv.NewWriter(w)
	header := append([]string{"item_id", "item_code", "item_name", "item_article"}, matrix.Dates...)
	header = append(header, "month_plan")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range matrix.Rows {
		record := []string{strconv.FormatInt(row.ItemID, 10), row.ItemCode, row.ItemName, articleText(row.ItemArticle)}
		for _, day := range matrix.Dates {
			record = append(record, formatQty(row.Days[day]))
		}
		record = append(record, formatQty(row.MonthPlan))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// NewPlanWorkbook lays the plan matrix out as one sheet, a row per product and a column per date
func NewPlanWorkbook(matrix *planning.PlanMatrix) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	header := append([]string{"Code", "Product", "Article"}, matrix.Dates...)
	header = append(header, "Total")
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(planSheet, cell, h)
		f.SetCellStyle(planSheet, cell, cell, headerStyle)
	}

	for r, row := range matrix.Rows {
		values := []any{row.ItemCode, row.ItemName, articleText(row.ItemArticle)}
		for _, day := range matrix.Dates {
			values = append(values, row.Days[day])
		}
		values = append(values, row.MonthPlan)

		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(planSheet, start, &values); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetColWidth(planSheet, "A", "A", 14)
	f.SetColWidth(planSheet, "B", "B", 28)
	f.SetColWidth(planSheet, "C", "C", 14)
	if err := f.SetPanes(planSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      3,
		YSplit:      1,
		TopLeftCell: "D2",
		ActivePane:  "bottomRight",
	}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WritePlanWorkbook streams the plan workbook to w
func WritePlanWorkbook(w io.Writer, matrix *planning.PlanMatrix) error {
	f, err := NewPlanWorkbook(matrix)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func articleText(article *string) string {
	if article == nil {
		return ""
	}
	return *article
}
