package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func sampleReport() *explosion.StageReport {
	asOf := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return &explosion.StageReport{
		AsOf: &asOf,
		Stages: []explosion.StageGroup{
			{
				StageID:   1,
				StageName: "Machining",
				Products: []explosion.StageProduct{{
					RootItemID: 1, RootItemCode: "BIKE", RootItemName: "Bicycle",
					Components: []explosion.StageComponent{
						{ItemID: 6, ItemCode: "RIM", ItemName: "Rim", QtyPerUnit: 2, StockQty: 3, ReplenishmentMethod: "Manufactured"},
					},
				}},
			},
			{
				StageID:   3,
				StageName: "Assembly",
				Products: []explosion.StageProduct{{
					RootItemID: 1, RootItemCode: "BIKE", RootItemName: "Bicycle",
					Components: []explosion.StageComponent{
						{ItemID: 2, ItemCode: "FRAME", ItemName: "Frame", QtyPerUnit: 1, StockQty: 1, ReplenishmentMethod: "Manufactured"},
						{ItemID: 3, ItemCode: "WHEEL", ItemName: "Wheel", QtyPerUnit: 2.5, StockQty: 4, ReplenishmentMethod: "Manufactured"},
					},
				}},
			},
		},
	}
}

func TestGenerateStages_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateStages(&buf, sampleReport(), Config{Format: FormatCSV}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, stageCSVHeader, rows[0])
	assert.Equal(t, []string{"1", "Machining", "1", "BIKE", "Bicycle", "6", "RIM", "Rim", "2", "3", "Manufactured"}, rows[1])
	assert.Equal(t, "2.5", rows[3][8])
}

func TestGenerateStages_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateStages(&buf, sampleReport(), Config{Format: FormatJSON}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2026-04-01T12:00:00Z", decoded["asOf"])
	assert.Len(t, decoded["stages"], 2)
}

func TestGenerateStages_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateStages(&buf, sampleReport(), Config{Format: FormatText}))

	out := buf.String()
	assert.Contains(t, out, "Machining (stage 1)")
	assert.Contains(t, out, "Stock as of: 2026-04-01 12:00:00")
	assert.Contains(t, out, "WHEEL")
}

func TestGenerateStages_Unsupported(t *testing.T) {
	err := GenerateStages(&bytes.Buffer{}, sampleReport(), Config{Format: "pdf"})
	assert.Error(t, err)

	err = GenerateStages(&bytes.Buffer{}, sampleReport(), Config{Format: FormatXLSX})
	assert.Error(t, err)
}

func TestStagesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStagesWorkbook(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(stagesSheet, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Component code", header)

	// row 2 is the Machining banner, row 3 its only component
	banner, err := f.GetCellValue(stagesSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Machining", banner)
	code, err := f.GetCellValue(stagesSheet, "D3")
	require.NoError(t, err)
	assert.Equal(t, "RIM", code)

	wheel, err := f.GetCellValue(stagesSheet, "D6")
	require.NoError(t, err)
	assert.Equal(t, "WHEEL", wheel)
	qty, err := f.GetCellValue(stagesSheet, "F6")
	require.NoError(t, err)
	assert.Equal(t, "2.5", qty)
}

func TestGenerateStages_XLSXToDirectory(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, GenerateStages(&buf, sampleReport(), Config{Format: FormatXLSX, OutputDir: dir, Verbose: true}))

	path := filepath.Join(dir, "stage_report_20260401_120000.xlsx")
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), path)
}

func TestGenerateTree_Text(t *testing.T) {
	qty, time1 := 2.0, 3.0
	parent := "item:1:1"
	tree := &explosion.TreeResponse{
		Nodes: []*explosion.TreeNode{{
			ID:          parent,
			Type:        explosion.NodeItem,
			Name:        "Bicycle",
			Unit:        "pcs",
			Item:        &explosion.ItemRef{ID: 1, Code: "BIKE"},
			HasChildren: true,
			Computed:    explosion.Computed{TreeQty: &qty},
			Children: []*explosion.TreeNode{
				{
					ID: "item:3:2", ParentID: &parent, Type: explosion.NodeItem, Name: "Wheel", Unit: "pcs",
					Item: &explosion.ItemRef{ID: 3, Code: "WHEEL"}, HasChildren: true,
					Computed: explosion.Computed{TreeQty: &qty},
					Stage:    &explosion.StageRef{ID: 3, Name: "Assembly"},
				},
				{
					ID: "op:1:1:1", ParentID: &parent, Type: explosion.NodeOperation, Name: "Final assembly",
					Computed: explosion.Computed{TreeTimeNh: &time1},
					Warnings: []string{explosion.WarningNoStage},
				},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, GenerateTree(&buf, tree, Config{}))
	out := buf.String()
	assert.Contains(t, out, "BIKE Bicycle  x2 pcs\n")
	assert.Contains(t, out, "  WHEEL Wheel  x2 pcs  [+]  @Assembly\n")
	assert.Contains(t, out, "  ⚙ Final assembly  3 h  ⚠ NO_STAGE\n")

	assert.Error(t, GenerateTree(&buf, tree, Config{Format: FormatCSV}))
}

func TestGenerateDebug(t *testing.T) {
	resolved := entities.SpecID(30)
	stage := "Assembly"
	report := &explosion.DebugReport{
		Item:            explosion.DebugItem{ID: 3, Code: "WHEEL", Name: "Wheel", Unit: "pcs"},
		ResolvedSpecID:  &resolved,
		UsedFallback:    true,
		ComponentsCount: 1,
		ChildrenCount:   1,
		ChildrenSample: []explosion.DebugChild{
			{ID: "item:7:0.5", Type: explosion.NodeItem, Name: "Tube", StageName: &stage},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, GenerateDebug(&buf, report, Config{}))
	out := buf.String()
	assert.Contains(t, out, "Default specification:  none\n")
	assert.Contains(t, out, "Resolved specification: 30 (code/name fallback)\n")
	assert.Contains(t, out, "Tube  @Assembly")

	buf.Reset()
	require.NoError(t, GenerateDebug(&buf, report, Config{Format: FormatJSON}))
	var decoded explosion.DebugReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.UsedFallback)
	assert.Nil(t, decoded.DefaultSpecID)
}
