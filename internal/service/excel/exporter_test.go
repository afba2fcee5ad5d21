package excel

import (
	"testing"

	"buzzboard/internal/model"
)

// TestExporterExport 测试导出筛选结果
func TestExporterExport(t *testing.T) {
	rows := []model.Row{
		{Year: 2024, Month: "3月", Category: "裤子", Keyword: "阔腿裤", Buzz: 1200, BuzzYOY: 0.12, Search: 800, Quadrant: "高潜"},
		{Year: 2024, Month: "3月", Category: "包", Subcategory: "托特包", Keyword: "通勤包", Buzz: 300, Quadrant: "稳定"},
	}
	filters := model.DefaultFilterState()
	filters.Categories = []string{"裤子", "包"}
	filters.TimeFilter = model.TimeFilter{Year: model.IntPtr(2024), Months: []string{"3月"}}

	f, err := NewExporter().Export(rows, filters, "2024 3月")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != rowsSheet || sheets[1] != filterSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	got, err := f.GetRows(rowsSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(got))
	}
	if got[0][4] != "关键词" || got[1][4] != "阔腿裤" || got[2][3] != "托特包" {
		t.Fatalf("unexpected content %v", got)
	}

	label, _ := f.GetCellValue(filterSheet, "B5")
	if label != "2024 3月" {
		t.Errorf("time range = %q", label)
	}
	cats, _ := f.GetCellValue(filterSheet, "B2")
	if cats != "裤子、包" {
		t.Errorf("categories = %q", cats)
	}
	quads, _ := f.GetCellValue(filterSheet, "B6")
	if quads != "全部" {
		t.Errorf("quadrants = %q, want 全部", quads)
	}
	count, _ := f.GetCellValue(filterSheet, "B8")
	if count != "2" {
		t.Errorf("count = %q", count)
	}
}

// TestExporterEmpty 测试空结果导出
func TestExporterEmpty(t *testing.T) {
	f, err := NewExporter().Export(nil, model.DefaultFilterState(), "")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	defer f.Close()

	got, _ := f.GetRows(rowsSheet)
	if len(got) != 1 {
		t.Fatalf("expected header only, got %d rows", len(got))
	}
	label, _ := f.GetCellValue(filterSheet, "B5")
	if label != "全部" {
		t.Errorf("time range = %q", label)
	}
}
