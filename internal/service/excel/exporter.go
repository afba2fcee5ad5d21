package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"buzzboard/internal/model"
)

const (
	rowsSheet   = "筛选结果"
	filterSheet = "筛选条件"
)

var exportHeaders = []string{
	"年份", "月份", "品类", "子品类", "关键词",
	"声量", "声量同比", "声量环比",
	"搜索量", "搜索同比", "搜索环比", "象限",
}

// Exporter 筛选结果导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export 导出筛选后的数据行与当前筛选条件；timeLabel 为空表示没有时间范围
func (e *Exporter) Export(rows []model.Row, filters model.FilterState, timeLabel string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return nil, fmt.Errorf("create percent style: %w", err)
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(rowsSheet, "A1", &header); err != nil {
		return nil, err
	}
	_ = f.SetRowStyle(rowsSheet, 1, 1, headerStyle)

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			r.Year, r.Month, r.Category, r.Subcategory, r.Keyword,
			r.Buzz, r.BuzzYOY, r.BuzzMOM,
			r.Search, r.SearchYOY, r.SearchMOM, r.Quadrant,
		}
		if err := f.SetSheetRow(rowsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		last := len(rows) + 1
		_ = f.SetCellStyle(rowsSheet, "G2", fmt.Sprintf("H%d", last), percentStyle)
		_ = f.SetCellStyle(rowsSheet, "J2", fmt.Sprintf("K%d", last), percentStyle)
	}

	_ = f.SetColWidth(rowsSheet, "A", "B", 8)
	_ = f.SetColWidth(rowsSheet, "C", "D", 12)
	_ = f.SetColWidth(rowsSheet, "E", "E", 24)
	_ = f.SetColWidth(rowsSheet, "F", "L", 12)

	if _, err := f.NewSheet(filterSheet); err != nil {
		return nil, fmt.Errorf("create filter sheet: %w", err)
	}
	year := ""
	if filters.TimeFilter.Year != nil {
		year = fmt.Sprintf("%d", *filters.TimeFilter.Year)
	}
	summary := [][]interface{}{
		{"条件", "值"},
		{"品类", joinOrAll(filters.Categories)},
		{"年份", orAll(year)},
		{"月份", joinOrAll(filters.TimeFilter.Months)},
		{"时间范围", orAll(timeLabel)},
		{"象限", joinOrAll(filters.Quadrants)},
		{"关键词", orAll(filters.Keyword)},
		{"结果行数", len(rows)},
	}
	for i, line := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		line := line
		if err := f.SetSheetRow(filterSheet, cell, &line); err != nil {
			return nil, err
		}
	}
	_ = f.SetRowStyle(filterSheet, 1, 1, headerStyle)
	_ = f.SetColWidth(filterSheet, "A", "A", 12)
	_ = f.SetColWidth(filterSheet, "B", "B", 30)

	return f, nil
}

func joinOrAll(values []string) string {
	if len(values) == 0 {
		return "全部"
	}
	return strings.Join(values, "、")
}

func orAll(v string) string {
	if v == "" {
		return "全部"
	}
	return v
}
