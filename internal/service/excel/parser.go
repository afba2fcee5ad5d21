package excel

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"buzzboard/internal/filter"
	"buzzboard/internal/model"
)

var (
	// ErrNoSheets 工作簿没有任何工作表
	ErrNoSheets = errors.New("workbook has no sheets")
	// ErrNoData 所有工作表都没有可识别的数据行
	ErrNoData = errors.New("workbook has no recognizable rows")
)

// ParseOptions 解析选项
type ParseOptions struct {
	// SubcategoryCategories 保留子品类的品类；为空表示所有品类都保留
	SubcategoryCategories []string
}

// SkippedSheet 被跳过的工作表及原因
type SkippedSheet struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result 一次导入的结果；三个列表来自同一个工作簿
type Result struct {
	Rows       []model.Row
	Categories []model.Category
	SheetInfos []model.SheetInfo
	Skipped    []SkippedSheet
}

// ParseReader 从 xlsx 流解析
func ParseReader(r io.Reader, opts ParseOptions) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()
	return ParseWorkbook(f, opts)
}

// ParseWorkbook 逐个工作表解析数据行
func ParseWorkbook(f *excelize.File, opts ParseOptions) (*Result, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	keepSub := make(map[string]struct{}, len(opts.SubcategoryCategories))
	for _, c := range opts.SubcategoryCategories {
		keepSub[strings.TrimSpace(c)] = struct{}{}
	}

	res := &Result{
		Rows:       []model.Row{},
		Categories: []model.Category{},
		SheetInfos: make([]model.SheetInfo, 0, len(sheets)),
	}
	seen := make(map[string]struct{})

	for _, sheet := range sheets {
		grid, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(grid) == 0 {
			res.SheetInfos = append(res.SheetInfos, model.SheetInfo{Name: sheet, ColumnNames: []string{}})
			res.Skipped = append(res.Skipped, SkippedSheet{Name: sheet, Reason: "空工作表"})
			continue
		}

		header := make([]string, len(grid[0]))
		for i, h := range grid[0] {
			header[i] = NormalizeColumnName(h)
		}
		cols := mapColumns(header)

		if _, ok := cols[fieldKeyword]; !ok {
			res.SheetInfos = append(res.SheetInfos, model.SheetInfo{Name: sheet, ColumnNames: header})
			res.Skipped = append(res.Skipped, SkippedSheet{Name: sheet, Reason: "缺少关键词列"})
			continue
		}
		if _, ok := cols[fieldMonth]; !ok {
			res.SheetInfos = append(res.SheetInfos, model.SheetInfo{Name: sheet, ColumnNames: header})
			res.Skipped = append(res.Skipped, SkippedSheet{Name: sheet, Reason: "缺少月份列"})
			continue
		}

		count := 0
		for _, cells := range grid[1:] {
			row, ok := parseRow(cells, cols, sheet)
			if !ok {
				continue
			}
			if len(keepSub) > 0 {
				if _, keep := keepSub[row.Category]; !keep {
					row.Subcategory = ""
				}
			}
			if _, dup := seen[row.Category]; !dup {
				seen[row.Category] = struct{}{}
				res.Categories = append(res.Categories, model.Category{
					ID:              uuid.New().String(),
					Name:            row.Category,
					SourceSheetName: sheet,
				})
			}
			res.Rows = append(res.Rows, row)
			count++
		}
		res.SheetInfos = append(res.SheetInfos, model.SheetInfo{Name: sheet, RowCount: count, ColumnNames: header})
	}

	if len(res.Rows) == 0 {
		return nil, ErrNoData
	}
	return res, nil
}

// parseRow 解析一行；关键词或月份为空的行被忽略
func parseRow(cells []string, cols map[field]int, sheet string) (model.Row, bool) {
	get := func(f field) string {
		idx, ok := cols[f]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	keyword := get(fieldKeyword)
	monthText := get(fieldMonth)
	if keyword == "" || monthText == "" {
		return model.Row{}, false
	}

	row := model.Row{
		Category:    get(fieldCategory),
		Subcategory: get(fieldSubcategory),
		Keyword:     keyword,
		Buzz:        parseNumber(get(fieldBuzz)),
		BuzzYOY:     parseNumber(get(fieldBuzzYOY)),
		BuzzMOM:     parseNumber(get(fieldBuzzMOM)),
		Search:      parseNumber(get(fieldSearch)),
		SearchYOY:   parseNumber(get(fieldSearchYOY)),
		SearchMOM:   parseNumber(get(fieldSearchMOM)),
		Quadrant:    get(fieldQuadrant),
	}
	if row.Category == "" {
		row.Category = strings.TrimSpace(sheet)
	}

	if y, err := strconv.Atoi(strings.TrimSuffix(get(fieldYear), "年")); err == nil {
		row.Year = y
	} else if y, ok := extractYear(monthText); ok {
		row.Year = y
	}
	// 无法识别的月份保留原文，它不会命中任何时间筛选
	if n, ok := filter.MonthOrdinal(monthText); ok {
		row.Month = filter.MonthLabel(n)
	} else {
		row.Month = monthText
	}
	return row, true
}

// parseNumber 解析数值，支持千分位与百分号；无法解析或非有限值（NaN/Inf）时为 0
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if percent {
		v /= 100
	}
	return v
}
