package excel

import (
	"regexp"
	"strings"
)

// field 可识别的列
type field int

const (
	fieldYear field = iota + 1
	fieldMonth
	fieldCategory
	fieldSubcategory
	fieldKeyword
	fieldBuzz
	fieldBuzzYOY
	fieldBuzzMOM
	fieldSearch
	fieldSearchYOY
	fieldSearchMOM
	fieldQuadrant
)

// columnAliases 列名别名（比较前先规范化并转小写）
var columnAliases = map[field][]string{
	fieldYear:        {"年份", "年", "year"},
	fieldMonth:       {"月份", "月", "month", "时间"},
	fieldCategory:    {"品类", "类目", "一级品类", "category"},
	fieldSubcategory: {"子品类", "二级品类", "子类目", "subcategory"},
	fieldKeyword:     {"关键词", "关键字", "keyword"},
	fieldBuzz:        {"声量", "总声量", "buzz"},
	fieldBuzzYOY:     {"声量同比", "声量yoy", "buzzyoy"},
	fieldBuzzMOM:     {"声量环比", "声量mom", "buzzmom"},
	fieldSearch:      {"搜索量", "搜索", "search"},
	fieldSearchYOY:   {"搜索同比", "搜索量同比", "搜索yoy", "searchyoy"},
	fieldSearchMOM:   {"搜索环比", "搜索量环比", "搜索mom", "searchmom"},
	fieldQuadrant:    {"象限", "quadrant"},
}

var aliasIndex = func() map[string]field {
	idx := make(map[string]field)
	for f, aliases := range columnAliases {
		for _, a := range aliases {
			idx[a] = f
		}
	}
	return idx
}()

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名，去除空白与换行
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	return whitespaceRe.ReplaceAllString(name, "")
}

// mapColumns 表头 -> 字段列索引；同一字段重复出现时取第一列
func mapColumns(header []string) map[field]int {
	out := make(map[field]int)
	for i, col := range header {
		key := strings.ToLower(NormalizeColumnName(col))
		f, ok := aliasIndex[key]
		if !ok {
			continue
		}
		if _, dup := out[f]; dup {
			continue
		}
		out[f] = i
	}
	return out
}

var yearMonthRe = regexp.MustCompile(`(\d{4})\s*年`)

// extractYear 从 "2025年3月" 这类文本中提取年份
func extractYear(text string) (int, bool) {
	m := yearMonthRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	y := 0
	for _, ch := range m[1] {
		y = y*10 + int(ch-'0')
	}
	return y, true
}
