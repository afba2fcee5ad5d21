package filter

import (
	"strings"

	"buzzboard/internal/model"
)

// RowMatcher 单一维度的判定函数
type RowMatcher func(row model.Row) bool

func matchAll(model.Row) bool { return true }

// CategoryMatcher 品类维度：为空时不受限
func CategoryMatcher(categories []string) RowMatcher {
	if len(categories) == 0 {
		return matchAll
	}
	set := stringSet(categories)
	return func(row model.Row) bool {
		_, ok := set[row.Category]
		return ok
	}
}

// TimeMatcher 时间维度：未选年份或月份为空时不受限
func TimeMatcher(tf model.TimeFilter) RowMatcher {
	if tf.Year == nil || len(tf.Months) == 0 {
		return matchAll
	}
	year := *tf.Year
	months := monthSet(tf.Months)
	return func(row model.Row) bool {
		if row.Year != year {
			return false
		}
		n, ok := MonthOrdinal(row.Month)
		if !ok {
			return false
		}
		_, hit := months[n]
		return hit
	}
}

// QuadrantMatcher 象限维度：为空时不受限
func QuadrantMatcher(quadrants []string) RowMatcher {
	if len(quadrants) == 0 {
		return matchAll
	}
	set := stringSet(quadrants)
	return func(row model.Row) bool {
		_, ok := set[row.Quadrant]
		return ok
	}
}

// KeywordMatcher 关键词维度：空白时不受限，否则按原文（含首尾空格）忽略大小写子串匹配
func KeywordMatcher(keyword string) RowMatcher {
	if strings.TrimSpace(keyword) == "" {
		return matchAll
	}
	q := strings.ToLower(keyword)
	return func(row model.Row) bool {
		return strings.Contains(strings.ToLower(row.Keyword), q)
	}
}

// MatchCategory 判断单行是否满足品类条件
func MatchCategory(categories []string, row model.Row) bool {
	return CategoryMatcher(categories)(row)
}

// MatchTime 判断单行是否满足时间条件
func MatchTime(tf model.TimeFilter, row model.Row) bool {
	return TimeMatcher(tf)(row)
}

// MatchQuadrant 判断单行是否满足象限条件
func MatchQuadrant(quadrants []string, row model.Row) bool {
	return QuadrantMatcher(quadrants)(row)
}

// MatchKeyword 判断单行是否满足关键词条件
func MatchKeyword(keyword string, row model.Row) bool {
	return KeywordMatcher(keyword)(row)
}

// Predicate 预编译的筛选条件，四个维度按 AND 组合
type Predicate struct {
	dims [4]RowMatcher
}

// Compile 预编译筛选条件，避免逐行重复构建集合
func Compile(f model.FilterState) *Predicate {
	return &Predicate{dims: [4]RowMatcher{
		CategoryMatcher(f.Categories),
		TimeMatcher(f.TimeFilter),
		QuadrantMatcher(f.Quadrants),
		KeywordMatcher(f.Keyword),
	}}
}

// Match 四个维度全部满足才返回 true
func (p *Predicate) Match(row model.Row) bool {
	for _, m := range p.dims {
		if !m(row) {
			return false
		}
	}
	return true
}

// Matches 判断单行是否满足筛选条件
func Matches(f model.FilterState, row model.Row) bool {
	return Compile(f).Match(row)
}

// Apply 返回满足条件的行（保持原有顺序）
func Apply(f model.FilterState, rows []model.Row) []model.Row {
	p := Compile(f)
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func stringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
