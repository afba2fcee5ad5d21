package filter

import (
	"sort"

	"buzzboard/internal/model"
)

// View 基于已生效筛选条件派生的视图
type View struct {
	Filters        model.FilterState      `json:"filters"`
	Rows           []model.Row            `json:"rows"`
	ChartPoints    []model.ChartDataPoint `json:"chartPoints"`
	TimeRangeLabel *string                `json:"timeRangeLabel"`
	Total          int                    `json:"total"`
	Matched        int                    `json:"matched"`
}

// BuildView 计算筛选结果、图表数据点与时间范围文案
func BuildView(f model.FilterState, rows []model.Row) View {
	matched := Apply(f, rows)
	v := View{
		Filters:     f,
		Rows:        matched,
		ChartPoints: ChartPoints(matched),
		Total:       len(rows),
		Matched:     len(matched),
	}
	if label, ok := TimeRangeLabel(f); ok {
		v.TimeRangeLabel = &label
	}
	return v
}

// ChartPoints 将行投影为图表数据点
func ChartPoints(rows []model.Row) []model.ChartDataPoint {
	out := make([]model.ChartDataPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ChartDataPoint{
			Keyword:  r.Keyword,
			Buzz:     r.Buzz,
			YOY:      r.BuzzYOY,
			Search:   r.Search,
			Quadrant: r.Quadrant,
			Category: r.Category,
		})
	}
	return out
}

// AvailableYearMonths 列出数据集中存在数据的年月（按年/月倒序）
func AvailableYearMonths(rows []model.Row) []model.YearMonthStat {
	type ym struct{ year, month int }
	counts := make(map[ym]int)
	for _, r := range rows {
		n, ok := MonthOrdinal(r.Month)
		if !ok {
			continue
		}
		counts[ym{r.Year, n}]++
	}

	out := make([]model.YearMonthStat, 0, len(counts))
	for k, c := range counts {
		out = append(out, model.YearMonthStat{
			Year:  k.year,
			Month: k.month,
			Label: MonthLabel(k.month),
			Rows:  c,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}

// Quadrants 数据集中出现过的象限（按首次出现顺序）
func Quadrants(rows []model.Row) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range rows {
		if r.Quadrant == "" {
			continue
		}
		if _, ok := seen[r.Quadrant]; ok {
			continue
		}
		seen[r.Quadrant] = struct{}{}
		out = append(out, r.Quadrant)
	}
	return out
}
