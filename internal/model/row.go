package model

// Row 一条声量分析记录（导入后不可变）
type Row struct {
	Year        int     `json:"year"`
	Month       string  `json:"month" validate:"required"` // "1月"…"12月"
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"` // 仅部分品类存在
	Keyword     string  `json:"keyword"`
	Buzz        float64 `json:"buzz"`      // 声量
	BuzzYOY     float64 `json:"buzzYoy"`   // 声量同比
	BuzzMOM     float64 `json:"buzzMom"`   // 声量环比
	Search      float64 `json:"search"`    // 搜索量
	SearchYOY   float64 `json:"searchYoy"` // 搜索同比
	SearchMOM   float64 `json:"searchMom"` // 搜索环比
	Quadrant    string  `json:"quadrant"`  // 象限，如 "高潜"
}

// ChartDataPoint 图表数据点（由筛选后的行实时派生，不持久化）
type ChartDataPoint struct {
	Keyword  string  `json:"keyword"`
	Buzz     float64 `json:"buzz"`
	YOY      float64 `json:"yoy"`
	Search   float64 `json:"search"`
	Quadrant string  `json:"quadrant"`
	Category string  `json:"category"`
}

// YearMonthStat 数据集中可用的年月
type YearMonthStat struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
	Rows  int    `json:"rows"`
}
