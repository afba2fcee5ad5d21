package model

// TimeFilter 时间筛选：Months 为空表示不限时间
type TimeFilter struct {
	Year   *int     `json:"year,omitempty"`
	Months []string `json:"months"`
}

// FilterState 已生效的筛选条件；任一维度为空即表示该维度不受限
type FilterState struct {
	Categories []string   `json:"categories"`
	TimeFilter TimeFilter `json:"timeFilter"`
	Quadrants  []string   `json:"quadrants"`
	Keyword    string     `json:"keyword"`
}

// FilterPatch 部分更新；nil 字段表示未提供，保留原值
type FilterPatch struct {
	Categories *[]string   `json:"categories,omitempty"`
	TimeFilter *TimeFilter `json:"timeFilter,omitempty"`
	Quadrants  *[]string   `json:"quadrants,omitempty"`
	Keyword    *string     `json:"keyword,omitempty"`
}

// DefaultFilterState 默认筛选（全部不受限）
func DefaultFilterState() FilterState {
	return FilterState{
		Categories: []string{},
		TimeFilter: TimeFilter{Months: []string{}},
		Quadrants:  []string{},
		Keyword:    "",
	}
}

// IntPtr 返回 v 的指针
func IntPtr(v int) *int {
	return &v
}

// Clone 深拷贝，并把 nil 切片规范为空切片
func (f FilterState) Clone() FilterState {
	return FilterState{
		Categories: cloneStrings(f.Categories),
		TimeFilter: f.TimeFilter.Clone(),
		Quadrants:  cloneStrings(f.Quadrants),
		Keyword:    f.Keyword,
	}
}

// Clone 深拷贝
func (t TimeFilter) Clone() TimeFilter {
	out := TimeFilter{Months: cloneStrings(t.Months)}
	if t.Year != nil {
		out.Year = IntPtr(*t.Year)
	}
	return out
}

// Merge 浅合并：只覆盖 patch 中出现的字段
func (f FilterState) Merge(patch FilterPatch) FilterState {
	out := f.Clone()
	if patch.Categories != nil {
		out.Categories = cloneStrings(*patch.Categories)
	}
	if patch.TimeFilter != nil {
		out.TimeFilter = patch.TimeFilter.Clone()
	}
	if patch.Quadrants != nil {
		out.Quadrants = cloneStrings(*patch.Quadrants)
	}
	if patch.Keyword != nil {
		out.Keyword = *patch.Keyword
	}
	return out
}

// IsEmpty patch 是否未携带任何字段
func (p FilterPatch) IsEmpty() bool {
	return p.Categories == nil && p.TimeFilter == nil && p.Quadrants == nil && p.Keyword == nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
