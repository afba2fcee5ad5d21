package filter

import (
	"fmt"
	"sort"

	"buzzboard/internal/model"
)

// SortedOrdinals 规范化月份标签并去重升序；无法识别的标签被跳过
func SortedOrdinals(labels []string) []int {
	set := monthSet(labels)
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// TimeRangeLabel 根据已选年月生成时间范围文案
// 单月: "2024 3月"；多月: "2024 1月 - 3月"；未选年份或月份时返回 false
func TimeRangeLabel(f model.FilterState) (string, bool) {
	tf := f.TimeFilter
	if tf.Year == nil || len(tf.Months) == 0 {
		return "", false
	}
	ordinals := SortedOrdinals(tf.Months)
	switch len(ordinals) {
	case 0:
		return "", false
	case 1:
		return fmt.Sprintf("%d %s", *tf.Year, MonthLabel(ordinals[0])), true
	default:
		first, last := ordinals[0], ordinals[len(ordinals)-1]
		return fmt.Sprintf("%d %s - %s", *tf.Year, MonthLabel(first), MonthLabel(last)), true
	}
}
