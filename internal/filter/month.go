package filter

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

var chineseMonths = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6,
	"七": 7, "八": 8, "九": 9, "十": 10, "十一": 11, "十二": 12,
	"正": 1, "冬": 11, "腊": 12,
}

var englishMonths = func() map[string]int {
	m := make(map[string]int, 24)
	for i := time.January; i <= time.December; i++ {
		name := strings.ToLower(i.String())
		m[name] = int(i)
		m[name[:3]] = int(i)
	}
	m["sept"] = 9
	return m
}()

// MonthOrdinal 将月份标签规范为 1-12
// 支持: "3月" / "03月" / "３月" / "三月" / "2024年3月" / "3" / "Mar" / "March"
func MonthOrdinal(label string) (int, bool) {
	s := width.Narrow.String(strings.TrimSpace(label))
	if idx := strings.LastIndex(s, "年"); idx >= 0 {
		s = s[idx+len("年"):]
	}
	s = strings.TrimSuffix(s, "月份")
	s = strings.TrimSuffix(s, "月")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return n, true
		}
		return 0, false
	}
	if n, ok := chineseMonths[s]; ok {
		return n, true
	}
	if n, ok := englishMonths[strings.ToLower(strings.TrimSuffix(s, "."))]; ok {
		return n, true
	}
	return 0, false
}

// MonthLabel 月份序号对应的标准标签，如 3 -> "3月"
func MonthLabel(ordinal int) string {
	return strconv.Itoa(ordinal) + "月"
}

// monthSet 规范化后的月份集合；无法识别的标签被忽略
func monthSet(labels []string) map[int]struct{} {
	set := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		if n, ok := MonthOrdinal(l); ok {
			set[n] = struct{}{}
		}
	}
	return set
}
