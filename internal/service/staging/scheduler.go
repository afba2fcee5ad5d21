package staging

import "time"

// Timer 已安排的任务句柄
type Timer interface {
	// Stop 取消任务；任务已执行或已取消时返回 false
	Stop() bool
}

// Scheduler 延迟执行抽象，形如 time.AfterFunc，便于测试替换为确定性时钟
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealScheduler 基于 time 包的调度器
type RealScheduler struct{}

// AfterFunc 在 d 之后于独立 goroutine 中执行 fn
func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
