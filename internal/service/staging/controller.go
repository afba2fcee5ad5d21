package staging

import (
	"log/slog"
	"sync"
	"time"

	"buzzboard/internal/service/store"
)

// DefaultQuiescence 默认静默窗口：最后一次草稿编辑后等待该时长再生效
const DefaultQuiescence = 300 * time.Millisecond

// Committer 草稿生效的执行方
type Committer interface {
	ApplyFilters() bool
}

// RevisionedCommitter 支持按草稿版本有条件生效；到期任务只提交安排时看到的草稿
type RevisionedCommitter interface {
	Committer
	PendingRevision() uint64
	ApplyFiltersIf(rev uint64) bool
}

// Recorder 计数回调（可为 nil）
type Recorder interface {
	DraftEdited()
	CommitScheduled(superseded bool)
	Committed()
}

// Controller 防抖控制器：合并连续的草稿编辑，只在静默窗口结束后生效一次
type Controller struct {
	committer Committer
	scheduler Scheduler
	delay     time.Duration
	logger    *slog.Logger
	recorder  Recorder

	mu     sync.Mutex
	timer  Timer
	gen    uint64
	closed bool
}

// Option 控制器选项
type Option func(*Controller)

// WithScheduler 替换调度器
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithDelay 设置静默窗口
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder 设置计数回调
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// NewController 创建防抖控制器
func NewController(committer Committer, opts ...Option) *Controller {
	c := &Controller{
		committer: committer,
		scheduler: RealScheduler{},
		delay:     DefaultQuiescence,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach 监听草稿变更
func (c *Controller) Attach(s *store.MemoryStore) {
	s.Subscribe(func(ev store.EventType) {
		if ev == store.EventPendingChanged {
			c.Touch()
		}
	})
}

// Delay 静默窗口
func (c *Controller) Delay() time.Duration {
	return c.delay
}

// Touch 草稿发生变更：取消尚未执行的生效任务，从本次编辑起重新计时
func (c *Controller) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	superseded := false
	if c.timer != nil {
		superseded = c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	var rev uint64
	if rc, ok := c.committer.(RevisionedCommitter); ok {
		rev = rc.PendingRevision()
	}
	c.timer = c.scheduler.AfterFunc(c.delay, func() { c.fire(gen, rev) })

	if c.recorder != nil {
		c.recorder.DraftEdited()
		c.recorder.CommitScheduled(superseded)
	}
}

// Scheduled 是否有待执行的生效任务
func (c *Controller) Scheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Flush 立即生效草稿（取消待执行任务）；返回是否发生了生效
func (c *Controller) Flush() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.cancelLocked()
	c.mu.Unlock()

	return c.commit("flush")
}

// Close 结束会话：取消待执行任务，此后的编辑与到期任务都被忽略
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancelLocked()
}

func (c *Controller) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

// fire 到期回调；只有最新一次安排的任务才会生效。
// 检查 gen 之后到提交之前落地的编辑由 rev 拦下，留给它自己的任务
func (c *Controller) fire(gen, rev uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	if rc, ok := c.committer.(RevisionedCommitter); ok {
		c.finish(rc.ApplyFiltersIf(rev), "debounce")
		return
	}
	c.commit("debounce")
}

func (c *Controller) commit(reason string) bool {
	return c.finish(c.committer.ApplyFilters(), reason)
}

func (c *Controller) finish(applied bool, reason string) bool {
	if !applied {
		return false
	}
	if c.recorder != nil {
		c.recorder.Committed()
	}
	c.logger.Debug("筛选条件已生效", "reason", reason)
	return true
}
