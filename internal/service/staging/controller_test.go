package staging

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buzzboard/internal/model"
	"buzzboard/internal/service/store"
)

// fakeClock 确定性时钟：只有调用 Advance 时才会执行到期任务
type fakeClock struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now + d, seq: c.seq, fn: fn}
	c.tasks = append(c.tasks, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance 推进时间并按到期顺序执行任务
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.tasks {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.fn()
	}
}

type countingRecorder struct {
	drafts     int
	superseded int
	commits    int
}

func (r *countingRecorder) DraftEdited() { r.drafts++ }

func (r *countingRecorder) CommitScheduled(superseded bool) {
	if superseded {
		r.superseded++
	}
}

func (r *countingRecorder) Committed() { r.commits++ }

func newHarness(t *testing.T) (*store.MemoryStore, *Controller, *fakeClock, *countingRecorder) {
	t.Helper()
	s := store.NewMemoryStore()
	clock := &fakeClock{}
	rec := &countingRecorder{}
	c := NewController(s, WithScheduler(clock), WithRecorder(rec))
	c.Attach(s)
	t.Cleanup(c.Close)
	return s, c, clock, rec
}

func kw(v string) *string { return &v }

func TestDebounceCoalescesBurst(t *testing.T) {
	s, c, clock, rec := newHarness(t)

	words := []string{"裤", "裤子", "阔腿", "阔腿裤", "阔腿裤 女"}
	for _, w := range words {
		s.SetPendingFilters(model.FilterPatch{Keyword: kw(w)})
		clock.Advance(100 * time.Millisecond)
		require.Equal(t, "", s.Filters().Keyword, "draft must not leak before quiescence")
	}

	clock.Advance(c.Delay())

	assert.Equal(t, 1, rec.commits)
	assert.Equal(t, len(words), rec.drafts)
	assert.Equal(t, len(words)-1, rec.superseded)
	assert.Equal(t, "阔腿裤 女", s.Filters().Keyword)
	assert.False(t, s.HasPending())
	assert.False(t, c.Scheduled())
}

func TestDebounceTimedFromLastEdit(t *testing.T) {
	s, _, clock, rec := newHarness(t)

	s.SetPendingFilters(model.FilterPatch{Keyword: kw("包")})
	clock.Advance(250 * time.Millisecond)
	s.SetPendingFilters(model.FilterPatch{Keyword: kw("包包")})

	clock.Advance(50 * time.Millisecond) // 距首次编辑 300ms
	require.Equal(t, 0, rec.commits)

	clock.Advance(249 * time.Millisecond)
	require.Equal(t, 0, rec.commits)

	clock.Advance(time.Millisecond)
	require.Equal(t, 1, rec.commits)
	require.Equal(t, "包包", s.Filters().Keyword)
}

func TestMergedDraftSingleCommit(t *testing.T) {
	s, _, clock, rec := newHarness(t)

	s.SetPendingFilters(model.FilterPatch{Keyword: kw("裤")})
	clock.Advance(120 * time.Millisecond)
	cats := []string{"包"}
	s.SetPendingFilters(model.FilterPatch{Categories: &cats})
	clock.Advance(time.Second)

	f := s.Filters()
	assert.Equal(t, 1, rec.commits)
	assert.Equal(t, "裤", f.Keyword)
	assert.Equal(t, []string{"包"}, f.Categories)
}

func TestCloseCancelsScheduledCommit(t *testing.T) {
	s, c, clock, rec := newHarness(t)

	before := s.Filters()
	s.SetPendingFilters(model.FilterPatch{Keyword: kw("鞋")})
	clock.Advance(100 * time.Millisecond)

	c.Close()
	clock.Advance(10 * time.Second)

	assert.Equal(t, 0, rec.commits)
	assert.True(t, reflect.DeepEqual(before, s.Filters()))

	// 关闭后的编辑不会再安排任务
	s.SetPendingFilters(model.FilterPatch{Keyword: kw("靴")})
	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, rec.commits)
	assert.False(t, c.Scheduled())

	c.Close()
}

func TestFlushCommitsImmediately(t *testing.T) {
	s, c, clock, rec := newHarness(t)

	s.SetPendingFilters(model.FilterPatch{Keyword: kw("双肩包")})
	require.True(t, c.Flush())
	require.Equal(t, "双肩包", s.Filters().Keyword)

	clock.Advance(time.Second)
	assert.Equal(t, 1, rec.commits, "cancelled timer must not commit again")
	assert.False(t, c.Flush(), "nothing left to flush")
}

func TestStaleFireIsIgnored(t *testing.T) {
	s := store.NewMemoryStore()
	clock := &fakeClock{}
	c := NewController(s, WithScheduler(clock))
	defer c.Close()

	s.SetPendingFilters(model.FilterPatch{Keyword: kw("旧")})
	c.Touch()
	stale := c.gen
	c.Touch()

	// 模拟 Stop 与到期竞争：被替换的任务仍然执行
	c.fire(stale, s.PendingRevision())
	require.True(t, s.HasPending(), "superseded timer must not commit")

	clock.Advance(c.Delay())
	require.False(t, s.HasPending())
	require.Equal(t, "旧", s.Filters().Keyword)
}

// interleavingCommitter 在提交前插入一次编辑，模拟到期任务通过 gen 检查后又有新草稿落地
type interleavingCommitter struct {
	*store.MemoryStore
	before func()
}

func (w *interleavingCommitter) ApplyFiltersIf(rev uint64) bool {
	if h := w.before; h != nil {
		w.before = nil
		h()
	}
	return w.MemoryStore.ApplyFiltersIf(rev)
}

func TestEditDuringFireWaitsForItsOwnWindow(t *testing.T) {
	s := store.NewMemoryStore()
	clock := &fakeClock{}
	rec := &countingRecorder{}
	w := &interleavingCommitter{MemoryStore: s}
	c := NewController(w, WithScheduler(clock), WithRecorder(rec))
	c.Attach(s)
	defer c.Close()

	s.SetPendingFilters(model.FilterPatch{Keyword: kw("旧")})
	w.before = func() {
		s.SetPendingFilters(model.FilterPatch{Keyword: kw("新")})
	}

	clock.Advance(c.Delay())
	require.Equal(t, 0, rec.commits, "late edit must not ride the earlier timer")
	require.Equal(t, "", s.Filters().Keyword)
	require.True(t, s.HasPending())
	require.True(t, c.Scheduled())

	clock.Advance(c.Delay() - time.Millisecond)
	require.Equal(t, 0, rec.commits)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, rec.commits)
	assert.Equal(t, "新", s.Filters().Keyword)
	assert.False(t, s.HasPending())
}

func TestSetFiltersDoesNotSchedule(t *testing.T) {
	s, c, _, rec := newHarness(t)

	s.SetFilters(model.FilterPatch{Keyword: kw("直接生效")})
	assert.False(t, c.Scheduled())
	assert.Equal(t, 0, rec.drafts)
}

type countingCommitter struct {
	n atomic.Int32
}

func (c *countingCommitter) ApplyFilters() bool {
	c.n.Add(1)
	return true
}

func TestRealSchedulerFires(t *testing.T) {
	committer := &countingCommitter{}
	c := NewController(committer, WithDelay(20*time.Millisecond))
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Touch()
	}

	assert.Eventually(t, func() bool { return committer.n.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), committer.n.Load())
}
