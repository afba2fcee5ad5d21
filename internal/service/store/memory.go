package store

import (
	"sync"

	"buzzboard/internal/model"
)

// EventType 状态变更类型
type EventType int

const (
	EventDataReplaced   EventType = iota + 1 // 数据集整体替换
	EventCleared                             // 数据与筛选全部清空
	EventCommitted                           // 已生效筛选变更
	EventPendingChanged                      // 草稿筛选变更
)

func (e EventType) String() string {
	switch e {
	case EventDataReplaced:
		return "data_replaced"
	case EventCleared:
		return "cleared"
	case EventCommitted:
		return "committed"
	case EventPendingChanged:
		return "pending_changed"
	}
	return "unknown"
}

// Listener 状态变更回调；在释放锁之后同步调用
type Listener func(EventType)

// Snapshot 可持久化的状态（不含草稿）
type Snapshot struct {
	RawData    []model.Row
	Categories []model.Category
	SheetInfos []model.SheetInfo
	Filters    model.FilterState
}

// MemoryStore 内存状态：数据集 + 两阶段筛选（已生效 / 草稿）
type MemoryStore struct {
	mu sync.RWMutex

	rows       []model.Row
	categories []model.Category
	sheetInfos []model.SheetInfo

	filters model.FilterState
	pending *model.FilterState
	// pendingRev 每次草稿编辑递增
	pendingRev uint64

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewMemoryStore 创建内存存储（空数据集 + 默认筛选）
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:       []model.Row{},
		categories: []model.Category{},
		sheetInfos: []model.SheetInfo{},
		filters:    model.DefaultFilterState(),
	}
}

// Subscribe 注册状态变更回调
func (s *MemoryStore) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *MemoryStore) emit(ev EventType) {
	s.listenersMu.RLock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range ls {
		l(ev)
	}
}

// ==================== 数据集 ====================

// SetRawData 整体替换数据集；三个列表须来自同一次导入，此处不重新派生
func (s *MemoryStore) SetRawData(rows []model.Row, categories []model.Category, sheetInfos []model.SheetInfo) {
	s.mu.Lock()
	s.rows = cloneRows(rows)
	s.categories = cloneCategories(categories)
	s.sheetInfos = cloneSheetInfos(sheetInfos)
	s.mu.Unlock()

	s.emit(EventDataReplaced)
}

// ClearAllData 清空数据集，筛选恢复默认，丢弃草稿
func (s *MemoryStore) ClearAllData() {
	s.mu.Lock()
	s.rows = []model.Row{}
	s.categories = []model.Category{}
	s.sheetInfos = []model.SheetInfo{}
	s.filters = model.DefaultFilterState()
	s.pending = nil
	s.mu.Unlock()

	s.emit(EventCleared)
}

// RawData 获取全部数据行（副本）
func (s *MemoryStore) RawData() []model.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.rows)
}

// Categories 获取品类列表（副本）
func (s *MemoryStore) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCategories(s.categories)
}

// SheetInfos 获取工作表元信息（副本）
func (s *MemoryStore) SheetInfos() []model.SheetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSheetInfos(s.sheetInfos)
}

// Count 数据行数
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// ==================== 筛选 ====================

// Filters 获取已生效筛选
func (s *MemoryStore) Filters() model.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// PendingFilters 获取草稿筛选；没有草稿时 ok 为 false
func (s *MemoryStore) PendingFilters() (model.FilterState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return model.FilterState{}, false
	}
	return s.pending.Clone(), true
}

// HasPending 是否存在草稿
func (s *MemoryStore) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending != nil
}

// SetFilters 直接合并到已生效筛选（绕过草稿与防抖）
func (s *MemoryStore) SetFilters(patch model.FilterPatch) {
	s.mu.Lock()
	s.filters = s.filters.Merge(patch)
	s.mu.Unlock()

	s.emit(EventCommitted)
}

// SetPendingFilters 合并到草稿；没有草稿时以当前已生效筛选为基础创建
func (s *MemoryStore) SetPendingFilters(patch model.FilterPatch) {
	s.mu.Lock()
	base := s.filters
	if s.pending != nil {
		base = *s.pending
	}
	next := base.Merge(patch)
	s.pending = &next
	s.pendingRev++
	s.mu.Unlock()

	s.emit(EventPendingChanged)
}

// ApplyFilters 草稿原样替换已生效筛选并清空草稿；没有草稿时不做任何事
func (s *MemoryStore) ApplyFilters() bool {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return false
	}
	s.filters = *s.pending
	s.pending = nil
	s.mu.Unlock()

	s.emit(EventCommitted)
	return true
}

// PendingRevision 草稿版本号
func (s *MemoryStore) PendingRevision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingRev
}

// ApplyFiltersIf 仅当草稿仍是 rev 版本时生效；之后又有编辑则不做任何事
func (s *MemoryStore) ApplyFiltersIf(rev uint64) bool {
	s.mu.Lock()
	if s.pending == nil || s.pendingRev != rev {
		s.mu.Unlock()
		return false
	}
	s.filters = *s.pending
	s.pending = nil
	s.mu.Unlock()

	s.emit(EventCommitted)
	return true
}

// ClearFilters 已生效筛选恢复默认，草稿直接丢弃
func (s *MemoryStore) ClearFilters() {
	s.mu.Lock()
	s.filters = model.DefaultFilterState()
	s.pending = nil
	s.mu.Unlock()

	s.emit(EventCommitted)
}

// ==================== 持久化 ====================

// Snapshot 导出可持久化状态（草稿不包含在内）
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		RawData:    cloneRows(s.rows),
		Categories: cloneCategories(s.categories),
		SheetInfos: cloneSheetInfos(s.sheetInfos),
		Filters:    s.filters.Clone(),
	}
}

// Restore 从快照恢复；恢复的筛选视为已生效，不触发任何回调
func (s *MemoryStore) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = cloneRows(snap.RawData)
	s.categories = cloneCategories(snap.Categories)
	s.sheetInfos = cloneSheetInfos(snap.SheetInfos)
	s.filters = snap.Filters.Clone()
	s.pending = nil
}

func cloneRows(in []model.Row) []model.Row {
	out := make([]model.Row, len(in))
	copy(out, in)
	return out
}

func cloneCategories(in []model.Category) []model.Category {
	out := make([]model.Category, len(in))
	copy(out, in)
	return out
}

func cloneSheetInfos(in []model.SheetInfo) []model.SheetInfo {
	out := make([]model.SheetInfo, len(in))
	for i, si := range in {
		if si.ColumnNames != nil {
			cols := make([]string, len(si.ColumnNames))
			copy(cols, si.ColumnNames)
			si.ColumnNames = cols
		}
		out[i] = si
	}
	return out
}
