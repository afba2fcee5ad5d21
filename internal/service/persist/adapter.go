package persist

import (
	"errors"
	"log/slog"
	"sync"

	"buzzboard/internal/service/store"
)

// Recorder 写入计数回调
type Recorder interface {
	PersistWrite(err error)
}

// Adapter 持久化适配器：启动时恢复，已生效状态变更时保存
type Adapter struct {
	backend  Backend
	key      string
	logger   *slog.Logger
	recorder Recorder

	mu sync.Mutex
}

// NewAdapter 创建持久化适配器；recorder 可为 nil
func NewAdapter(backend Backend, key string, logger *slog.Logger, recorder Recorder) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		backend:  backend,
		key:      key,
		logger:   logger,
		recorder: recorder,
	}
}

// Key 存储 key
func (a *Adapter) Key() string {
	return a.key
}

// Restore 恢复状态；数据缺失、损坏或校验失败时回退到空数据集 + 默认筛选，不返回错误
// 返回值表示是否成功恢复了已保存的状态
func (a *Adapter) Restore(st *store.MemoryStore) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := a.backend.Load(a.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn("读取持久化状态失败，使用默认状态", "key", a.key, "error", err)
		}
		st.Restore(Snapshot{}.State())
		return false
	}

	snap, err := Decode(data)
	if err != nil {
		a.logger.Warn("持久化状态无效，使用默认状态", "key", a.key, "error", err)
		a.quarantine(data)
		st.Restore(Snapshot{}.State())
		return false
	}

	st.Restore(snap.State())
	a.logger.Info("已恢复持久化状态",
		"key", a.key,
		"rows", len(snap.RawData),
		"categories", len(snap.Categories),
	)
	return true
}

// quarantine 保留无法读取的原始数据，避免被下一次保存覆盖
func (a *Adapter) quarantine(data []byte) {
	if err := a.backend.Save(a.key+".invalid", data); err != nil {
		a.logger.Warn("备份无效状态失败", "key", a.key, "error", err)
	}
}

// Attach 监听已生效状态变更并保存；草稿变更不保存
func (a *Adapter) Attach(st *store.MemoryStore) {
	st.Subscribe(func(ev store.EventType) {
		switch ev {
		case store.EventCommitted, store.EventDataReplaced, store.EventCleared:
			if err := a.SaveNow(st); err != nil {
				a.logger.Error("保存状态失败", "event", ev.String(), "error", err)
			}
		}
	})
}

// SaveNow 立即保存当前已生效状态
func (a *Adapter) SaveNow(st *store.MemoryStore) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := Encode(FromState(st.Snapshot()))
	if err == nil {
		err = a.backend.Save(a.key, data)
	}
	if a.recorder != nil {
		a.recorder.PersistWrite(err)
	}
	return err
}
