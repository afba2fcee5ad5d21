package persist_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buzzboard/internal/model"
	"buzzboard/internal/service/persist"
	memstore "buzzboard/internal/service/store"
	"buzzboard/internal/store"
)

func populatedStore() *memstore.MemoryStore {
	s := memstore.NewMemoryStore()
	s.SetRawData(
		[]model.Row{
			{Year: 2024, Month: "1月", Category: "裤子", Keyword: "阔腿裤", Buzz: 1200.5, BuzzYOY: 0.12, BuzzMOM: -0.03, Search: 800, SearchYOY: 0.2, SearchMOM: 0.01, Quadrant: "高潜"},
			{Year: 2024, Month: "3月", Category: "鞋", Subcategory: "运动鞋", Keyword: "跑鞋", Buzz: 5000, Search: 4200, Quadrant: "稳定"},
		},
		[]model.Category{
			{ID: "7f1c", Name: "裤子", SourceSheetName: "服饰"},
			{ID: "9a2b", Name: "鞋", SourceSheetName: "鞋"},
		},
		[]model.SheetInfo{
			{Name: "服饰", RowCount: 1, ColumnNames: []string{"年份", "月份", "关键词"}},
			{Name: "鞋", RowCount: 1, ColumnNames: []string{}},
		},
	)
	cats := []string{"鞋"}
	quads := []string{"稳定", "高潜"}
	kw := "跑"
	s.SetFilters(model.FilterPatch{
		Categories: &cats,
		TimeFilter: &model.TimeFilter{Year: model.IntPtr(2024), Months: []string{"3月", "1月"}},
		Quadrants:  &quads,
		Keyword:    &kw,
	})
	return s
}

func backends(t *testing.T) map[string]persist.Backend {
	t.Helper()

	fb, err := persist.NewFileBackend(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	sq, err := store.New(filepath.Join(t.TempDir(), "buzzboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]persist.Backend{
		"memory": persist.NewMemoryBackend(),
		"file":   fb,
		"sqlite": sq,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			src := populatedStore()
			adapter := persist.NewAdapter(backend, "", nil, nil)
			require.NoError(t, adapter.SaveNow(src))

			dst := memstore.NewMemoryStore()
			require.True(t, adapter.Restore(dst))

			assert.Equal(t, src.Snapshot(), dst.Snapshot())
			assert.False(t, dst.HasPending())
		})
	}
}

func TestRoundTrip_EmptyState(t *testing.T) {
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, "empty", nil, nil)

	src := memstore.NewMemoryStore()
	require.NoError(t, adapter.SaveNow(src))

	dst := populatedStore()
	require.True(t, adapter.Restore(dst))
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
}

func TestEncodeStampsVersion(t *testing.T) {
	data, err := persist.Encode(persist.FromState(populatedStore().Snapshot()))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, persist.SchemaVersion, raw["schemaVersion"])
	for _, key := range []string{"rawData", "categories", "sheetInfos", "filters"} {
		assert.Contains(t, raw, key)
	}
}

func TestRestoreFallsBackToDefaults(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"rawData": [`,
		"wrong types":        `{"schemaVersion":1,"rawData":"oops","categories":[],"sheetInfos":[],"filters":{}}`,
		"missing filters":    `{"schemaVersion":1,"rawData":[],"categories":[],"sheetInfos":[]}`,
		"unnamed category":   `{"schemaVersion":1,"rawData":[],"categories":[{"id":"x","name":""}],"sheetInfos":[],"filters":{}}`,
		"duplicate category": `{"schemaVersion":1,"rawData":[],"categories":[{"id":"a","name":"包"},{"id":"b","name":"包"}],"sheetInfos":[],"filters":{}}`,
		"future version":     `{"schemaVersion":99,"rawData":[],"categories":[],"sheetInfos":[],"filters":{}}`,
		"empty month":        `{"schemaVersion":1,"rawData":[{"year":2024,"month":"","category":"包","keyword":"托特包"}],"categories":[],"sheetInfos":[],"filters":{}}`,
		"missing month":      `{"schemaVersion":1,"rawData":[{"year":2024,"category":"包","keyword":"托特包"}],"categories":[],"sheetInfos":[],"filters":{}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			backend := persist.NewMemoryBackend()
			require.NoError(t, backend.Save(persist.DefaultKey, []byte(payload)))

			st := populatedStore()
			adapter := persist.NewAdapter(backend, persist.DefaultKey, nil, nil)
			assert.False(t, adapter.Restore(st))

			assert.Equal(t, 0, st.Count())
			assert.Empty(t, st.Categories())
			assert.Equal(t, model.DefaultFilterState(), st.Filters())

			kept, err := backend.Load(persist.DefaultKey + ".invalid")
			require.NoError(t, err)
			assert.Equal(t, payload, string(kept))
		})
	}
}

func TestRestoreMissingState(t *testing.T) {
	adapter := persist.NewAdapter(persist.NewMemoryBackend(), "", nil, nil)
	st := populatedStore()

	assert.False(t, adapter.Restore(st))
	assert.Equal(t, 0, st.Count())
	assert.Equal(t, model.DefaultFilterState(), st.Filters())
}

func TestDecodeFutureVersion(t *testing.T) {
	_, err := persist.Decode([]byte(`{"schemaVersion":2,"filters":{}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, persist.ErrUnsupportedVersion))
}

func TestDecodeLegacyUnversioned(t *testing.T) {
	payload := `{
		"rawData": [{"year":2024,"month":"2月","category":"包","keyword":"托特包","buzz":10,"quadrant":"高潜"}],
		"categories": [{"id":"c1","name":"包","sourceSheetName":"包"}],
		"sheetInfos": [{"name":"包","rowCount":1,"columnNames":["关键词"]}],
		"filters": {"categories":["包"],"timeFilter":{"months":[]},"quadrants":[],"keyword":""}
	}`
	snap, err := persist.Decode([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, persist.SchemaVersion, snap.SchemaVersion)

	state := snap.State()
	require.Len(t, state.RawData, 1)
	assert.Equal(t, "托特包", state.RawData[0].Keyword)
	assert.Equal(t, []string{"包"}, state.Filters.Categories)
}

func TestAttachPersistsCommittedOnly(t *testing.T) {
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, "", nil, nil)
	st := memstore.NewMemoryStore()
	adapter.Attach(st)

	kw := "裤"
	st.SetPendingFilters(model.FilterPatch{Keyword: &kw})
	_, err := backend.Load(persist.DefaultKey)
	require.ErrorIs(t, err, persist.ErrNotFound, "drafts must never be persisted")

	require.True(t, st.ApplyFilters())
	data, err := backend.Load(persist.DefaultKey)
	require.NoError(t, err)
	snap, err := persist.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "裤", snap.Filters.Keyword)

	// 再次编辑草稿：持久化内容仍是已生效的筛选
	other := "包"
	st.SetPendingFilters(model.FilterPatch{Keyword: &other})
	data, err = backend.Load(persist.DefaultKey)
	require.NoError(t, err)
	snap, err = persist.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "裤", snap.Filters.Keyword)

	st.ClearAllData()
	data, err = backend.Load(persist.DefaultKey)
	require.NoError(t, err)
	snap, err = persist.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, snap.RawData)
	assert.Equal(t, model.DefaultFilterState(), *snap.Filters)
}

func TestRestoreDoesNotEmitEvents(t *testing.T) {
	backend := persist.NewMemoryBackend()
	adapter := persist.NewAdapter(backend, "", nil, nil)
	require.NoError(t, adapter.SaveNow(populatedStore()))

	st := memstore.NewMemoryStore()
	events := 0
	st.Subscribe(func(memstore.EventType) { events++ })

	require.True(t, adapter.Restore(st))
	assert.Zero(t, events)
}

type failingBackend struct{}

func (failingBackend) Load(string) ([]byte, error) { return nil, errors.New("disk unavailable") }

func (failingBackend) Save(string, []byte) error { return errors.New("disk unavailable") }

type writeCounter struct {
	ok, failed int
}

func (w *writeCounter) PersistWrite(err error) {
	if err != nil {
		w.failed++
		return
	}
	w.ok++
}

func TestBackendErrors(t *testing.T) {
	counter := &writeCounter{}
	adapter := persist.NewAdapter(failingBackend{}, "", nil, counter)

	st := populatedStore()
	assert.False(t, adapter.Restore(st))
	assert.Equal(t, 0, st.Count())

	assert.Error(t, adapter.SaveNow(st))
	assert.Equal(t, 1, counter.failed)
	assert.Equal(t, 0, counter.ok)
}

func TestFileBackendKeySanitized(t *testing.T) {
	dir := t.TempDir()
	fb, err := persist.NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, fb.Save("../escape/key", []byte("x")))
	got, err := fb.Load("../escape/key")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
