package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"buzzboard/internal/model"
	"buzzboard/internal/service/store"
)

// SchemaVersion 当前快照版本
// 0: 早期未带版本号的格式，字段与 1 相同，读取后按 1 写回
const SchemaVersion = 1

// ErrUnsupportedVersion 快照版本高于当前程序支持的版本
var ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")

// Snapshot 持久化格式
type Snapshot struct {
	SchemaVersion int                `json:"schemaVersion" validate:"gte=0"`
	RawData       []model.Row        `json:"rawData" validate:"dive"`
	Categories    []model.Category   `json:"categories" validate:"dive"`
	SheetInfos    []model.SheetInfo  `json:"sheetInfos" validate:"dive"`
	Filters       *model.FilterState `json:"filters" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// migrations[v] 将版本 v 升级到 v+1
var migrations = map[int]func(*Snapshot){
	0: func(s *Snapshot) {},
}

// FromState 由内存状态构建快照
func FromState(st store.Snapshot) Snapshot {
	f := st.Filters.Clone()
	return Snapshot{
		SchemaVersion: SchemaVersion,
		RawData:       st.RawData,
		Categories:    st.Categories,
		SheetInfos:    st.SheetInfos,
		Filters:       &f,
	}
}

// State 转换为内存状态
func (s Snapshot) State() store.Snapshot {
	out := store.Snapshot{
		RawData:    s.RawData,
		Categories: s.Categories,
		SheetInfos: s.SheetInfos,
		Filters:    model.DefaultFilterState(),
	}
	if s.Filters != nil {
		out.Filters = s.Filters.Clone()
	}
	if out.RawData == nil {
		out.RawData = []model.Row{}
	}
	if out.Categories == nil {
		out.Categories = []model.Category{}
	}
	if out.SheetInfos == nil {
		out.SheetInfos = []model.SheetInfo{}
	}
	return out
}

// Encode 序列化快照（写入当前版本号）
func Encode(s Snapshot) ([]byte, error) {
	s.SchemaVersion = SchemaVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode 解析、升级并校验快照
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.SchemaVersion > SchemaVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.SchemaVersion)
	}
	for v := s.SchemaVersion; v < SchemaVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, v)
		}
		migrate(&s)
	}
	s.SchemaVersion = SchemaVersion

	if err := validate.Struct(s); err != nil {
		return Snapshot{}, fmt.Errorf("validate snapshot: %w", err)
	}
	if err := uniqueCategoryNames(s.Categories); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func uniqueCategoryNames(categories []model.Category) error {
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("validate snapshot: duplicate category %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
