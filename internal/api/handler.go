package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"buzzboard/internal/logging"
	"buzzboard/internal/service/excel"
	"buzzboard/internal/service/staging"
	memstore "buzzboard/internal/service/store"
	"buzzboard/internal/store"
)

// ImportLogStore 导入记录存储（仅 SQLite 后端提供）
type ImportLogStore interface {
	CreateImportLog(importID, filename string, fileSize int64) (int64, error)
	CompleteImportLog(id int64, sum store.ImportSummary, status, errorMessage string) error
	ListImportLogs(limit int) ([]store.ImportLog, error)
}

// Handler API 处理器
type Handler struct {
	state   *memstore.MemoryStore
	staging *staging.Controller
	imports ImportLogStore
	ingest  excel.ParseOptions
	logger  *slog.Logger
}

// Option 处理器选项
type Option func(*Handler)

// WithImportLog 启用导入记录
func WithImportLog(s ImportLogStore) Option {
	return func(h *Handler) { h.imports = s }
}

// WithParseOptions 设置导入解析选项
func WithParseOptions(opts excel.ParseOptions) Option {
	return func(h *Handler) { h.ingest = opts }
}

// WithLogger 设置 logger
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler 创建 API 处理器
func NewHandler(state *memstore.MemoryStore, ctrl *staging.Controller, opts ...Option) *Handler {
	h := &Handler{
		state:   state,
		staging: ctrl,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 数据导入
	router.POST("/import", h.Import)
	router.GET("/imports", h.ListImports)
	router.DELETE("/data", h.ClearData)

	// 数据集查询
	router.GET("/rows", h.ListRows)
	router.GET("/categories", h.ListCategories)
	router.GET("/sheets", h.ListSheets)
	router.GET("/months", h.ListMonths)

	// 筛选条件
	router.GET("/filters", h.GetFilters)
	router.PATCH("/filters", h.UpdateFilters)
	router.PATCH("/filters/pending", h.UpdatePendingFilters)
	router.POST("/filters/apply", h.ApplyFilters)
	router.POST("/filters/clear", h.ClearFilters)

	// 筛选结果
	router.GET("/view", h.GetView)
	router.GET("/chart", h.GetChart)
	router.GET("/export", h.Export)
}
