package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buzzboard/internal/filter"
	"buzzboard/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized   bool              `json:"initialized"`   // 是否已导入数据
	TotalRows     int               `json:"totalRows"`     // 数据行数
	Categories    int               `json:"categories"`    // 品类数
	Sheets        int               `json:"sheets"`        // 工作表数
	Filters       model.FilterState `json:"filters"`       // 已生效筛选
	HasPending    bool              `json:"hasPending"`    // 是否存在未生效的草稿
	CommitPending bool              `json:"commitPending"` // 是否已安排生效
	DebounceMS    int64             `json:"debounceMs"`    // 静默窗口
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	snap := h.state.Snapshot()
	resp := StatusResponse{
		Initialized: len(snap.RawData) > 0,
		TotalRows:   len(snap.RawData),
		Categories:  len(snap.Categories),
		Sheets:      len(snap.SheetInfos),
		Filters:     snap.Filters,
		HasPending:  h.state.HasPending(),
	}
	if h.staging != nil {
		resp.CommitPending = h.staging.Scheduled()
		resp.DebounceMS = h.staging.Delay().Milliseconds()
	}
	c.JSON(http.StatusOK, resp)
}

// ListRows 获取全部数据行
// GET /api/rows
func (h *Handler) ListRows(c *gin.Context) {
	rows := h.state.RawData()
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// ListCategories 获取品类列表
// GET /api/categories
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.state.Categories()})
}

// ListSheets 获取工作表信息
// GET /api/sheets
func (h *Handler) ListSheets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sheets": h.state.SheetInfos()})
}

// ListMonths 获取数据中可用的年月与象限
// GET /api/months
func (h *Handler) ListMonths(c *gin.Context) {
	rows := h.state.RawData()
	c.JSON(http.StatusOK, gin.H{
		"months":    filter.AvailableYearMonths(rows),
		"quadrants": filter.Quadrants(rows),
	})
}

// ClearData 清空数据集与筛选
// DELETE /api/data
func (h *Handler) ClearData(c *gin.Context) {
	h.state.ClearAllData()
	h.logger.InfoContext(c.Request.Context(), "数据已清空")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
