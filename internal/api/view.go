package api

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"buzzboard/internal/filter"
	"buzzboard/internal/service/excel"
)

// GetView 按已生效筛选计算结果
// GET /api/view
func (h *Handler) GetView(c *gin.Context) {
	snap := h.state.Snapshot()
	c.JSON(http.StatusOK, filter.BuildView(snap.Filters, snap.RawData))
}

// GetChart 仅返回图表数据点
// GET /api/chart
func (h *Handler) GetChart(c *gin.Context) {
	snap := h.state.Snapshot()
	rows := filter.Apply(snap.Filters, snap.RawData)
	c.JSON(http.StatusOK, gin.H{"chartPoints": filter.ChartPoints(rows)})
}

// Export 导出当前筛选结果为 Excel
// GET /api/export
func (h *Handler) Export(c *gin.Context) {
	snap := h.state.Snapshot()
	rows := filter.Apply(snap.Filters, snap.RawData)
	label, _ := filter.TimeRangeLabel(snap.Filters)

	file, err := excel.NewExporter().Export(rows, snap.Filters, label)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "导出失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败"})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(time.Now()))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "写入导出文件失败", "error", err)
	}
}

// buildExportContentDisposition ASCII 文件名兜底，filename* 携带中文名
func buildExportContentDisposition(now time.Time) string {
	stamp := now.Format("20060102-150405")
	ascii := fmt.Sprintf("buzz-export-%s.xlsx", stamp)
	utf8Name := fmt.Sprintf("声量筛选结果-%s.xlsx", stamp)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(utf8Name))
}
