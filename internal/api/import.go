package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"buzzboard/internal/service/excel"
	"buzzboard/internal/store"
)

// maxUploadSize 上传文件大小上限
const maxUploadSize = 32 << 20

// ImportResponse 导入结果
type ImportResponse struct {
	ImportID       string               `json:"importId"`
	TotalSheets    int                  `json:"totalSheets"`
	ImportedSheets int                  `json:"importedSheets"`
	TotalRows      int                  `json:"totalRows"`
	Categories     int                  `json:"categories"`
	Skipped        []excel.SkippedSheet `json:"skipped"`
}

// Import 导入 Excel 数据，整体替换当前数据集
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "仅支持 .xlsx 文件"})
		return
	}
	if fh.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "文件过大"})
		return
	}

	ctx := c.Request.Context()
	importID := uuid.New().String()
	logID := h.beginImportLog(c, importID, fh.Filename, fh.Size)

	file, err := fh.Open()
	if err != nil {
		h.finishImportLog(c, logID, store.ImportSummary{}, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败"})
		return
	}
	defer file.Close()

	res, err := excel.ParseReader(file, h.ingest)
	if err != nil {
		h.finishImportLog(c, logID, store.ImportSummary{}, err)
		h.logger.WarnContext(ctx, "导入失败", "file", fh.Filename, "error", err)
		msg := "解析 Excel 失败"
		if errors.Is(err, excel.ErrNoSheets) || errors.Is(err, excel.ErrNoData) {
			msg = "未找到可识别的数据"
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}

	h.state.SetRawData(res.Rows, res.Categories, res.SheetInfos)

	sum := store.ImportSummary{
		TotalSheets:    len(res.SheetInfos),
		ImportedSheets: len(res.SheetInfos) - len(res.Skipped),
		TotalRows:      len(res.Rows),
		Categories:     len(res.Categories),
	}
	h.finishImportLog(c, logID, sum, nil)
	h.logger.InfoContext(ctx, "导入完成",
		"file", fh.Filename,
		"rows", sum.TotalRows,
		"categories", sum.Categories,
		"skipped", len(res.Skipped))

	skipped := res.Skipped
	if skipped == nil {
		skipped = []excel.SkippedSheet{}
	}
	c.JSON(http.StatusOK, ImportResponse{
		ImportID:       importID,
		TotalSheets:    sum.TotalSheets,
		ImportedSheets: sum.ImportedSheets,
		TotalRows:      sum.TotalRows,
		Categories:     sum.Categories,
		Skipped:        skipped,
	})
}

// ListImports 获取最近的导入记录
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	if h.imports == nil {
		c.JSON(http.StatusOK, gin.H{"imports": []store.ImportLog{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 limit 参数"})
		return
	}
	logs, err := h.imports.ListImportLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取导入记录失败"})
		return
	}
	if logs == nil {
		logs = []store.ImportLog{}
	}
	c.JSON(http.StatusOK, gin.H{"imports": logs})
}

// beginImportLog 记录导入开始；导入记录失败不影响导入本身
func (h *Handler) beginImportLog(c *gin.Context, importID, filename string, size int64) int64 {
	if h.imports == nil {
		return 0
	}
	id, err := h.imports.CreateImportLog(importID, filename, size)
	if err != nil {
		h.logger.WarnContext(c.Request.Context(), "写入导入记录失败", "error", err)
		return 0
	}
	return id
}

func (h *Handler) finishImportLog(c *gin.Context, id int64, sum store.ImportSummary, importErr error) {
	if h.imports == nil || id == 0 {
		return
	}
	status, msg := "success", ""
	if importErr != nil {
		status, msg = "failed", importErr.Error()
	}
	if err := h.imports.CompleteImportLog(id, sum, status, msg); err != nil {
		h.logger.WarnContext(c.Request.Context(), "更新导入记录失败", "error", err)
	}
}
