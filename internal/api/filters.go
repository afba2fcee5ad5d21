package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"buzzboard/internal/model"
)

// FiltersResponse 筛选状态：已生效 + 草稿
type FiltersResponse struct {
	Filters        model.FilterState  `json:"filters"`
	PendingFilters *model.FilterState `json:"pendingFilters"`
}

// GetFilters 获取筛选条件
// GET /api/filters
func (h *Handler) GetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, h.filtersResponse())
}

// UpdateFilters 直接修改已生效筛选（不经过防抖）
// PATCH /api/filters
func (h *Handler) UpdateFilters(c *gin.Context) {
	patch, err := decodePatch(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的筛选条件: " + err.Error()})
		return
	}
	h.state.SetFilters(patch)
	c.JSON(http.StatusOK, h.filtersResponse())
}

// UpdatePendingFilters 修改草稿筛选，静默窗口结束后自动生效
// PATCH /api/filters/pending
func (h *Handler) UpdatePendingFilters(c *gin.Context) {
	patch, err := decodePatch(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的筛选条件: " + err.Error()})
		return
	}
	h.state.SetPendingFilters(patch)
	c.JSON(http.StatusAccepted, h.filtersResponse())
}

// ApplyFilters 立即生效当前草稿
// POST /api/filters/apply
func (h *Handler) ApplyFilters(c *gin.Context) {
	var applied bool
	if h.staging != nil {
		applied = h.staging.Flush()
	} else {
		applied = h.state.ApplyFilters()
	}
	resp := h.filtersResponse()
	c.JSON(http.StatusOK, gin.H{
		"applied":        applied,
		"filters":        resp.Filters,
		"pendingFilters": resp.PendingFilters,
	})
}

// ClearFilters 筛选恢复默认并丢弃草稿
// POST /api/filters/clear
func (h *Handler) ClearFilters(c *gin.Context) {
	h.state.ClearFilters()
	c.JSON(http.StatusOK, h.filtersResponse())
}

func (h *Handler) filtersResponse() FiltersResponse {
	resp := FiltersResponse{Filters: h.state.Filters()}
	if pending, ok := h.state.PendingFilters(); ok {
		resp.PendingFilters = &pending
	}
	return resp
}

// decodePatch 严格解析筛选 patch：未知字段与空 patch 都会被拒绝
func decodePatch(body io.Reader) (model.FilterPatch, error) {
	var patch model.FilterPatch
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		if errors.Is(err, io.EOF) {
			return patch, errors.New("请求体为空")
		}
		return patch, err
	}
	if dec.More() {
		return patch, errors.New("请求体包含多余内容")
	}
	if patch.IsEmpty() {
		return patch, errors.New("未提供任何筛选字段")
	}
	if tf := patch.TimeFilter; tf != nil && tf.Year != nil && (*tf.Year < 1900 || *tf.Year > 9999) {
		return patch, fmt.Errorf("年份超出范围: %d", *tf.Year)
	}
	return patch, nil
}
