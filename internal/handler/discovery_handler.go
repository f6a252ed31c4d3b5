package handler

import (
	"net/http"

	"github.com/boring-ventures/minka-sub002/internal/discovery"
	"github.com/gin-gonic/gin"
)

// DiscoveryHandler 发现页处理器。底层不可用时返回降级数据而不是错误，
// 发现页宁可陈旧也不失败。
type DiscoveryHandler struct {
	index *discovery.Index
}

// NewDiscoveryHandler 创建发现页处理器
func NewDiscoveryHandler(index *discovery.Index) *DiscoveryHandler {
	return &DiscoveryHandler{index: index}
}

// CountsByCategory 按分类统计可见项目数量
func (h *DiscoveryHandler) CountsByCategory(c *gin.Context) {
	counts, degraded := h.index.CountsByCategory(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"data":     counts,
		"degraded": degraded,
	})
}

// CountsByLocation 按地区统计可见项目数量
func (h *DiscoveryHandler) CountsByLocation(c *gin.Context) {
	counts, degraded := h.index.CountsByLocation(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"data":     counts,
		"degraded": degraded,
	})
}
