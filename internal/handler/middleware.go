package handler

import (
	"strconv"

	"github.com/boring-ventures/minka-sub002/internal/logic"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/gin-gonic/gin"
)

const actorContextKey = "viewer_actor"

// IdentityMiddleware 从请求头提取访问者身份。
// 身份与鉴权由外部网关完成，这里只消费 (profile_id, role) 二元组；
// 没有身份头的请求按匿名公共访问者处理。
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := logic.Actor{Role: model.RoleDonor}

		if raw := c.GetHeader("X-Profile-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				actor.ProfileID = uint(id)
			}
		}
		switch model.Role(c.GetHeader("X-Profile-Role")) {
		case model.RoleAdmin:
			actor.Role = model.RoleAdmin
		case model.RoleOrganizer:
			actor.Role = model.RoleOrganizer
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// viewerActor 读取当前请求的访问者身份
func viewerActor(c *gin.Context) logic.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(logic.Actor); ok {
			return actor
		}
	}
	return logic.Actor{Role: model.RoleDonor}
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// paginationOf 构造分页响应
func paginationOf(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}
