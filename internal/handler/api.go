package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/anistats/internal/middleware"
	"github.com/user/anistats/internal/service"
	"github.com/user/anistats/internal/utils"
)

// ApiStats 完整分析结果 API
// GET /api/stats?username=xxx&tz=Asia/Shanghai
func (h *Handler) ApiStats(c *gin.Context) {
	username, loc, langs := h.resolveViewer(c)
	if username == "" {
		utils.BadRequest(c, "缺少 username 参数")
		return
	}

	stats, err := h.Stats.Analyse(c.Request.Context(), username, time.Now().In(loc), langs)
	if err != nil {
		h.apiError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"username": username,
		"timezone": loc.String(),
		"stats":    stats,
	})
}

// ApiStaff 制作人员排行 API
func (h *Handler) ApiStaff(c *gin.Context) {
	username, _, langs := h.resolveViewer(c)
	if username == "" {
		utils.BadRequest(c, "缺少 username 参数")
		return
	}

	minScore := h.Config.StaffScoreMin
	if raw := c.Query("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 10 {
			utils.BadRequest(c, "min_score 必须是 0-10 之间的数字")
			return
		}
		minScore = v
	}

	people, err := h.rankStaff(c, username, langs, minScore)
	if err != nil {
		h.apiError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"username": username,
		"people":   people,
	})
}

// ApiSimilar 相似番剧推荐 API（基于简介向量）
func (h *Handler) ApiSimilar(c *gin.Context) {
	malID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "无效的番剧 ID")
		return
	}

	anime, err := h.Repos.Anime.FindByMALID(malID)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	if anime == nil {
		utils.NotFound(c, "目录中没有该番剧")
		return
	}

	similar, err := h.Catalog.FindSimilar(malID, 10)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	utils.Success(c, similar)
}

// ApiSnapshot 返回当前用户已导入的列表快照
func (h *Handler) ApiSnapshot(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		utils.Unauthorized(c, "")
		return
	}

	entries, err := h.Repos.UserList.ListByUser(userID)
	if err != nil {
		utils.InternalServerError(c, "查询失败")
		return
	}
	utils.Success(c, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// apiError 把分析错误映射成 API 响应
func (h *Handler) apiError(c *gin.Context, err error) {
	var conflict *service.SchemaConflictError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		utils.NotFound(c, "找不到该用户")
	case errors.As(err, &conflict):
		utils.Error(c, http.StatusBadGateway, "上游列表格式发生变化: "+conflict.Error())
	default:
		utils.InternalServerError(c, "分析失败")
	}
}
