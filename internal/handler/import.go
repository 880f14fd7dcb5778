package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/anistats/internal/middleware"
	"github.com/user/anistats/internal/model"
	"github.com/user/anistats/internal/utils"
)

// ImportList 把登录用户的 MAL 列表快照导入本地库
// 受 ALLOW_IMPORT 开关控制，默认关闭
func (h *Handler) ImportList(c *gin.Context) {
	if !h.Config.AllowImport {
		utils.Forbidden(c, "列表导入未开放")
		return
	}

	userID := middleware.GetUserID(c)
	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		utils.Unauthorized(c, "")
		return
	}

	malUsername := c.PostForm("mal_username")
	if malUsername == "" {
		malUsername = user.MALUsername
	}
	if malUsername == "" {
		utils.BadRequest(c, "请先在设置中填写 MAL 用户名")
		return
	}

	entries, err := h.Library.FetchEntries(c.Request.Context(), malUsername)
	if err != nil {
		h.apiError(c, err)
		return
	}

	items := make([]model.UserListEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, *e)
	}
	if err := h.Repos.UserList.Replace(userID, items); err != nil {
		utils.InternalServerError(c, "快照保存失败")
		return
	}

	// 列表已变化，作废该用户名的排行缓存
	utils.CacheDeletePrefix("staff:" + malUsername + ":")

	utils.SuccessWithMessage(c, "导入完成", gin.H{"count": len(items)})
}
