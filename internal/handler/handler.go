package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/middleware"
	"github.com/user/anistats/internal/model"
	"github.com/user/anistats/internal/repository"
	"github.com/user/anistats/internal/service"
	"github.com/user/anistats/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos   *repository.Repositories
	Config  *config.Config
	Stats   *service.StatsService
	Staff   *service.StaffService
	Library *service.LibraryService
	Catalog *service.CatalogService
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	// 抓取与元数据服务共用一个 HTTP 客户端
	client := utils.NewHTTPClient()

	jikan := service.NewJikanService(client, cfg)
	crawler := service.NewBroadcastCrawler(client, cfg)
	catalog := service.NewCatalogService(repos.Anime, jikan, crawler, cfg)
	malList := service.NewMALListService(client, cfg)
	library := service.NewLibraryService(malList, catalog)

	stats := service.NewStatsService(
		library,
		service.NewFranchiseService(cfg),
		service.NewScheduleService(cfg),
		service.NewNextReleaseService(cfg),
		cfg,
	)

	return &Handler{
		Repos:   repos,
		Config:  cfg,
		Stats:   stats,
		Staff:   service.NewStaffService(jikan, cfg),
		Library: library,
		Catalog: catalog,
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	// 基础数据
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
		"Referer":  c.Request.Referer(),
	}

	// 注入用户信息
	session := sessions.Default(c)
	if userinfo := session.Get("userinfo"); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			res["UserInfo"] = su
		}
	}

	// 菜单高亮逻辑
	res["ActiveMenu"] = h.getActiveMenu(c.Request.URL.Path)

	// 合并传入的数据
	for k, v := range data {
		res[k] = v
	}

	return res
}

// getActiveMenu 根据路径判断当前高亮菜单
func (h *Handler) getActiveMenu(path string) string {
	switch path {
	case "/":
		return "home"
	case "/analyse":
		return "analyse"
	case "/staff":
		return "staff"
	case "/settings":
		return "user"
	default:
		return ""
	}
}

// resolveViewer 解析本次请求的 MAL 用户名、查看时区和标题语言偏好
// 优先级：查询参数 > 登录用户的偏好设置 > 上次分析用的值 > 默认值
func (h *Handler) resolveViewer(c *gin.Context) (string, *time.Location, []string) {
	username := c.Query("username")
	tz := c.Query("tz")
	langs := splitLangs(c.Query("langs"))

	if userID := middleware.GetUserID(c); userID > 0 {
		if user, err := h.Repos.User.FindByID(userID); err == nil && user != nil {
			if username == "" {
				username = user.MALUsername
			}
			if tz == "" {
				tz = user.Timezone
			}
			if langs == nil {
				langs = splitLangs(user.TitleLangs)
			}
		}
	}

	// Session 里记着上一次分析的用户名和时区，方便未登录的访客来回切页
	session := sessions.Default(c)
	if username == "" {
		if v, ok := session.Get("viewer_username").(string); ok {
			username = v
		}
	}
	if tz == "" {
		if v, ok := session.Get("viewer_tz").(string); ok {
			tz = v
		}
	}
	if username != "" {
		session.Set("viewer_username", username)
		session.Set("viewer_tz", tz)
		session.Save()
	}

	if langs == nil {
		langs = h.Config.TitleLangs
	}

	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}
	return username, loc, langs
}

// splitLangs 解析逗号分隔的语言列表，空串返回 nil
func splitLangs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ==================== 公开页面 ====================

// Home 首页
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title": h.Config.SiteName + " - 追番数据分析",
	}))
}

// Analyse 分析结果页
func (h *Handler) Analyse(c *gin.Context) {
	username, loc, langs := h.resolveViewer(c)
	if username == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	stats, err := h.Stats.Analyse(c.Request.Context(), username, time.Now().In(loc), langs)
	if err != nil {
		c.HTML(http.StatusOK, "analyse.html", h.RenderData(c, gin.H{
			"Title":    "分析 - " + h.Config.SiteName,
			"Username": username,
			"Error":    analyseErrorMessage(err),
		}))
		return
	}

	c.HTML(http.StatusOK, "analyse.html", h.RenderData(c, gin.H{
		"Title":    username + " 的追番分析 - " + h.Config.SiteName,
		"Username": username,
		"Timezone": loc.String(),
		"Stats":    stats,
	}))
}

// StaffRanking 制作人员排行页
func (h *Handler) StaffRanking(c *gin.Context) {
	username, _, langs := h.resolveViewer(c)
	if username == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	people, err := h.rankStaff(c, username, langs, h.Config.StaffScoreMin)
	if err != nil {
		c.HTML(http.StatusOK, "staff.html", h.RenderData(c, gin.H{
			"Title":    "制作人员 - " + h.Config.SiteName,
			"Username": username,
			"Error":    analyseErrorMessage(err),
		}))
		return
	}

	// 页面只展示头部，完整榜单走 API
	if len(people) > staffTopN {
		people = people[:staffTopN]
	}

	c.HTML(http.StatusOK, "staff.html", h.RenderData(c, gin.H{
		"Title":    username + " 的制作人员排行 - " + h.Config.SiteName,
		"Username": username,
		"People":   people,
	}))
}

// staffTopN 排行页展示的人数上限
const staffTopN = 50

// rankStaff 构建工作集并排行，结果短期缓存
// 一次排行要对每部高分番剧调两个 Jikan 接口，必须缓存
func (h *Handler) rankStaff(c *gin.Context, username string, langs []string, minScore float64) ([]*model.StaffPerson, error) {
	cacheKey := "staff:" + username + ":" + strings.Join(langs, ",") +
		":" + strconv.FormatFloat(minScore, 'g', -1, 64)
	if cached, ok := utils.CacheGet(cacheKey); ok {
		return cached.([]*model.StaffPerson), nil
	}

	records, err := h.Library.BuildRecords(c.Request.Context(), username, langs)
	if err != nil {
		return nil, err
	}
	people, err := h.Staff.RankAbove(c.Request.Context(), records, minScore)
	if err != nil {
		return nil, err
	}

	utils.CacheSet(cacheKey, people, 30*time.Minute)
	return people, nil
}

// analyseErrorMessage 把分析错误转成用户可读的提示
func analyseErrorMessage(err error) string {
	var conflict *service.SchemaConflictError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return "找不到该用户，请确认用户名且列表设为公开"
	case errors.As(err, &conflict):
		return "上游列表格式发生变化，暂时无法分析"
	default:
		return "分析失败，请稍后重试"
	}
}

// ==================== 用户设置 ====================

// Settings 设置页面
func (h *Handler) Settings(c *gin.Context) {
	user, err := h.Repos.User.FindByID(middleware.GetUserID(c))
	if err != nil || user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}
	snapshotCount, _ := h.Repos.UserList.CountByUser(user.ID)
	c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
		"Title":         "设置 - " + h.Config.SiteName,
		"User":          user,
		"SnapshotCount": snapshotCount,
		"AllowImport":   h.Config.AllowImport,
	}))
}

// UpdateSettings 更新分析偏好
func (h *Handler) UpdateSettings(c *gin.Context) {
	userID := middleware.GetUserID(c)
	malUsername := c.PostForm("mal_username")
	timezone := c.PostForm("timezone")
	titleLangs := c.PostForm("title_langs")

	// 时区必须是合法的 IANA 名称
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			user, _ := h.Repos.User.FindByID(userID)
			c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
				"Title": "设置 - " + h.Config.SiteName,
				"User":  user,
				"Error": "无法识别的时区: " + timezone,
			}))
			return
		}
	}

	if err := h.Repos.User.UpdatePreferences(userID, malUsername, timezone, titleLangs); err != nil {
		user, _ := h.Repos.User.FindByID(userID)
		c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
			"Title": "设置 - " + h.Config.SiteName,
			"User":  user,
			"Error": "保存失败，请重试",
		}))
		return
	}
	c.Redirect(http.StatusFound, "/settings")
}

// UpdatePassword 修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")
	confirmPassword := c.PostForm("confirm_password")

	renderError := func(msg string) {
		c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
			"Title": "设置 - " + h.Config.SiteName,
			"User":  user,
			"Error": msg,
		}))
	}

	if !h.Repos.User.CheckPassword(user, oldPassword) {
		renderError("当前密码错误")
		return
	}
	if newPassword != confirmPassword {
		renderError("两次输入的新密码不一致")
		return
	}
	if len(newPassword) < 6 {
		renderError("新密码至少需要 6 个字符")
		return
	}

	if err := h.Repos.User.UpdatePassword(userID, newPassword); err != nil {
		renderError("修改失败，请重试")
		return
	}
	c.Redirect(http.StatusFound, "/settings")
}

// generateToken 生成 JWT
func (h *Handler) generateToken(user *model.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.Config.JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Config.AppSecret))
}
