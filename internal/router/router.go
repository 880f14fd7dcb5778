package router

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/user/anistats/internal/handler"
	"github.com/user/anistats/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
			"Title": "404 - 页面不存在",
		}))
	})

	// ==================== 公开页面 ====================
	pages := r.Group("")
	pages.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		pages.GET("/", h.Home)
		pages.GET("/analyse", h.Analyse)
		pages.GET("/staff", h.StaffRanking)
	}

	// ==================== 认证页面 ====================
	auth := r.Group("/auth")
	auth.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)
		auth.GET("/register", h.RegisterPage)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 用户设置（需要登录）====================
	settings := r.Group("/settings")
	settings.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		settings.GET("", h.Settings)
		settings.POST("", h.UpdateSettings)
		settings.POST("/password", h.UpdatePassword)
	}

	// ==================== JSON API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		api.GET("/stats", h.ApiStats)
		api.GET("/staff", h.ApiStaff)
		api.GET("/similar/:id", h.ApiSimilar)
		api.GET("/snapshot", h.ApiSnapshot)
	}

	// ==================== 列表导入（需要登录）====================
	importGroup := r.Group("/import")
	importGroup.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		importGroup.POST("", h.ImportList)
	}
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	// 获取布局和局部模板
	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	partials, err := filepath.Glob(templatesDir + "/partials/*.html")
	if err != nil {
		panic(err)
	}

	// 组装模板文件列表
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, view)
		return files
	}

	// 模板函数
	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"default": func(defaultValue, value interface{}) interface{} {
			switch v := value.(type) {
			case string:
				if v == "" {
					return defaultValue
				}
			case int:
				if v == 0 {
					return defaultValue
				}
			case nil:
				return defaultValue
			}
			return value
		},
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"join": strings.Join,
		"airYear": func(t *time.Time) string {
			if t == nil {
				return "----"
			}
			return strconv.Itoa(t.Year())
		},
	}

	// 注册所有页面模板
	pages := []string{
		"home", "analyse", "staff",
		"login", "register", "settings",
		"404",
	}

	for _, page := range pages {
		viewPath := templatesDir + "/pages/" + page + ".html"
		r.AddFromFilesFuncs(page+".html", funcMap, assemble(viewPath)...)
	}

	return r
}
