package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/user/anistats/internal/middleware"
	"github.com/user/anistats/internal/model"
)

var validate = validator.New()

// LoginPage 登录页面
func (h *Handler) LoginPage(c *gin.Context) {
	// 如果已经登录，直接跳转到首页
	if middleware.GetUserID(c) > 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
		"Title":    "登录 - " + h.Config.SiteName,
		"Redirect": c.Query("redirect"),
	}))
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	redirect := c.PostForm("redirect")

	if redirect == "" {
		redirect = "/"
	}

	// 查找用户
	user, err := h.Repos.User.FindByEmail(email)
	if err != nil || user == nil {
		c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
			"Title": "登录 - " + h.Config.SiteName,
			"Error": "邮箱或密码错误",
		}))
		return
	}

	// 验证密码
	if !h.Repos.User.CheckPassword(user, password) {
		c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
			"Title": "登录 - " + h.Config.SiteName,
			"Error": "邮箱或密码错误",
		}))
		return
	}

	// 生成 JWT
	token, err := h.generateToken(user)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", h.RenderData(c, gin.H{
			"Title": "登录 - " + h.Config.SiteName,
			"Error": "登录失败，请重试",
		}))
		return
	}

	// 设置 Cookie (JWT)
	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
	session.Save()

	c.Redirect(http.StatusFound, redirect)
}

// RegisterPage 注册页面
func (h *Handler) RegisterPage(c *gin.Context) {
	// 如果已经登录，直接跳转到首页
	if middleware.GetUserID(c) > 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
		"Title": "注册 - " + h.Config.SiteName,
	}))
}

// Register 注册处理
func (h *Handler) Register(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	// 验证
	if err := validate.Var(email, "required,email"); err != nil {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "邮箱格式不正确",
		}))
		return
	}

	if password != confirmPassword {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "两次输入的密码不一致",
		}))
		return
	}

	if len(password) < 6 {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "密码至少需要 6 个字符",
		}))
		return
	}

	// 检查邮箱是否已存在
	existing, _ := h.Repos.User.FindByEmail(email)
	if existing != nil {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "该邮箱已被注册",
		}))
		return
	}

	// 创建用户
	// 默认截取邮箱 @ 符号前的内容作为用户名
	username := email
	if parts := strings.Split(email, "@"); len(parts) > 0 {
		username = parts[0]
	}

	user, err := h.Repos.User.Create(email, username, password)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "register.html", h.RenderData(c, gin.H{
			"Title": "注册 - " + h.Config.SiteName,
			"Error": "注册失败，请重试",
		}))
		return
	}

	// 生成 JWT 并登录
	token, _ := h.generateToken(user)
	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}
