package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	SiteUrl     string

	// 列表/元数据来源
	MALBaseURL   string
	JikanBaseURL string
	AllowImport  bool

	// 分析参数
	TitleLangs             []string // 标题语言偏好，按顺序回退
	DefaultAirTz           string   // 片源默认时区
	ScheduleWindowDays     int      // 播放表窗口天数
	ScheduleStatuses       []string // 计入播放表的观看状态
	StaffScoreMin          float64  // 入选制作人员榜的最低用户评分
	StaffPositionBlacklist []string // 排行时忽略的制作职位
	StaffLanguageWhitelist []string // 排行时保留的配音语言
	FranchisePrefixRatio   float64  // 公共前缀占最短标题的比例阈值
	FranchiseMinChars      int      // 公共前缀绝对长度阈值
	KnownFranchises        []string // 手动指定的系列名（优先于自动归组）

	// Ollama 向量服务（可选，缺省时跳过向量生成）
	OllamaHost  string
	OllamaModel string
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "anistats")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	windowDays, _ := strconv.Atoi(getEnv("SCHEDULE_WINDOW_DAYS", "7"))
	if windowDays <= 0 {
		windowDays = 7
	}
	scoreMin, _ := strconv.ParseFloat(getEnv("STAFF_SCORE_MIN", "8"), 64)
	prefixRatio, _ := strconv.ParseFloat(getEnv("FRANCHISE_PREFIX_RATIO", "0.8"), 64)
	minChars, _ := strconv.Atoi(getEnv("FRANCHISE_MIN_CHARS", "15"))

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5006"),
		SiteName:    getEnv("SITE_NAME", "AniStats"),
		SiteUrl:     getEnv("SITE_URL", "http://localhost:5006"),

		MALBaseURL:   getEnv("MAL_BASE_URL", "https://myanimelist.net"),
		JikanBaseURL: getEnv("JIKAN_BASE_URL", "https://api.jikan.moe/v4"),
		AllowImport:  getEnv("ALLOW_IMPORT", "false") == "true",

		TitleLangs:         splitList(getEnv("TITLE_LANGS", "en")),
		DefaultAirTz:       getEnv("DEFAULT_AIR_TZ", "Asia/Tokyo"),
		ScheduleWindowDays: windowDays,
		ScheduleStatuses:   splitList(getEnv("SCHEDULE_STATUSES", "Watching,Plan to Watch")),
		StaffScoreMin:      scoreMin,
		StaffPositionBlacklist: splitList(getEnv("STAFF_POSITION_BLACKLIST",
			"ADR Director,Producer,Executive Producer,Planning")),
		StaffLanguageWhitelist: splitList(getEnv("STAFF_LANGUAGE_WHITELIST", "Japanese")),
		FranchisePrefixRatio:   prefixRatio,
		FranchiseMinChars:      minChars,
		// 默认种子为人工维护的已知系列；FMA 2003 与 Brotherhood 是两个系列，所以写全名
		KnownFranchises: splitList(getEnv("KNOWN_FRANCHISES",
			"Evangelion,Code Geass,Mushoku Tensei,Fullmetal Alchemist: Brotherhood")),

		OllamaHost:  getEnv("OLLAMA_HOST", ""),
		OllamaModel: getEnv("OLLAMA_MODEL", "nomic-embed-text"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList 解析逗号分隔的配置项，去掉空白项
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
