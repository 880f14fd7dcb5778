package utils

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例（分析结果等短期缓存）
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间10分钟，清理间隔10分钟
	Cache = cache.New(10*time.Minute, 10*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheDelete 删除缓存
func CacheDelete(key string) {
	Cache.Delete(key)
}

// CacheDeletePrefix 删除指定前缀的所有缓存项
func CacheDeletePrefix(prefix string) {
	for key := range Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			Cache.Delete(key)
		}
	}
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// APICache 外部接口响应缓存封装（容量受限 + 过期检查）
// Jikan 的制作人员/角色列表接口响应体较大，用 LRU 控制内存占用
type APICache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewAPICache 初始化，size 是最大缓存条数（如 2000），ttl 是数据有效期（如 24小时）
func NewAPICache[T any](size int, ttl time.Duration) *APICache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &APICache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（LRU 中 Add 会自动处理更新）
func (c *APICache[T]) Set(key string, value T) {
	item := CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	}
	c.storage.Add(key, item)
}

// Get 读取（带过期检查）
func (c *APICache[T]) Get(key string) (T, bool) {
	var zero T // 泛型零值
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	// 检查是否过期
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key) // 过期删除
		return zero, false
	}

	return item.Value, true
}

// Delete 删除
func (c *APICache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Clear 清空
func (c *APICache[T]) Clear() {
	c.storage.Purge()
}

// Len 当前条数
func (c *APICache[T]) Len() int {
	return c.storage.Len()
}
