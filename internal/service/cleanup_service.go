package service

import (
	"context"
	"log"
	"time"

	"github.com/user/anistats/internal/repository"
)

// CleanupService 后台维护服务
// 定期清理长期未登录用户的列表快照，并刷新过期的目录条目
type CleanupService struct {
	userListRepo *repository.UserListRepository
	catalog      *CatalogService
	interval     time.Duration
	stop         chan struct{}
}

// NewCleanupService 创建维护服务
func NewCleanupService(userListRepo *repository.UserListRepository, catalog *CatalogService) *CleanupService {
	return &CleanupService{
		userListRepo: userListRepo,
		catalog:      catalog,
		interval:     24 * time.Hour,
		stop:         make(chan struct{}),
	}
}

// Start 启动后台维护循环
func (s *CleanupService) Start() {
	go func() {
		// 启动后先跑一轮，再按固定间隔执行
		s.runOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止维护循环
func (s *CleanupService) Stop() {
	close(s.stop)
}

func (s *CleanupService) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	deleted, err := s.userListRepo.DeleteStale(90)
	if err != nil {
		log.Printf("[Cleanup] 清理过期快照失败: %v", err)
	} else if deleted > 0 {
		log.Printf("[Cleanup] 清理过期快照 %d 条", deleted)
	}

	s.catalog.RefreshStale(ctx, 7*24*time.Hour, 50)
}
