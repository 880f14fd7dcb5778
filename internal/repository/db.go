package repository

import (
	"fmt"

	"github.com/user/anistats/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	// 向量扩展（相似番剧查询依赖）
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("启用 pgvector 扩展失败: %w", err)
	}

	// 自动迁移表结构
	if err := db.AutoMigrate(&model.User{}, &model.Anime{}, &model.UserListItem{}); err != nil {
		return nil, fmt.Errorf("表结构迁移失败: %w", err)
	}

	return db, nil
}

// Repositories 仓库集合
type Repositories struct {
	DB       *gorm.DB
	User     *UserRepository
	Anime    *AnimeRepository
	UserList *UserListRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		User:     NewUserRepository(db),
		Anime:    NewAnimeRepository(db),
		UserList: NewUserListRepository(db),
	}
}
