package repository

import (
	"time"

	"github.com/user/anistats/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserListRepository struct {
	db *gorm.DB
}

func NewUserListRepository(db *gorm.DB) *UserListRepository {
	return &UserListRepository{db: db}
}

// Replace 整体替换用户的列表快照（导入即覆盖）
func (r *UserListRepository) Replace(userID int, entries []model.UserListEntry) error {
	now := time.Now()
	items := make([]*model.UserListItem, 0, len(entries))
	for _, e := range entries {
		priority := ""
		if e.Priority != nil {
			priority = string(*e.Priority)
		}
		items = append(items, &model.UserListItem{
			UserID:          userID,
			AnimeID:         e.AnimeID,
			Status:          e.Status,
			Score:           e.Score,
			WatchedEpisodes: e.WatchedEpisodes,
			Rewatching:      e.Rewatching,
			Priority:        priority,
			UpdatedAt:       now,
		})
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserListItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "anime_id"}},
			UpdateAll: true,
		}).CreateInBatches(items, 200).Error
	})
}

// ListByUser 读取用户的列表快照
func (r *UserListRepository) ListByUser(userID int) ([]model.UserListEntry, error) {
	var items []*model.UserListItem
	err := r.db.Where("user_id = ?", userID).Order("anime_id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}

	entries := make([]model.UserListEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, model.UserListEntry{
			AnimeID:         it.AnimeID,
			Status:          it.Status,
			Score:           it.Score,
			WatchedEpisodes: it.WatchedEpisodes,
			Rewatching:      it.Rewatching,
			Priority:        model.ParsePriority(it.Priority),
		})
	}
	return entries, nil
}

// CountByUser 统计快照条数
func (r *UserListRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.UserListItem{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// DeleteStale 清理超过 days 天未更新的快照，返回清理条数
func (r *UserListRepository) DeleteStale(days int) (int64, error) {
	res := r.db.Where("updated_at < ?", time.Now().AddDate(0, 0, -days)).Delete(&model.UserListItem{})
	return res.RowsAffected, res.Error
}
