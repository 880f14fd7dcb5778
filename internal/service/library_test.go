package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/model"
)

func TestJoinKeepsListOrderAndDropsMissing(t *testing.T) {
	entries := []*model.UserListEntry{
		{AnimeID: 2, Status: model.StatusWatching, Score: fptr(8)},
		{AnimeID: 99, Status: model.StatusCompleted}, // 目录中不存在
		{AnimeID: 1, Status: model.StatusCompleted},
	}
	catalog := map[int64]*model.Anime{
		1: {MALID: 1, TitleDefault: "First", TitleEn: "First EN"},
		2: {MALID: 2, TitleDefault: "Second"},
	}

	records := Join(entries, catalog, []string{"en"})
	require.Len(t, records, 2)

	// 保持列表原始顺序
	assert.Equal(t, int64(2), records[0].MALID)
	assert.Equal(t, int64(1), records[1].MALID)

	// 标题按语言偏好解析，英文缺失时回退默认标题
	assert.Equal(t, "Second", records[0].Title)
	assert.Equal(t, "First EN", records[1].Title)

	assert.Equal(t, model.StatusWatching, records[0].UserStatus)
	require.NotNil(t, records[0].UserScore)
	assert.Equal(t, 8.0, *records[0].UserScore)
}
