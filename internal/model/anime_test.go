package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTitleFallback(t *testing.T) {
	anime := &Anime{
		TitleDefault: "Sousou no Frieren",
		TitleEn:      "Frieren: Beyond Journey's End",
		TitleJa:      "葬送のフリーレン",
	}

	assert.Equal(t, "Frieren: Beyond Journey's End", anime.ResolveTitle([]string{"en"}))
	assert.Equal(t, "葬送のフリーレン", anime.ResolveTitle([]string{"ja", "en"}))
	// 地区后缀只取主语言
	assert.Equal(t, "Frieren: Beyond Journey's End", anime.ResolveTitle([]string{"en-US"}))
	// 没有任何偏好命中时回退到默认标题
	assert.Equal(t, "Sousou no Frieren", anime.ResolveTitle([]string{"fr"}))

	noEn := &Anime{TitleDefault: "Mono"}
	assert.Equal(t, "Mono", noEn.ResolveTitle([]string{"en", "ja"}))
}

func TestWeekdayIndex(t *testing.T) {
	idx, ok := WeekdayIndex("Monday")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	// MAL 使用复数形式
	idx, ok = WeekdayIndex("Saturdays")
	assert.True(t, ok)
	assert.Equal(t, 5, idx)

	idx, ok = WeekdayIndex("sunday")
	assert.True(t, ok)
	assert.Equal(t, 6, idx)

	_, ok = WeekdayIndex("Someday")
	assert.False(t, ok)
}

func TestUserStatusFromCode(t *testing.T) {
	s, ok := UserStatusFromCode(6)
	assert.True(t, ok)
	assert.Equal(t, StatusPlanToWatch, s)

	_, ok = UserStatusFromCode(5)
	assert.False(t, ok)
}
