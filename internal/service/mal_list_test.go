package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/anistats/internal/model"
)

func TestCheckSchemaConflict(t *testing.T) {
	// 正常的列表条目不与目录字段重名
	ok := json.RawMessage(`{"anime_id":1,"status":1,"score":7,"anime_title":"Frieren"}`)
	assert.NoError(t, checkSchemaConflict(ok))

	// 上游若加入 "title"/"episodes" 这类字段，必须显式报错
	bad := json.RawMessage(`{"anime_id":1,"title":"Frieren","episodes":28}`)
	err := checkSchemaConflict(bad)
	require.Error(t, err)

	var conflict *SchemaConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ElementsMatch(t, []string{"title", "episodes"}, conflict.Fields)
}

func TestToListEntryNormalizes(t *testing.T) {
	entry := toListEntry(&malListEntry{
		AnimeID:         52991,
		Status:          2,
		Score:           9,
		IsRewatching:    1,
		WatchedEpisodes: 28,
		PriorityString:  "High",
	})

	assert.Equal(t, int64(52991), entry.AnimeID)
	assert.Equal(t, model.StatusCompleted, entry.Status)
	require.NotNil(t, entry.Score)
	assert.Equal(t, 9.0, *entry.Score)
	assert.True(t, entry.Rewatching)
	require.NotNil(t, entry.Priority)
	assert.Equal(t, model.PriorityHigh, *entry.Priority)
}

func TestToListEntryZeroScoreIsNil(t *testing.T) {
	entry := toListEntry(&malListEntry{AnimeID: 1, Status: 6, Score: 0})

	assert.Equal(t, model.StatusPlanToWatch, entry.Status)
	assert.Nil(t, entry.Score)
	assert.Nil(t, entry.Priority)
}
