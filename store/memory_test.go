package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

func TestMemoryCatalog_Lookups(t *testing.T) {
	c := NewMemoryCatalog(
		&core.Item{ID: 1, ExternalID: "x", Genres: []core.GenreID{1, 2}},
		&core.Item{ID: 2, ExternalID: "y", Genres: []core.GenreID{2}},
	)
	ctx := context.Background()

	it, err := c.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), it.ID)

	_, err = c.GetItem(ctx, "missing")
	assert.True(t, core.IsNotFound(err))

	_, err = c.GetItemByID(ctx, 99)
	assert.True(t, core.IsNotFound(err))

	ids, err := c.AllItemIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	n, err := c.ItemCountForGenre(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryInteractionStore_RecentNewestFirst(t *testing.T) {
	s := NewMemoryInteractionStore()
	ctx := context.Background()
	base := time.Now()
	for i := int64(1); i <= 4; i++ {
		require.NoError(t, s.Append(ctx, core.InteractionRecord{
			UserID:    7,
			ItemID:    i,
			Type:      core.InteractionRecommend,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recs, err := s.Recent(ctx, 7, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(4), recs[0].ItemID, "newest record first")
	assert.Equal(t, int64(3), recs[1].ItemID)

	// limit <= 0 返回全部
	all, err := s.Recent(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := s.Recent(ctx, 8, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryModelStore(t *testing.T) {
	s := NewMemoryModelStore()
	ctx := context.Background()

	_, err := s.LoadLatest(ctx)
	require.Error(t, err)
	assert.True(t, core.IsModelUnavailable(err))

	trainer := &model.Trainer{Opts: model.Options{Factors: 2, Iterations: 1}, Seed: 1}
	m, err := trainer.Fit([]model.Pair{{User: 0, Item: 0}}, 1, 1)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, m))
	got, err := s.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Same(t, m, got)
}
