package filter

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/store"
)

func timePtr() *time.Time {
	now := time.Now()
	return &now
}

func candidates(scores ...float64) []*core.Item {
	items := make([]*core.Item, len(scores))
	for i, s := range scores {
		it := core.NewItem(int64(i) + 1)
		it.Score = s
		items[i] = it
	}
	return items
}

func TestNode_MasksOwnedWithoutRemoving(t *testing.T) {
	user := &core.User{ID: 1, Owned: []core.OwnedItem{{ItemID: 3}}}
	rctx := &core.RecommendContext{User: user, N: 4}
	items := candidates(5, 2, 9, 1)

	node := &Node{Filters: []Filter{&OwnedFilter{}}}
	out, err := node.Process(context.Background(), rctx, items)
	require.NoError(t, err)

	// 屏蔽而非删除：长度不变，命中项分数置 -Inf
	require.Len(t, out, 4)
	assert.Equal(t, 5.0, out[0].Score)
	assert.Equal(t, 2.0, out[1].Score)
	assert.True(t, math.IsInf(out[2].Score, -1), "owned item must be masked to -Inf")
	assert.Equal(t, 1.0, out[3].Score)

	lbl, ok := out[2].Labels["masked"]
	require.True(t, ok)
	assert.Equal(t, "filter.owned", lbl.Source)
}

func TestOwnedFilter_DroppedItemsNotMasked(t *testing.T) {
	dropped := timePtr()
	user := &core.User{ID: 1, Owned: []core.OwnedItem{
		{ItemID: 1},
		{ItemID: 2, DroppedAt: dropped},
	}}
	rctx := &core.RecommendContext{User: user}

	f := &OwnedFilter{}
	masked, err := f.ShouldMask(context.Background(), rctx, core.NewItem(1))
	require.NoError(t, err)
	assert.True(t, masked)

	masked, err = f.ShouldMask(context.Background(), rctx, core.NewItem(2))
	require.NoError(t, err)
	assert.False(t, masked, "dropped items are no longer owned")
}

func TestOwnedFilter_NoUser(t *testing.T) {
	f := &OwnedFilter{}
	masked, err := f.ShouldMask(context.Background(), &core.RecommendContext{}, core.NewItem(1))
	require.NoError(t, err)
	assert.False(t, masked)
}

func TestRegionFilter(t *testing.T) {
	catalog := store.NewMemoryCatalog(
		&core.Item{ID: 1, ExternalID: "x", Regions: []string{"us", "jp"}},
		&core.Item{ID: 2, ExternalID: "y"}, // 不限地域
	)
	f := &RegionFilter{Catalog: catalog}

	tests := []struct {
		name   string
		locale string
		itemID int64
		want   bool
	}{
		{"locale in item regions", "us", 1, false},
		{"locale outside item regions", "de", 1, true},
		{"item without regions never masked", "de", 2, false},
		{"empty locale never masked", "", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := &core.RecommendContext{User: &core.User{ID: 1, Locale: tt.locale}}
			masked, err := f.ShouldMask(context.Background(), rctx, core.NewItem(tt.itemID))
			require.NoError(t, err)
			assert.Equal(t, tt.want, masked)
		})
	}
}

type failingFilter struct{}

func (f *failingFilter) Name() string { return "filter.failing" }
func (f *failingFilter) ShouldMask(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("backend down")
}

func TestNode_FilterErrorIsSkipped(t *testing.T) {
	rctx := &core.RecommendContext{User: &core.User{ID: 1, Owned: []core.OwnedItem{{ItemID: 2}}}}
	items := candidates(3, 7)

	// 出错的过滤器被跳过，后续过滤器继续生效
	node := &Node{Filters: []Filter{&failingFilter{}, &OwnedFilter{}}}
	out, err := node.Process(context.Background(), rctx, items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 3.0, out[0].Score)
	assert.True(t, math.IsInf(out[1].Score, -1))
}

func TestNewExprFilter(t *testing.T) {
	_, err := NewExprFilter("")
	assert.Error(t, err, "empty expression must be rejected at build time")

	_, err = NewExprFilter("item.score >")
	assert.Error(t, err, "syntax errors must fail at build time")

	f, err := NewExprFilter(`item.score > 0.5`)
	require.NoError(t, err)

	low := core.NewItem(1)
	low.Score = 0.2
	high := core.NewItem(2)
	high.Score = 0.9

	masked, err := f.ShouldMask(context.Background(), nil, low)
	require.NoError(t, err)
	assert.False(t, masked)

	masked, err = f.ShouldMask(context.Background(), nil, high)
	require.NoError(t, err)
	assert.True(t, masked)
}
