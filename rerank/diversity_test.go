package rerank

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/store"
)

func genreCatalog(genres map[int64][]core.GenreID) *store.MemoryCatalog {
	c := store.NewMemoryCatalog()
	for id, gs := range genres {
		c.Add(&core.Item{ID: id, Genres: gs})
	}
	return c
}

func TestDiversityNode_SingleGenreUnchanged(t *testing.T) {
	catalog := genreCatalog(map[int64][]core.GenreID{
		1: {7}, 2: {7}, 3: {7},
	})
	node := &DiversityNode{Genres: catalog}
	rctx := &core.RecommendContext{N: 3}
	in := candidates(1, 2, 3)

	out, err := node.Process(context.Background(), rctx, in)
	require.NoError(t, err)

	// 类目同质时模型没有判别力，原序返回
	assert.Equal(t, []int64{1, 2, 3}, idsOf(out))
}

func TestDiversityNode_PullsUpUnderrepresentedGenre(t *testing.T) {
	// 前三个候选同属类目 1，末位候选是唯一的类目 2：
	// 覆盖度主导下，第二个位置应让给类目 2
	catalog := genreCatalog(map[int64][]core.GenreID{
		1: {1}, 2: {1}, 3: {1}, 4: {2},
	})
	node := &DiversityNode{Genres: catalog}
	rctx := &core.RecommendContext{N: 2}
	in := candidates(1, 2, 3, 4)

	out, err := node.Process(context.Background(), rctx, in)
	require.NoError(t, err)

	require.Len(t, out, 4)
	assert.Equal(t, int64(1), out[0].ID, "top ranked candidate keeps the first slot")
	assert.Equal(t, int64(4), out[1].ID, "missing genre fills the second slot")
	// 未选中的候选按原顺序补在尾部
	assert.Equal(t, []int64{2, 3}, idsOf(out[2:]))
}

func TestDiversityNode_PreservesMultiset(t *testing.T) {
	catalog := genreCatalog(map[int64][]core.GenreID{
		1: {1}, 2: {2}, 3: {3}, 4: {1, 2}, 5: {2, 3}, 6: {1},
	})
	node := &DiversityNode{Genres: catalog}
	rctx := &core.RecommendContext{N: 6}
	in := candidates(6, 5, 4, 3, 2, 1)

	out, err := node.Process(context.Background(), rctx, in)
	require.NoError(t, err)

	require.Len(t, out, 6)
	got := idsOf(out)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, got, "rerank must only reorder")
}

func TestDiversityNode_NoGenreIndexPassesThrough(t *testing.T) {
	node := &DiversityNode{}
	in := candidates(1, 2, 3)

	out, err := node.Process(context.Background(), &core.RecommendContext{N: 3}, in)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, idsOf(out))
}
