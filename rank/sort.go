// Package rank 实现候选排序节点。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// SortNode 按分数降序排列候选；分数相同按物品 id 升序。
// 平分时的 id 升序是显式契约（确定性、可测试），不依赖排序稳定性。
// 被过滤器屏蔽的候选（-Inf）自然沉底。
type SortNode struct{}

func (n *SortNode) Name() string        { return "rank.sort" }
func (n *SortNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
