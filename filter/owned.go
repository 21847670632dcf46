package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// OwnedFilter 屏蔽用户已持有的物品。
// 持有集合取自 rctx.User（服务在进入 Pipeline 前已解析）；User 缺失时不屏蔽。
type OwnedFilter struct{}

func (f *OwnedFilter) Name() string { return "filter.owned" }

func (f *OwnedFilter) ShouldMask(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.User == nil {
		return false, nil
	}
	return rctx.User.Owns(item.ID), nil
}
