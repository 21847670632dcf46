package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// RegionFilter 屏蔽不在用户地域可投放范围内的物品。
// 物品地域信息从 Catalog 回源补全（链路候选只带 id 和分数）。
// 物品未限定地域、或请求无法确定地域时不屏蔽。
type RegionFilter struct {
	Catalog core.Catalog
}

func (f *RegionFilter) Name() string { return "filter.region" }

func (f *RegionFilter) ShouldMask(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || f.Catalog == nil {
		return false, nil
	}
	locale := rctx.Locale()
	if locale == "" {
		return false, nil
	}

	regions := item.Regions
	if regions == nil {
		full, err := f.Catalog.GetItemByID(ctx, item.ID)
		if err != nil {
			return false, err
		}
		regions = full.Regions
	}
	if len(regions) == 0 {
		return false, nil
	}
	for _, r := range regions {
		if r == locale {
			return false, nil
		}
	}
	return true, nil
}
