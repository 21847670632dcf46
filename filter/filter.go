// Package filter 实现候选屏蔽：不删除候选，而是把分数压到 -Inf，
// 让其沉到后续降序排序的末尾，保持候选数组长度对下游不变。
package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// Filter 判断一个候选是否应被屏蔽。
// 返回 true 表示屏蔽（分数置 -Inf），false 表示保留。实现必须是纯函数式的：
// 不修改 item，不依赖调用顺序。
type Filter interface {
	// Name 返回过滤器名称（记入屏蔽 Label，便于 explain）。
	Name() string

	// ShouldMask 判断 item 是否应被屏蔽。
	ShouldMask(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
