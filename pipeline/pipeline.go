// Package pipeline 把一次推荐请求拆成可组合的 Node 链：
// 打分 → 过滤 → 排序 → 重排 → 截断。
package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
)

// Pipeline 是有序 Node 链。节点失败或不变量被破坏时整体返回错误，
// 由外层 contingency 边界转换为兜底结果。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各节点。
//
// 不变量校验：filter / rerank 节点不得增删候选（filter 以 -Inf 屏蔽而非删除，
// rerank 只能调序）。长度变化视为节点实现错误，立即中断。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeTimeout,
				fmt.Sprintf("pipeline: cancelled before %s: %v", node.Name(), err))
		}

		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline: node %s: %w", node.Name(), err)
		}

		switch node.Kind() {
		case KindFilter, KindReRank:
			if len(next) != len(cur) {
				return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInternalError,
					fmt.Sprintf("pipeline: node %s changed candidate count %d -> %d",
						node.Name(), len(cur), len(next)))
			}
		}
		cur = next
	}
	return cur, nil
}
