// Package rerank 实现排序结果上的重排与截断节点。
// 重排节点只调序：输出与输入的元素多重集、长度严格一致。
package rerank

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// TruncateNode 截取前 N 个候选，作为链路末端节点使用。
// N <= 0 时取请求的 rctx.N；仍无效则不截断。
type TruncateNode struct {
	N int
}

func (n *TruncateNode) Name() string        { return "rerank.truncate" }
func (n *TruncateNode) Kind() pipeline.Kind { return pipeline.KindTruncate }

func (n *TruncateNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.N
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
