package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/dsl"
)

// ExprFilter 按 CEL 表达式屏蔽候选：表达式求值为 true 的候选被屏蔽。
// 表达式在构造时编译一次，逐候选求值。
//
// 示例：
//
//	f, _ := filter.NewExprFilter(`item.meta.tier == "premium" && rctx.locale != "us"`)
type ExprFilter struct {
	pred *dsl.Predicate
}

// NewExprFilter 编译表达式并构造过滤器；表达式为空或非法时返回错误
//（启动期失败，不进入请求路径）。空表达式会屏蔽一切，必然是配置错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	if expr == "" {
		return nil, fmt.Errorf("filter: empty expression")
	}
	pred, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{pred: pred}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldMask(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	return f.pred.Eval(item, rctx)
}
