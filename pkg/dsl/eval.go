// Package dsl 提供基于 CEL (Common Expression Language) 的候选谓词求值，
// 供配置驱动的表达式过滤器使用。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recserve/core"
)

var (
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 惰性初始化全局 CEL 环境（线程安全，可复用）。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Predicate 是一条编译后的布尔表达式，编译一次、对每个候选重复求值。
//
// 表达式语法（CEL 标准语法）：
//   - item.score > 0.7
//   - label.masked != null
//   - item.meta.tier == "premium" && rctx.locale == "us"
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式视为恒真。
func Compile(expr string) (*Predicate, error) {
	p := &Predicate{expr: expr}
	if expr == "" {
		return p, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	p.prg = prg
	return p, nil
}

// Eval 对一个候选求值，返回布尔结果。
// 访问不存在的 key 会报错；表达式中应使用 x != null 检查存在性。
func (p *Predicate) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 把候选与请求上下文展开为 CEL 输入。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
	}

	itemMap := map[string]any{
		"id":    item.ID,
		"score": item.Score,
		"meta":  item.Meta,
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		rctxMap["user_external_id"] = rctx.UserExternalID
		rctxMap["n"] = rctx.N
		rctxMap["locale"] = rctx.Locale()
		rctxMap["params"] = rctx.Params
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
