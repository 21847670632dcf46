package contingency

import "github.com/rushteam/recserve/core"

// Fallback 提供兜底候选。实现必须永不阻塞、永不失败。
type Fallback interface {
	Provide(n int) []*core.Item
}

// StaticFallback 是随服务发布的静态兜底清单（预期容量 >= 最大请求条数）。
// Provide 只做切片与标注，无任何外部依赖。
type StaticFallback struct {
	IDs []int64
}

func (f *StaticFallback) Provide(n int) []*core.Item {
	if n <= 0 || n > len(f.IDs) {
		n = len(f.IDs)
	}
	out := make([]*core.Item, 0, n)
	for _, id := range f.IDs[:n] {
		it := core.NewItem(id)
		it.PutLabel("source", core.Label{Value: "fallback", Source: "contingency"})
		out = append(out, it)
	}
	return out
}
