package core

// GenreID 是类目/题材的稠密整数标识。
type GenreID int64

// Item 是推荐链路中的统一承载结构：既是 Catalog 的目录实体，也是
// Pipeline 中流转的候选。
//
// 两种形态：
//   - 目录实体：ID / ExternalID / Genres / Regions 齐全（由 Catalog 返回），
//     创建后不可变，Genres 只增不减
//   - 链路候选：只带 ID 与 Score（由打分节点生成），Labels 记录各阶段处理痕迹
//
// ID 是稠密整数 id（由目录分配、连续），用作因子矩阵的行索引（行号 = ID-1）；
// ExternalID 是对外暴露的不透明字符串 id。
type Item struct {
	ID         int64
	ExternalID string
	Genres     []GenreID
	Regions    []string // 可投放地域；为空表示不限

	Score  float64
	Meta   map[string]any
	Labels map[string]Label
}

// NewItem 创建一个链路候选（只带稠密 id，其余字段由各节点按需填充）。
func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// HasGenre 判断 item 是否属于指定类目。
func (it *Item) HasGenre(g GenreID) bool {
	for _, x := range it.Genres {
		if x == g {
			return true
		}
	}
	return false
}
