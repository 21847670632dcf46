// Package recserve 是一个延迟受限的推荐服务引擎（Recommendation Serving）。
//
// 设计要点：
// - Pipeline-first: 一次请求拆成可组合的 Node 链（Score → Filter → Rank → ReRank → Truncate）
// - 时限优先: contingency 边界保证端到端延迟上界，超时/失败降级为静态兜底清单
// - 模型只读: ALS 离线训练，整体原子发布；冷启动用户走在线闭式解或流行度备选
package recserve

import "github.com/rushteam/recserve/pipeline"

// 轻量 facade：便于用户直接 import "recserve" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindScore    = pipeline.KindScore
	KindFilter   = pipeline.KindFilter
	KindRank     = pipeline.KindRank
	KindReRank   = pipeline.KindReRank
	KindTruncate = pipeline.KindTruncate
)
