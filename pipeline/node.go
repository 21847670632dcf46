package pipeline

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// Kind 用于标记 Node 类型，对应一次推荐请求的阶段机
// （SCORE → FILTER* → RANK → RERANK* → TRUNCATE）。
type Kind string

const (
	KindScore    Kind = "score"    // 打分阶段：生成带分数的全量候选
	KindFilter   Kind = "filter"   // 过滤阶段：屏蔽不合约束的候选（置 -Inf，不删除）
	KindRank     Kind = "rank"     // 排序阶段：按分数降序排列
	KindReRank   Kind = "rerank"   // 重排阶段：多样性/日志调序，保持元素多重集不变
	KindTruncate Kind = "truncate" // 截断阶段：取前 n 个
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态，方便打分生成、过滤屏蔽、重排调序。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
