package core

import "sync"

// RecommendContext 承载单次推荐请求的用户与请求信息，贯穿整个 Pipeline 透传。
// 每次请求独立分配，节点只读 User，可写标签；User 一经解析不再变更。
//
// 标签读写必须走 PutLabel / GetLabel：超时后被放弃的任务可能仍在后台
// 写标签（best-effort 取消），与调用方并发，内部互斥锁保证安全。
type RecommendContext struct {
	// UserExternalID 是请求方传入的用户外部 id。
	UserExternalID string

	// User 是解析后的用户实体（含持有物品集合）；冷启动场景下可能为 nil。
	User *User

	// N 是本次请求期望返回的条数。
	N int

	// Params 是请求级上下文参数（locale、scene 等）。
	Params map[string]any

	mu     sync.Mutex
	labels map[string]Label
}

// PutLabel 写入请求级 Label，并发安全。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	if rctx.labels == nil {
		rctx.labels = make(map[string]Label)
	}
	if old, ok := rctx.labels[key]; ok {
		rctx.labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.labels[key] = lbl
}

// GetLabel 获取请求级 Label，并发安全。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	lbl, ok := rctx.labels[key]
	return lbl, ok
}

// Locale 返回请求的地域标识：优先 Params["locale"]，否则取 User.Locale。
func (rctx *RecommendContext) Locale() string {
	if rctx == nil {
		return ""
	}
	if rctx.Params != nil {
		if v, ok := rctx.Params["locale"].(string); ok && v != "" {
			return v
		}
	}
	if rctx.User != nil {
		return rctx.User.Locale
	}
	return ""
}
