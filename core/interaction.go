package core

import "time"

// InteractionType 是交互事件类型。
type InteractionType string

const (
	InteractionRecommend InteractionType = "recommend" // 曝光：物品被推荐给用户
	InteractionClick     InteractionType = "click"     // 点击
	InteractionAcquire   InteractionType = "acquire"   // 获得/安装
	InteractionDrop      InteractionType = "drop"      // 弃置/卸载
)

// InteractionRecord 是一条交互日志，追加写入、按时间倒序读取。
// Rank 仅对 recommend 类型有意义（物品在当次推荐中的位次），其余类型为 -1。
type InteractionRecord struct {
	UserID    int64           `json:"user_id"`
	ItemID    int64           `json:"item_id"`
	Type      InteractionType `json:"type"`
	Rank      int             `json:"rank"`
	Timestamp time.Time       `json:"timestamp"`
}
