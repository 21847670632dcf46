package core

import "time"

// OwnedItem 是用户与物品的持有关系，带获得/弃置时间。
// DroppedAt 为 nil 表示当前仍持有。
type OwnedItem struct {
	ItemID     int64
	AcquiredAt time.Time
	DroppedAt  *time.Time
}

// User 是用户实体。
// ID 是稠密整数 id（因子矩阵行号 = ID-1）；ExternalID 是对外的不透明字符串 id。
type User struct {
	ID         int64
	ExternalID string
	Locale     string // 地域/语言标识，供地域过滤使用
	Owned      []OwnedItem
}

// OwnedItemIDs 返回当前仍持有（未弃置）的物品 id 集合。
func (u *User) OwnedItemIDs() []int64 {
	if u == nil {
		return nil
	}
	ids := make([]int64, 0, len(u.Owned))
	for _, o := range u.Owned {
		if o.DroppedAt == nil {
			ids = append(ids, o.ItemID)
		}
	}
	return ids
}

// Owns 判断用户当前是否持有指定物品。
func (u *User) Owns(itemID int64) bool {
	if u == nil {
		return false
	}
	for _, o := range u.Owned {
		if o.ItemID == itemID && o.DroppedAt == nil {
			return true
		}
	}
	return false
}
