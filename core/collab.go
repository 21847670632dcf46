package core

import "context"

// 本文件定义核心依赖的外部协作方接口。
//
// 设计原则（依赖倒置）：
//   - 领域层（core）定义接口，基础设施层（store）提供实现
//   - 核心只通过这些窄接口读写外部数据，不关心底层是内存、Redis 还是关系库
//   - 核心必须在零网络依赖下可测：store 提供全套内存实现

// Catalog 是物品目录的只读接口。
type Catalog interface {
	// GetItem 按外部 id 查物品；不存在返回 NOT_FOUND。
	GetItem(ctx context.Context, externalID string) (*Item, error)

	// GetItemByID 按稠密 id 查物品。
	GetItemByID(ctx context.Context, id int64) (*Item, error)

	// AllItemIDs 返回全部稠密物品 id（训练时确定矩阵规模）。
	AllItemIDs(ctx context.Context) ([]int64, error)
}

// UserStore 是用户数据的只读接口。
type UserStore interface {
	// GetUser 按外部 id 查用户；不存在返回 NOT_FOUND。
	GetUser(ctx context.Context, externalID string) (*User, error)

	// OwnedItems 返回用户当前持有的物品 id 集合。
	OwnedItems(ctx context.Context, userID int64) ([]int64, error)
}

// InteractionStore 是交互日志的读写接口。
// 写入在服务视角是 fire-and-forget；读取按时间倒序（最新在前）。
type InteractionStore interface {
	// Append 追加一条交互记录。
	Append(ctx context.Context, rec InteractionRecord) error

	// Recent 返回用户最近 limit 条交互记录，最新在前。
	Recent(ctx context.Context, userID int64, limit int) ([]InteractionRecord, error)
}

// InteractionDump 是交互日志的批量导出接口，供离线重训构建训练对。
// 并非所有实现都支持全量导出（如按用户分 key 的存储），故独立于 InteractionStore。
type InteractionDump interface {
	// All 返回全部用户的全部交互记录。
	All(ctx context.Context) ([]InteractionRecord, error)
}

// GenreIndex 是类目索引的只读接口，供多样性重排使用。
type GenreIndex interface {
	// GenresOf 返回物品所属的类目集合。
	GenresOf(ctx context.Context, itemID int64) ([]GenreID, error)

	// ItemCountForGenre 返回属于指定类目的物品数。
	ItemCountForGenre(ctx context.Context, g GenreID) (int, error)

	// AllGenreIDs 返回全部类目 id。
	AllGenreIDs(ctx context.Context) ([]GenreID, error)
}
