// Package store 提供协作方接口（Catalog / UserStore / InteractionStore /
// GenreIndex / ModelStore）的内存与 Redis 实现。
// 内存实现用于测试/开发/原型：核心在零网络依赖下即可完整运行。
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

// MemoryCatalog 是内存物品目录，同时实现 core.Catalog 与 core.GenreIndex
//（类目索引直接从目录数据派生）。
type MemoryCatalog struct {
	mu    sync.RWMutex
	byExt map[string]*core.Item
	byID  map[int64]*core.Item
	ids   []int64

	genreCount map[core.GenreID]int
}

func NewMemoryCatalog(items ...*core.Item) *MemoryCatalog {
	c := &MemoryCatalog{
		byExt:      make(map[string]*core.Item),
		byID:       make(map[int64]*core.Item),
		genreCount: make(map[core.GenreID]int),
	}
	for _, it := range items {
		c.Add(it)
	}
	return c
}

// Add 注册一个目录物品。物品创建后不可变；重复 id 覆盖旧条目。
func (c *MemoryCatalog) Add(it *core.Item) {
	if it == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[it.ID]; !ok {
		c.ids = append(c.ids, it.ID)
	}
	c.byID[it.ID] = it
	if it.ExternalID != "" {
		c.byExt[it.ExternalID] = it
	}
	for _, g := range it.Genres {
		c.genreCount[g]++
	}
}

func (c *MemoryCatalog) GetItem(_ context.Context, externalID string) (*core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.byExt[externalID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
			fmt.Sprintf("store: item %q not found", externalID))
	}
	return it, nil
}

func (c *MemoryCatalog) GetItemByID(_ context.Context, id int64) (*core.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.byID[id]
	if !ok {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
			fmt.Sprintf("store: item id %d not found", id))
	}
	return it, nil
}

func (c *MemoryCatalog) AllItemIDs(_ context.Context) ([]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int64(nil), c.ids...), nil
}

// GenresOf 实现 core.GenreIndex。
func (c *MemoryCatalog) GenresOf(_ context.Context, itemID int64) ([]core.GenreID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.byID[itemID]
	if !ok {
		return nil, nil
	}
	return it.Genres, nil
}

// ItemCountForGenre 实现 core.GenreIndex。
func (c *MemoryCatalog) ItemCountForGenre(_ context.Context, g core.GenreID) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genreCount[g], nil
}

// AllGenreIDs 实现 core.GenreIndex。
func (c *MemoryCatalog) AllGenreIDs(_ context.Context) ([]core.GenreID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.GenreID, 0, len(c.genreCount))
	for g := range c.genreCount {
		out = append(out, g)
	}
	return out, nil
}

var (
	_ core.Catalog    = (*MemoryCatalog)(nil)
	_ core.GenreIndex = (*MemoryCatalog)(nil)
)

// MemoryUserStore 是内存用户存储。
type MemoryUserStore struct {
	mu    sync.RWMutex
	byExt map[string]*core.User
	byID  map[int64]*core.User
}

func NewMemoryUserStore(users ...*core.User) *MemoryUserStore {
	s := &MemoryUserStore{
		byExt: make(map[string]*core.User),
		byID:  make(map[int64]*core.User),
	}
	for _, u := range users {
		s.Add(u)
	}
	return s
}

func (s *MemoryUserStore) Add(u *core.User) {
	if u == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = u
	if u.ExternalID != "" {
		s.byExt[u.ExternalID] = u
	}
}

func (s *MemoryUserStore) GetUser(_ context.Context, externalID string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byExt[externalID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
			fmt.Sprintf("store: user %q not found", externalID))
	}
	return u, nil
}

func (s *MemoryUserStore) OwnedItems(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
			fmt.Sprintf("store: user id %d not found", userID))
	}
	return u.OwnedItemIDs(), nil
}

var _ core.UserStore = (*MemoryUserStore)(nil)

// MemoryInteractionStore 是内存交互日志：追加写、按时间倒序读。
type MemoryInteractionStore struct {
	mu     sync.RWMutex
	byUser map[int64][]core.InteractionRecord
}

func NewMemoryInteractionStore() *MemoryInteractionStore {
	return &MemoryInteractionStore{byUser: make(map[int64][]core.InteractionRecord)}
}

func (s *MemoryInteractionStore) Append(_ context.Context, rec core.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec)
	return nil
}

func (s *MemoryInteractionStore) Recent(_ context.Context, userID int64, limit int) ([]core.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byUser[userID]
	if limit <= 0 || limit > len(recs) {
		limit = len(recs)
	}
	out := make([]core.InteractionRecord, 0, limit)
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

// All 返回全部用户的全部交互记录（供重训读取训练对）。
func (s *MemoryInteractionStore) All(_ context.Context) ([]core.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.InteractionRecord
	for _, recs := range s.byUser {
		out = append(out, recs...)
	}
	return out, nil
}

var _ core.InteractionStore = (*MemoryInteractionStore)(nil)

// MemoryModelStore 是内存模型存储：保存最近一次发布的模型引用。
// 模型本身不可变，持有引用即是快照。
type MemoryModelStore struct {
	mu     sync.RWMutex
	latest *model.FactorModel
}

func NewMemoryModelStore() *MemoryModelStore {
	return &MemoryModelStore{}
}

func (s *MemoryModelStore) Save(_ context.Context, m *model.FactorModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = m
	return nil
}

func (s *MemoryModelStore) LoadLatest(_ context.Context) (*model.FactorModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, model.ErrModelUnavailable
	}
	return s.latest, nil
}

var _ model.Store = (*MemoryModelStore)(nil)
