// Package cache 提供一个读多写少的通用 key-value 缓存：
// 按条数与时长淘汰（插入序，不做 LRU 提升），并保证同 key 的 producer
// 并发去重（compute-once）。
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache 是进程内缓存实例，显式构造、显式注入，不使用任何全局状态。
//
// 淘汰语义：
//   - clean 在每次 ComputeIfAbsent / Set 开头惰性执行，没有后台清扫协程
//   - 先按 maxAge 淘汰过期条目，再按插入序淘汰最旧条目直至 <= maxEntries
//   - 读（Get）不改变淘汰顺序：插入序淘汰是刻意的设计选择，不是 LRU 的缺失
//
// 并发语义：
//   - 同一 key 的并发 ComputeIfAbsent 只有一个 producer 在飞行中，
//     其余调用方同步等待其结果（singleflight）
//   - producer 失败不留任何条目（无负缓存）
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // key 的插入顺序，最旧在前

	maxEntries int
	maxAge     time.Duration

	group singleflight.Group
}

type entry struct {
	value      any
	insertedAt time.Time
}

// New 创建缓存。maxEntries <= 0 表示不限条数；maxAge <= 0 表示不限时长。
func New(maxEntries int, maxAge time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// Get 读取 key 对应的值；不存在返回 (nil, false)。
// Get 不触发 clean，也不影响淘汰顺序。
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set 写入 key-value；同 key 覆盖写（原条目连同其插入时间一并替换）。
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanLocked()
	c.storeLocked(key, value)
}

// ComputeIfAbsent 读取 key；缺失时调用 producer 计算并写入。
// 同一 key 的并发调用至多触发一次 producer 执行，后来者等待在飞结果。
// producer 返回错误时不写入任何条目，错误原样返回给所有等待方。
func (c *Cache) ComputeIfAbsent(key string, producer func() (any, error)) (any, error) {
	c.mu.Lock()
	c.cleanLocked()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// 双检：等待飞行结果的调用方进到这里时，值可能已写入。
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return e.value, nil
		}
		c.mu.Unlock()

		value, err := producer()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.storeLocked(key, value)
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Remove 显式删除若干 key，值与其全部簿记原子移除。
func (c *Cache) Remove(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.deleteLocked(k)
	}
}

// Len 返回当前条目数。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// storeLocked 写入条目并维护插入序；同 key 覆盖时重置插入位置。
// 写入后立即按条数上界淘汰，保证任意时刻条目数 <= maxEntries。
func (c *Cache) storeLocked(key string, value any) {
	if _, ok := c.entries[key]; ok {
		c.removeFromOrderLocked(key)
	}
	c.entries[key] = &entry{value: value, insertedAt: time.Now()}
	c.order = append(c.order, key)
	c.trimLocked()
}

// cleanLocked 先淘汰超龄条目，再按插入序淘汰至条数上界。
func (c *Cache) cleanLocked() {
	if c.maxAge > 0 {
		cutoff := time.Now().Add(-c.maxAge)
		kept := c.order[:0]
		for _, k := range c.order {
			e, ok := c.entries[k]
			if !ok {
				continue
			}
			if e.insertedAt.Before(cutoff) {
				delete(c.entries, k)
				continue
			}
			kept = append(kept, k)
		}
		c.order = kept
	}
	c.trimLocked()
}

// trimLocked 按插入序淘汰最旧条目直至条数 <= maxEntries。
func (c *Cache) trimLocked() {
	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *Cache) deleteLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	c.removeFromOrderLocked(key)
}

func (c *Cache) removeFromOrderLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
