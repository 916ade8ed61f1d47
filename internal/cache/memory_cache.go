package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// MemoryReportCache 进程内报表缓存（Redis 未启用时使用）
//
// 超过容量时淘汰最久未访问的条目。
type MemoryReportCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // 头部为最近访问
	now      func() time.Time
}

// NewMemoryReportCache 创建进程内缓存，capacity<=0 时取 1024
func NewMemoryReportCache(capacity int) *MemoryReportCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryReportCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get 读取缓存
func (c *MemoryReportCache) Get(_ context.Context, key string, dst any) (bool, error) {
	start := time.Now()
	c.mu.Lock()
	elem, ok := c.items[key]
	if ok {
		entry := elem.Value.(*memoryEntry)
		if c.now().After(entry.expiresAt) {
			c.removeElement(elem)
			ok = false
		} else {
			c.order.MoveToFront(elem)
		}
	}
	var data []byte
	if ok {
		data = elem.Value.(*memoryEntry).data
	}
	c.mu.Unlock()

	if !ok {
		recordLookup(false, start)
		return false, nil
	}
	if err := decode(data, dst); err != nil {
		recordLookup(false, start)
		return false, err
	}
	recordLookup(true, start)
	return true, nil
}

// Set 写入缓存
func (c *MemoryReportCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	start := time.Now()
	defer recordStore(start)

	data, err := encode(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.data = data
		entry.expiresAt = c.now().Add(ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	for c.order.Len() >= c.capacity {
		c.removeElement(c.order.Back())
	}
	c.items[key] = c.order.PushFront(&memoryEntry{key: key, data: data, expiresAt: c.now().Add(ttl)})
	return nil
}

// Delete 删除缓存
func (c *MemoryReportCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if elem, ok := c.items[key]; ok {
			c.removeElement(elem)
		}
	}
	return nil
}

// Len 当前条目数（含未清理的过期条目）
func (c *MemoryReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryReportCache) removeElement(elem *list.Element) {
	entry := c.order.Remove(elem).(*memoryEntry)
	delete(c.items, entry.key)
}
