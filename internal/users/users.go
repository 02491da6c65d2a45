package users

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Cache is the set of user ids the bot has ever seen, persisted as a JSON
// array. It only grows; its single purpose is detecting a user's first
// message so the operator can be notified.
type Cache struct {
	mu   sync.Mutex
	path string
	ids  []int64
	seen map[int64]struct{}
}

func NewCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	c := &Cache{path: path, seen: make(map[int64]struct{})}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read user cache: %w", err)
	}
	var ids []int64
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ids); err != nil {
			log.Printf("⚠️ user cache unreadable, starting empty: %v", err)
			return c, nil
		}
	}
	for _, id := range ids {
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = struct{}{}
		c.ids = append(c.ids, id)
	}
	return c, nil
}

// Remember records the user id and reports whether this was the first time
// it was seen. New ids are flushed to disk immediately.
func (c *Cache) Remember(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[id]; ok {
		return false, nil
	}
	c.seen[id] = struct{}{}
	c.ids = append(c.ids, id)
	return true, c.saveLocked()
}

func (c *Cache) Known(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[id]
	return ok
}

func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

// Save rewrites the backing file; the shutdown flush and the daily
// maintenance job call it even when nothing changed.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Cache) saveLocked() error {
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.ids); err != nil {
		return fmt.Errorf("encode user cache: %w", err)
	}
	return nil
}
