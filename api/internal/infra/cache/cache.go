package cache

import (
	"time"
)

// entries are boxed so expiration compares by identity and values of any
// type (slices included) can be stored
type entry struct {
	v any
}

func InitStorage() *Cache {
	return &Cache{}
}

func (c *Cache) Set(k any, v any, expiration time.Duration) {
	e := &entry{v}
	c.Storage.Store(k, e)
	go c.delByExp(k, e, expiration)
}

// sets value without expiration
func (c *Cache) SetNoExp(k any, v any) {
	c.Storage.Store(k, &entry{v})
}

// stores v without expiration unless k is present, true if stored
func (c *Cache) SetIfAbsent(k any, v any) bool {
	_, loaded := c.Storage.LoadOrStore(k, &entry{v})
	return !loaded
}

func (c *Cache) Del(k any) {
	c.Storage.Delete(k)
}

func (c *Cache) Load(k any) any {
	e, ok := c.Storage.Load(k)
	if !ok {
		return nil
	}
	return e.(*entry).v
}

// returns the stored value, setting v with expiration when k is absent
func (c *Cache) LoadOrSet(k any, v any, expiration time.Duration) any {
	e := &entry{v}
	act, loaded := c.Storage.LoadOrStore(k, e)
	if !loaded {
		go c.delByExp(k, e, expiration)
	}
	return act.(*entry).v
}

func (c *Cache) delByExp(k any, e *entry, expiration time.Duration) {
	time.Sleep(expiration)
	// value changed
	c.Storage.CompareAndDelete(k, e)
}
