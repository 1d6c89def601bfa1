package primitives

import "sync"

// Context is a key/value host for charts whose behaviour does not need a
// dedicated host type, typically charts loaded from YAML. It is safe to read
// from other goroutines while a machine dispatches.
type Context struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{data: make(map[string]any)}
}

// Get retrieves a value by key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value by key.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
}

// Delete removes a key.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Int returns the value under key as an int, or 0 when absent or of another
// type.
func (c *Context) Int(key string) int {
	v, _ := c.Get(key)
	i, _ := v.(int)
	return i
}

// Snapshot returns a copy of the stored data.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]any, len(c.data))
	for k, v := range c.data {
		snap[k] = v
	}
	return snap
}

// Restore replaces the stored data with a copy of snap.
func (c *Context) Restore(snap map[string]any) {
	data := make(map[string]any, len(snap))
	for k, v := range snap {
		data[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
}
