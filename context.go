package hsm

import "github.com/comalice/hsm/internal/primitives"

// Context is a goroutine-safe key/value store, usable as the host of charts
// that have no dedicated host type.
type Context = primitives.Context

// NewContext creates an empty Context.
func NewContext() *Context {
	return primitives.NewContext()
}
