package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Handle returns the transaction when set, else fallback, bound to Ctx.
func (c Context) Handle(fallback *gorm.DB) *gorm.DB {
	h := c.Tx
	if h == nil {
		h = fallback
	}
	if c.Ctx == nil {
		return h
	}
	return h.WithContext(c.Ctx)
}
