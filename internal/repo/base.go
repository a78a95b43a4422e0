// Package repo holds the pieces every gorm-backed repository shares.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
)

// Base is embedded by repositories. It carries either the pooled connection
// or, once bound, an open transaction.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// Bind switches to tx. A nil tx leaves the receiver unchanged.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx != nil {
		b.conn = tx
	}
	return b
}

func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// Locked is DB with the selected rows held FOR UPDATE until the transaction ends.
func (b Base) Locked(ctx context.Context) *gorm.DB {
	return db.ForUpdate(b.DB(ctx))
}

// Keyset orders by column descending and fetches one page plus the lookahead
// row, starting below cursor when one is given.
func Keyset(column string, params pagination.Params, cursor *pagination.Cursor) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Order(column + " DESC").Limit(pagination.LimitWithBuffer(params.Limit))
		if cursor != nil {
			q = q.Where(column+" < ?", cursor.ID)
		}
		return q
	}
}
