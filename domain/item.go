package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	Extra       *string         `db:"extra" json:"extra"`
	Price       decimal.Decimal `db:"price" json:"price"`
	SellerID    int64           `db:"seller_id" json:"sellerID"`
	CategoryID  int64           `db:"category_id" json:"categoryID"`

	Deal    bool `db:"deal" json:"deal"`
	Closed  bool `db:"closed" json:"closed"`
	Blocked bool `db:"blocked" json:"blocked"`

	Popularity int64 `db:"popularity" json:"popularity"`

	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	LastModified int64     `db:"last_modified" json:"lastModified"`
}

// Open reports whether the item is publicly available for sale. Blocked
// overrides everything, a dealt item is off the market, a closed item is
// paused by its seller.
func (i Item) Open() bool {
	return !i.Blocked && !i.Deal && !i.Closed
}

// ItemChange is a partial update. A nil field leaves the item untouched, so
// setting a price to zero or a name to the empty string stays expressible.
type ItemChange struct {
	Price       *decimal.Decimal
	Name        *string
	Description *string
	Extra       *string
}

func (c ItemChange) Empty() bool {
	return c.Price == nil && c.Name == nil && c.Description == nil && c.Extra == nil
}

// Apply overwrites the present fields and reports whether anything changed.
func (c ItemChange) Apply(i *Item) bool {
	changed := false
	if c.Price != nil && !c.Price.Equal(i.Price) {
		i.Price = *c.Price
		changed = true
	}
	if c.Name != nil && *c.Name != i.Name {
		i.Name = *c.Name
		changed = true
	}
	if c.Description != nil {
		if i.Description == nil || *i.Description != *c.Description {
			i.Description = c.Description
			changed = true
		}
	}
	if c.Extra != nil {
		if i.Extra == nil || *i.Extra != *c.Extra {
			i.Extra = c.Extra
			changed = true
		}
	}
	return changed
}

// NextModified returns the unix-millisecond timestamp for a write that
// follows prev. The result is strictly greater than prev even when the clock
// has not advanced, so sync ordering per item never ties with itself.
func NextModified(prev int64) int64 {
	now := time.Now().UnixMilli()
	if now <= prev {
		return prev + 1
	}
	return now
}
