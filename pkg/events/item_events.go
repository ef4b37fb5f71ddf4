package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Domain constants
const (
	ItemDomain   = "item"
	ItemExchange = "market.item"

	// Exchanges this service consumes from.
	TradeExchange   = "market.trade"
	RankingExchange = "market.ranking"
)

// Event names
const (
	ItemCreatedEvent = "item.created"
	ItemUpdatedEvent = "item.updated"
	ItemClosedEvent  = "item.closed"
	ItemBlockedEvent = "item.blocked"

	// Inbound events.
	TradeCompletedEvent = "trade.completed"
	RankingUpdatedEvent = "ranking.updated"
)

// Event versions
const (
	EventVersionV1 = "v1"
)

// ItemCreatedPayload represents the payload for item.created event
type ItemCreatedPayload struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Extra       *string         `json:"extra"`
	Price       decimal.Decimal `json:"price"`
	SellerID    int64           `json:"sellerId"`
	CategoryID  int64           `json:"categoryId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ItemUpdatedPayload represents the payload for item.updated event
type ItemUpdatedPayload struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	Extra        *string         `json:"extra"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   int64           `json:"categoryId"`
	LastModified int64           `json:"lastModified"`
}

type ItemClosedPayload struct {
	ID           int64 `json:"id"`
	SellerID     int64 `json:"sellerId"`
	Closed       bool  `json:"closed"`
	LastModified int64 `json:"lastModified"`
}

type ItemBlockedPayload struct {
	ID           int64 `json:"id"`
	Blocked      bool  `json:"blocked"`
	LastModified int64 `json:"lastModified"`
}

// TradeCompletedPayload is emitted by the trade service once a sale settles.
type TradeCompletedPayload struct {
	ItemID  int64           `json:"itemId"`
	BuyerID int64           `json:"buyerId"`
	Price   decimal.Decimal `json:"price"`
}

// RankingUpdatedPayload carries the externally computed popularity signal.
type RankingUpdatedPayload struct {
	ItemID     int64 `json:"itemId"`
	Popularity int64 `json:"popularity"`
}
