package models

import "time"

// Trend flags the direction of the latest price change.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendFor derives the trend flag by comparing a new price to the previous one.
func TrendFor(oldPrice, newPrice float64) Trend {
	switch {
	case newPrice > oldPrice:
		return TrendUp
	case newPrice < oldPrice:
		return TrendDown
	default:
		return TrendStable
	}
}

// MarketPrice is a network-wide reference price, editable by admins only.
type MarketPrice struct {
	ID    string  `bson:"_id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
	Trend Trend   `bson:"trend" json:"trend"`
}

// PriceHistoryRecord is one immutable audit entry appended on every price
// update, in the same transaction as the update itself.
type PriceHistoryRecord struct {
	ID      string    `bson:"_id" json:"-"`
	PriceID string    `bson:"price_id" json:"-"`
	Date    time.Time `bson:"date" json:"date"`
	Price   float64   `bson:"price" json:"price"`
}

// Listing is a marketplace entry owned by a single member.
type Listing struct {
	ID          string    `bson:"_id" json:"id"`
	ProductName string    `bson:"product_name" json:"productName"`
	Quantity    string    `bson:"quantity" json:"quantity"`
	Price       float64   `bson:"price" json:"price"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	UserID      string    `bson:"user_id" json:"userId"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}
