package domain

import "github.com/shopspring/decimal"

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type EventLine struct {
	ListingID int64           `json:"listing_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderCreated struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	BuyerID     int64           `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []EventLine     `json:"lines"`
}

type OrderCancelled struct {
	OrderID int64 `json:"order_id"`
	BuyerID int64 `json:"buyer_id"`
}

type OrderStatusChanged struct {
	OrderID int64       `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}
