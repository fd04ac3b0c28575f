package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seumarket/campus-market/internal/order/application"
	"github.com/seumarket/campus-market/internal/order/domain"
)

const timeFormat = time.RFC3339

type lineDetailResp struct {
	OrderLineID int64           `json:"order_line_id"`
	ListingID   int64           `json:"listing_id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ImageURL    *string         `json:"image_url"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	SellerID    int64           `json:"seller_id"`
	SellerName  string          `json:"seller_name"`
}

type buyerResp struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Phone    *string `json:"phone"`
}

type orderDetailResp struct {
	ID              int64            `json:"id"`
	OrderNumber     string           `json:"order_number"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	Status          string           `json:"status"`
	ShippingAddress string           `json:"shipping_address"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	Buyer           buyerResp        `json:"buyer"`
	Lines           []lineDetailResp `json:"lines"`
	LineCount       int              `json:"line_count"`
}

func toDetailResp(d domain.OrderDetail) orderDetailResp {
	resp := orderDetailResp{
		ID:              d.ID,
		OrderNumber:     d.Number,
		TotalAmount:     d.TotalAmount,
		Status:          string(d.Status),
		ShippingAddress: d.ShippingAddress,
		CreatedAt:       d.CreatedAt.Format(timeFormat),
		UpdatedAt:       d.UpdatedAt.Format(timeFormat),
		Buyer: buyerResp{
			ID:       d.Buyer.ID,
			Username: d.Buyer.Username,
			Phone:    d.Buyer.Phone,
		},
		Lines:     make([]lineDetailResp, 0, len(d.Lines)),
		LineCount: len(d.Lines),
	}
	for _, ln := range d.Lines {
		resp.Lines = append(resp.Lines, lineDetailResp{
			OrderLineID: ln.ID,
			ListingID:   ln.ListingID,
			Title:       ln.Title,
			Category:    ln.Category,
			ImageURL:    ln.ImageURL,
			Quantity:    ln.Quantity,
			UnitPrice:   ln.UnitPrice,
			Subtotal:    ln.Subtotal(),
			SellerID:    ln.SellerID,
			SellerName:  ln.SellerName,
		})
	}
	return resp
}

type lineBriefResp struct {
	ListingID int64           `json:"listing_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  *string         `json:"image_url"`
}

type orderSummaryResp struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	Lines           []lineBriefResp `json:"lines"`
	LineCount       int             `json:"line_count"`
}

func toSummaryResp(o domain.OrderSummary) orderSummaryResp {
	resp := orderSummaryResp{
		ID:              o.ID,
		OrderNumber:     o.Number,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt.Format(timeFormat),
		UpdatedAt:       o.UpdatedAt.Format(timeFormat),
		Lines:           make([]lineBriefResp, 0, len(o.Lines)),
		LineCount:       len(o.Lines),
	}
	for _, b := range o.Lines {
		resp.Lines = append(resp.Lines, lineBriefResp{
			ListingID: b.ListingID,
			Title:     b.Title,
			Quantity:  b.Quantity,
			UnitPrice: b.UnitPrice,
			ImageURL:  b.ImageURL,
		})
	}
	return resp
}

type orderPageResp struct {
	Orders     []orderSummaryResp     `json:"orders"`
	Pagination application.Pagination `json:"pagination"`
}

type statisticsResp struct {
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	CompletedOrders int             `json:"completed_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}
