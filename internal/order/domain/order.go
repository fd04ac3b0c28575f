package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seumarket/campus-market/internal/fault"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Forward transitions are driven by payment/shipment collaborators.
// Cancellation goes through the dedicated cancel path because it must
// restore stock in the same transaction.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusCompleted},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BuyerMayRequest restricts buyer-initiated transitions to pending -> cancelled.
// Cancellation past pending is an administrative path.
func (s OrderStatus) BuyerMayRequest(next OrderStatus) bool {
	return s == StatusPending && next == StatusCancelled
}

const (
	MaxLineQuantity = 100
	MaxOrderLines   = 20
)

type Order struct {
	ID              int64
	Number          string
	BuyerID         int64
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine captures quantity and unit price at purchase time; neither is
// mutated afterwards, so the order total stays correct even when the
// listing's live price changes.
type OrderLine struct {
	ID        int64
	OrderID   int64
	ListingID int64
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineRequest is one (listing, quantity) pair of a purchase request.
type LineRequest struct {
	ListingID int64 `json:"listing_id"`
	Quantity  int   `json:"quantity"`
}

// ValidateLineRequests rejects malformed purchase requests before they reach
// the store: empty carts, duplicate listings, out-of-range quantities.
func ValidateLineRequests(lines []LineRequest) error {
	if len(lines) == 0 {
		return fault.Validation("order must contain at least one line")
	}
	if len(lines) > MaxOrderLines {
		return fault.Validation("order may contain at most %d lines", MaxOrderLines)
	}
	seen := make(map[int64]struct{}, len(lines))
	for _, ln := range lines {
		if ln.ListingID <= 0 {
			return fault.Validation("listing id must be positive")
		}
		if _, dup := seen[ln.ListingID]; dup {
			return fault.Validation("duplicate listing %d in order", ln.ListingID)
		}
		seen[ln.ListingID] = struct{}{}
		if ln.Quantity < 1 || ln.Quantity > MaxLineQuantity {
			return fault.Validation("quantity for listing %d must be between 1 and %d", ln.ListingID, MaxLineQuantity)
		}
	}
	return nil
}

// TotalOf sums line subtotals into the order total.
func TotalOf(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.Subtotal())
	}
	return total
}

// NewOrderNumber returns a human-facing order number, e.g. ORD1735689600A1B2C3.
func NewOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("ORD%d%s", time.Now().Unix(), suffix)
}

// OrderConfirmation is what order creation hands back to the caller.
type OrderConfirmation struct {
	OrderID         int64
	OrderNumber     string
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	ShippingAddress string
	CreatedAt       time.Time
	LineCount       int
}

// LineDetail is an order line joined with its listing and seller summary.
type LineDetail struct {
	OrderLine
	Title      string
	Category   string
	ImageURL   *string
	SellerID   int64
	SellerName string
}

type BuyerInfo struct {
	ID       int64
	Username string
	Phone    *string
}

type OrderDetail struct {
	Order
	Buyer BuyerInfo
	Lines []LineDetail
}

// LineBrief is the thumbnail view of a line on order listings.
type LineBrief struct {
	ListingID int64
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	ImageURL  *string
}

type OrderSummary struct {
	Order
	Lines []LineBrief
}

type OrderStatistics struct {
	TotalOrders     int
	PendingOrders   int
	CompletedOrders int
	TotalSpent      decimal.Decimal
}
