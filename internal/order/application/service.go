package application

import (
	"context"
	"log/slog"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/order/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type OrderPage struct {
	Orders     []domain.OrderSummary
	Pagination Pagination
}

type Service struct {
	log    *slog.Logger
	orders OrderRepository
}

func NewService(log *slog.Logger, orders OrderRepository) *Service {
	return &Service{log: log, orders: orders}
}

// CreateOrder validates the purchase request locally and hands it to the
// transaction engine. Validation failures never reach the store.
func (s *Service) CreateOrder(ctx context.Context, buyerID int64, lines []domain.LineRequest, addressID int64) (domain.OrderConfirmation, error) {
	if buyerID <= 0 {
		return domain.OrderConfirmation{}, fault.Validation("buyer id must be positive")
	}
	if addressID <= 0 {
		return domain.OrderConfirmation{}, fault.Validation("address id must be positive")
	}
	if err := domain.ValidateLineRequests(lines); err != nil {
		return domain.OrderConfirmation{}, err
	}

	conf, err := s.orders.Create(ctx, buyerID, lines, addressID)
	if err != nil {
		s.log.Warn("order creation rejected", "buyer_id", buyerID, "kind", fault.KindOf(err), "err", err)
		return domain.OrderConfirmation{}, err
	}
	s.log.Info("order created",
		"order_id", conf.OrderID, "order_number", conf.OrderNumber,
		"buyer_id", buyerID, "total", conf.TotalAmount, "lines", conf.LineCount)
	return conf, nil
}

func (s *Service) CancelOrder(ctx context.Context, orderID, buyerID int64) error {
	if err := s.orders.Cancel(ctx, orderID, buyerID); err != nil {
		s.log.Warn("order cancellation rejected", "order_id", orderID, "buyer_id", buyerID, "kind", fault.KindOf(err), "err", err)
		return err
	}
	s.log.Info("order cancelled", "order_id", orderID, "buyer_id", buyerID)
	return nil
}

// UpdateOrderStatus is the buyer-facing transition path. The only transition a
// buyer may request is pending -> cancelled, which routes through the full
// cancellation transaction so stock is restored atomically.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, buyerID int64, next domain.OrderStatus) error {
	if !next.Valid() {
		return fault.Validation("unknown order status %q", next)
	}
	if next != domain.StatusCancelled {
		return fault.InvalidTransition("buyers may only cancel pending orders")
	}
	return s.CancelOrder(ctx, orderID, buyerID)
}

func (s *Service) GetOrder(ctx context.Context, orderID, buyerID int64) (domain.OrderDetail, error) {
	detail, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.OrderDetail{}, err
	}
	if detail.BuyerID != buyerID {
		return domain.OrderDetail{}, fault.PermissionDenied("order %d does not belong to you", orderID)
	}
	return detail, nil
}

func (s *Service) ListOrders(ctx context.Context, buyerID int64, page, pageSize int) (OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	orders, total, err := s.orders.List(ctx, buyerID, page, pageSize)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	}, nil
}

func (s *Service) GetOrderStatistics(ctx context.Context, buyerID int64) (domain.OrderStatistics, error) {
	return s.orders.Statistics(ctx, buyerID)
}
