package application

import (
	"context"

	"github.com/seumarket/campus-market/internal/order/domain"
)

// OrderRepository is the transactional engine behind the service. Every write
// method runs as one atomic transaction against the store: row locks are
// acquired inside it and any failure rolls the whole operation back.
type OrderRepository interface {
	// Create places the order: validates the address under the transaction,
	// locks the referenced listings in ascending id order, checks stock,
	// inserts the order with its lines, decrements stock and records the
	// OrderCreated outbox event.
	Create(ctx context.Context, buyerID int64, lines []domain.LineRequest, addressID int64) (domain.OrderConfirmation, error)

	// Cancel restores stock for every line and moves the order to cancelled.
	// Only pending orders owned by buyerID qualify.
	Cancel(ctx context.Context, orderID, buyerID int64) error

	// Transition applies a collaborator-driven forward transition
	// (pending->paid, paid->shipped, shipped->completed) under a row lock.
	Transition(ctx context.Context, orderID int64, next domain.OrderStatus) error

	Get(ctx context.Context, orderID int64) (domain.OrderDetail, error)
	List(ctx context.Context, buyerID int64, page, pageSize int) ([]domain.OrderSummary, int, error)
	Statistics(ctx context.Context, buyerID int64) (domain.OrderStatistics, error)
}
