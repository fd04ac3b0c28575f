package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/order/domain"
)

// Read-only projections. No write locks are taken here so browsing never
// blocks the transaction engine; a repeatable-read snapshot keeps counts and
// rows mutually consistent within one call.

func (r *Repository) Get(ctx context.Context, orderID int64) (domain.OrderDetail, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.OrderDetail{}, r.fail("get.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var d domain.OrderDetail
	err = tx.QueryRow(ctx, `
		SELECT o.id, o.order_number, o.buyer_id, o.total_amount, o.status,
		       o.shipping_address, o.created_at, o.updated_at,
		       u.username, u.phone
		FROM orders o
		JOIN users u ON u.id = o.buyer_id
		WHERE o.id = $1`, orderID,
	).Scan(&d.ID, &d.Number, &d.BuyerID, &d.TotalAmount, &d.Status,
		&d.ShippingAddress, &d.CreatedAt, &d.UpdatedAt,
		&d.Buyer.Username, &d.Buyer.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OrderDetail{}, fault.NotFound("order %d does not exist", orderID)
	}
	if err != nil {
		return domain.OrderDetail{}, r.fail("get.order", err)
	}
	d.Buyer.ID = d.BuyerID

	rows, err := tx.Query(ctx, `
		SELECT ol.id, ol.listing_id, ol.quantity, ol.unit_price, ol.created_at,
		       l.title, l.category, l.image_url, l.seller_id, s.username
		FROM order_lines ol
		JOIN listings l ON l.id = ol.listing_id
		JOIN users s ON s.id = l.seller_id
		WHERE ol.order_id = $1
		ORDER BY ol.id`, orderID)
	if err != nil {
		return domain.OrderDetail{}, r.fail("get.lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ln domain.LineDetail
		ln.OrderID = orderID
		if err := rows.Scan(&ln.ID, &ln.ListingID, &ln.Quantity, &ln.UnitPrice, &ln.CreatedAt,
			&ln.Title, &ln.Category, &ln.ImageURL, &ln.SellerID, &ln.SellerName); err != nil {
			return domain.OrderDetail{}, r.fail("get.scan_line", err)
		}
		d.Lines = append(d.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderDetail{}, r.fail("get.read_lines", err)
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context, buyerID int64, page, pageSize int) ([]domain.OrderSummary, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, r.fail("list.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM orders WHERE buyer_id = $1`, buyerID).Scan(&total); err != nil {
		return nil, 0, r.fail("list.count", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, order_number, buyer_id, total_amount, status, shipping_address, created_at, updated_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		buyerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, r.fail("list.orders", err)
	}

	summaries := make([]domain.OrderSummary, 0, pageSize)
	index := make(map[int64]int)
	orderIDs := make([]int64, 0, pageSize)
	for rows.Next() {
		var s domain.OrderSummary
		if err := rows.Scan(&s.ID, &s.Number, &s.BuyerID, &s.TotalAmount, &s.Status,
			&s.ShippingAddress, &s.CreatedAt, &s.UpdatedAt); err != nil {
			rows.Close()
			return nil, 0, r.fail("list.scan_order", err)
		}
		index[s.ID] = len(summaries)
		orderIDs = append(orderIDs, s.ID)
		summaries = append(summaries, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, r.fail("list.read_orders", err)
	}
	if len(summaries) == 0 {
		return summaries, total, nil
	}

	lineRows, err := tx.Query(ctx, `
		SELECT ol.order_id, ol.listing_id, ol.quantity, ol.unit_price, l.title, l.image_url
		FROM order_lines ol
		JOIN listings l ON l.id = ol.listing_id
		WHERE ol.order_id = ANY($1)
		ORDER BY ol.order_id, ol.id`, orderIDs)
	if err != nil {
		return nil, 0, r.fail("list.lines", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var orderID int64
		var b domain.LineBrief
		if err := lineRows.Scan(&orderID, &b.ListingID, &b.Quantity, &b.UnitPrice, &b.Title, &b.ImageURL); err != nil {
			return nil, 0, r.fail("list.scan_line", err)
		}
		if i, ok := index[orderID]; ok {
			summaries[i].Lines = append(summaries[i].Lines, b)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, 0, r.fail("list.read_lines", err)
	}
	return summaries, total, nil
}

func (r *Repository) Statistics(ctx context.Context, buyerID int64) (domain.OrderStatistics, error) {
	var stats domain.OrderStatistics
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'pending'),
		       count(*) FILTER (WHERE status = 'completed'),
		       COALESCE(sum(total_amount) FILTER (WHERE status IN ('paid','shipped','completed')), 0)
		FROM orders
		WHERE buyer_id = $1`, buyerID,
	).Scan(&stats.TotalOrders, &stats.PendingOrders, &stats.CompletedOrders, &stats.TotalSpent)
	if err != nil {
		return domain.OrderStatistics{}, r.fail("statistics", err)
	}
	return stats, nil
}
