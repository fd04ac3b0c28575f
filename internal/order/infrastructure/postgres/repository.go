package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/order/domain"
	"github.com/seumarket/campus-market/pkg/tracing"
)

// Postgres error code for a lock_timeout expiry.
const lockNotAvailable = "55P03"

const defaultLockWait = 3 * time.Second

// Repository is the order transaction engine. Every write runs as a single
// transaction: row locks on listings are taken in ascending id order with a
// bounded wait, stock checks and mutations happen under those locks, and any
// failure rolls back the whole unit.
type Repository struct {
	log      *slog.Logger
	pool     *pgxpool.Pool
	lockWait time.Duration
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, lockWait time.Duration) *Repository {
	if lockWait <= 0 {
		lockWait = defaultLockWait
	}
	return &Repository{log: log, pool: pool, lockWait: lockWait}
}

type lockedListing struct {
	ID       int64
	SellerID int64
	Title    string
	Price    decimal.Decimal
	Stock    int
	Active   bool
}

func (r *Repository) Create(ctx context.Context, buyerID int64, reqs []domain.LineRequest, addressID int64) (domain.OrderConfirmation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.OrderConfirmation{}, r.fail("create.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.boundLockWait(ctx, tx); err != nil {
		return domain.OrderConfirmation{}, r.fail("create.lock_timeout", err)
	}

	snapshot, err := r.shippingSnapshot(ctx, tx, addressID, buyerID)
	if err != nil {
		return domain.OrderConfirmation{}, r.fail("create.address", err)
	}

	locked, err := r.lockListings(ctx, tx, listingIDs(reqs))
	if err != nil {
		return domain.OrderConfirmation{}, r.fail("create.lock_listings", err)
	}

	lines := make([]domain.OrderLine, 0, len(reqs))
	for _, req := range reqs {
		l, ok := locked[req.ListingID]
		if !ok {
			return domain.OrderConfirmation{}, fault.NotFound("listing %d does not exist", req.ListingID)
		}
		if !l.Active {
			return domain.OrderConfirmation{}, fault.Validation("listing %q is no longer for sale", l.Title)
		}
		if l.SellerID == buyerID {
			return domain.OrderConfirmation{}, fault.SelfPurchase("you cannot buy your own listing %q", l.Title)
		}
		if l.Stock < req.Quantity {
			return domain.OrderConfirmation{}, fault.InsufficientStock("listing %q has only %d left", l.Title, l.Stock)
		}
		lines = append(lines, domain.OrderLine{
			ListingID: l.ID,
			Quantity:  req.Quantity,
			UnitPrice: l.Price,
		})
	}

	total := domain.TotalOf(lines)
	if !total.IsPositive() {
		return domain.OrderConfirmation{}, fault.Validation("order total must be positive")
	}

	number := domain.NewOrderNumber()
	var orderID int64
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, buyer_id, total_amount, status, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		number, buyerID, total, domain.StatusPending, snapshot,
	).Scan(&orderID, &createdAt)
	if err != nil {
		return domain.OrderConfirmation{}, r.fail("create.insert_order", err)
	}

	batch := &pgx.Batch{}
	for _, ln := range lines {
		batch.Queue(`
			INSERT INTO order_lines (order_id, listing_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`,
			orderID, ln.ListingID, ln.Quantity, ln.UnitPrice)
		batch.Queue(`
			UPDATE listings SET stock = stock - $2, updated_at = now()
			WHERE id = $1`,
			ln.ListingID, ln.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.OrderConfirmation{}, r.fail("create.write_lines", err)
	}

	event := domain.OrderCreated{
		OrderID:     orderID,
		OrderNumber: number,
		BuyerID:     buyerID,
		TotalAmount: total,
	}
	for _, ln := range lines {
		event.Lines = append(event.Lines, domain.EventLine{
			ListingID: ln.ListingID,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
		})
	}
	if err := r.insertOutbox(ctx, tx, orderID, domain.EventOrderCreated, event); err != nil {
		return domain.OrderConfirmation{}, r.fail("create.outbox", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.OrderConfirmation{}, r.fail("create.commit", err)
	}

	for _, ln := range lines {
		r.log.Info("stock decremented", "order_id", orderID, "listing_id", ln.ListingID, "quantity", ln.Quantity)
	}
	return domain.OrderConfirmation{
		OrderID:         orderID,
		OrderNumber:     number,
		TotalAmount:     total,
		Status:          domain.StatusPending,
		ShippingAddress: snapshot,
		CreatedAt:       createdAt,
		LineCount:       len(lines),
	}, nil
}

func (r *Repository) Cancel(ctx context.Context, orderID, buyerID int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return r.fail("cancel.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.boundLockWait(ctx, tx); err != nil {
		return r.fail("cancel.lock_timeout", err)
	}

	var ownerID int64
	var status domain.OrderStatus
	err = tx.QueryRow(ctx, `SELECT buyer_id, status FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&ownerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fault.NotFound("order %d does not exist", orderID)
	}
	if err != nil {
		return r.fail("cancel.lock_order", err)
	}
	if ownerID != buyerID {
		return fault.PermissionDenied("order %d does not belong to you", orderID)
	}
	// A retried cancel of an already-committed cancellation lands here and is
	// rejected without touching stock again.
	if status != domain.StatusPending {
		return fault.InvalidTransition("only pending orders can be cancelled, order %d is %s", orderID, status)
	}

	rows, err := tx.Query(ctx, `
		SELECT listing_id, quantity FROM order_lines
		WHERE order_id = $1
		ORDER BY listing_id`, orderID)
	if err != nil {
		return r.fail("cancel.load_lines", err)
	}
	type restore struct {
		listingID int64
		quantity  int
	}
	var restores []restore
	for rows.Next() {
		var rs restore
		if err := rows.Scan(&rs.listingID, &rs.quantity); err != nil {
			rows.Close()
			return r.fail("cancel.scan_lines", err)
		}
		restores = append(restores, rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return r.fail("cancel.read_lines", err)
	}

	// Same lock discipline as creation: listings ascending, one statement.
	ids := make([]int64, 0, len(restores))
	for _, rs := range restores {
		ids = append(ids, rs.listingID)
	}
	if _, err := r.lockListings(ctx, tx, ids); err != nil {
		return r.fail("cancel.lock_listings", err)
	}

	batch := &pgx.Batch{}
	for _, rs := range restores {
		batch.Queue(`
			UPDATE listings SET stock = stock + $2, updated_at = now()
			WHERE id = $1`,
			rs.listingID, rs.quantity)
	}
	batch.Queue(`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		orderID, domain.StatusCancelled)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return r.fail("cancel.restore", err)
	}

	event := domain.OrderCancelled{OrderID: orderID, BuyerID: buyerID}
	if err := r.insertOutbox(ctx, tx, orderID, domain.EventOrderCancelled, event); err != nil {
		return r.fail("cancel.outbox", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r.fail("cancel.commit", err)
	}

	for _, rs := range restores {
		r.log.Info("stock restored", "order_id", orderID, "listing_id", rs.listingID, "quantity", rs.quantity)
	}
	return nil
}

// Transition applies a collaborator-driven forward transition. Cancellation is
// rejected here because it must restore stock through Cancel.
func (r *Repository) Transition(ctx context.Context, orderID int64, next domain.OrderStatus) error {
	if !next.Valid() {
		return fault.Validation("unknown order status %q", next)
	}
	if next == domain.StatusCancelled {
		return fault.InvalidTransition("cancellation must go through the cancel operation")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return r.fail("transition.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.boundLockWait(ctx, tx); err != nil {
		return r.fail("transition.lock_timeout", err)
	}

	var current domain.OrderStatus
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fault.NotFound("order %d does not exist", orderID)
	}
	if err != nil {
		return r.fail("transition.lock_order", err)
	}
	if !current.CanTransitionTo(next) {
		return fault.InvalidTransition("order %d cannot move from %s to %s", orderID, current, next)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, next); err != nil {
		return r.fail("transition.update", err)
	}

	event := domain.OrderStatusChanged{OrderID: orderID, From: current, To: next}
	if err := r.insertOutbox(ctx, tx, orderID, domain.EventOrderStatusChanged, event); err != nil {
		return r.fail("transition.outbox", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r.fail("transition.commit", err)
	}
	r.log.Info("order status changed", "order_id", orderID, "from", current, "to", next)
	return nil
}

// boundLockWait caps how long any row-lock acquisition in this transaction may
// block; expiry surfaces as a retryable lock_timeout failure.
func (r *Repository) boundLockWait(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockWait.Milliseconds()))
	return err
}

// shippingSnapshot resolves an address owned by the buyer and renders it into
// the immutable text snapshot stored on the order.
func (r *Repository) shippingSnapshot(ctx context.Context, tx pgx.Tx, addressID, buyerID int64) (string, error) {
	var recipient, phone, detail string
	var province, city, district *string
	err := tx.QueryRow(ctx, `
		SELECT recipient_name, phone, province, city, district, detail
		FROM addresses
		WHERE id = $1 AND user_id = $2`,
		addressID, buyerID,
	).Scan(&recipient, &phone, &province, &city, &district, &detail)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fault.NotFound("shipping address %d does not exist", addressID)
	}
	if err != nil {
		return "", err
	}

	region := ""
	for _, part := range []*string{province, city, district} {
		if part != nil {
			region += *part
		}
	}
	return fmt.Sprintf("%s %s %s%s", recipient, phone, region, detail), nil
}

// lockListings takes exclusive row locks on the given listings in one batched
// statement. Ascending id order keeps concurrent create/cancel transactions
// from deadlocking on overlapping listing sets.
func (r *Repository) lockListings(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]lockedListing, error) {
	if len(ids) == 0 {
		return map[int64]lockedListing{}, nil
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	rows, err := tx.Query(ctx, `
		SELECT id, seller_id, title, price, stock, is_active
		FROM listings
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, sorted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locked := make(map[int64]lockedListing, len(sorted))
	for rows.Next() {
		var l lockedListing
		if err := rows.Scan(&l.ID, &l.SellerID, &l.Title, &l.Price, &l.Stock, &l.Active); err != nil {
			return nil, err
		}
		locked[l.ID] = l
	}
	return locked, rows.Err()
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, orderID int64, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('order', $1, $2, $3, $4, 'pending')`,
		strconv.FormatInt(orderID, 10), eventType, payload, tracing.Traceparent(ctx))
	return err
}

func listingIDs(reqs []domain.LineRequest) []int64 {
	ids := make([]int64, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.ListingID)
	}
	return ids
}

// fail maps an unexpected store error to the right failure kind. Domain errors
// pass through untouched; lock-wait expiry becomes retryable; everything else
// is logged in full and surfaced as a generic store failure.
func (r *Repository) fail(op string, err error) error {
	var de *fault.Error
	if errors.As(err, &de) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
		return fault.LockTimeout("the listing is busy, please retry")
	}
	r.log.Error("order store failure", "op", op, "err", err)
	return fault.StoreFailure("storage error, please try again later")
}
