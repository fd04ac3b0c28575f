package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/listing/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const listingColumns = `id, seller_id, title, description, category, price, stock, views, image_url, is_active, created_at, updated_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Category,
		&l.Price, &l.Stock, &l.Views, &l.ImageURL, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, fault.NotFound("listing %d does not exist", id)
	}
	if err != nil {
		return domain.Listing{}, r.fail("listing.get", err)
	}
	return l, nil
}

func (r *Repository) Browse(ctx context.Context, category string, page, pageSize int) ([]domain.Listing, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, r.fail("listing.browse.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	where := `WHERE is_active AND ($1 = '' OR category = $1)`
	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM listings `+where, category).Scan(&total); err != nil {
		return nil, 0, r.fail("listing.browse.count", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT `+listingColumns+` FROM listings `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		category, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, r.fail("listing.browse.query", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0, pageSize)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, r.fail("listing.browse.scan", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.fail("listing.browse.read", err)
	}
	return listings, total, nil
}

func (r *Repository) Create(ctx context.Context, sellerID int64, in domain.ListingInput) (domain.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, `
		INSERT INTO listings (seller_id, title, description, category, price, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+listingColumns,
		sellerID, in.Title, in.Description, in.Category, in.Price, in.Stock, in.ImageURL))
	if err != nil {
		return domain.Listing{}, r.fail("listing.create", err)
	}
	return l, nil
}

// Update locks the listing row first; seller stock edits therefore serialize
// against the order engine's locked decrements instead of racing them.
func (r *Repository) Update(ctx context.Context, sellerID, id int64, patch domain.ListingPatch) (domain.Listing, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Listing{}, r.fail("listing.update.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	l, err := scanListing(tx.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, fault.NotFound("listing %d does not exist", id)
	}
	if err != nil {
		return domain.Listing{}, r.fail("listing.update.lock", err)
	}
	if l.SellerID != sellerID {
		return domain.Listing{}, fault.PermissionDenied("listing %d does not belong to you", id)
	}

	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Category != nil {
		l.Category = *patch.Category
	}
	if patch.Price != nil {
		l.Price = *patch.Price
	}
	if patch.Stock != nil {
		l.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		l.ImageURL = patch.ImageURL
	}
	if patch.Active != nil {
		l.Active = *patch.Active
	}

	updated, err := scanListing(tx.QueryRow(ctx, `
		UPDATE listings
		SET title = $2, description = $3, category = $4, price = $5, stock = $6,
		    image_url = $7, is_active = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+listingColumns,
		id, l.Title, l.Description, l.Category, l.Price, l.Stock, l.ImageURL, l.Active))
	if err != nil {
		return domain.Listing{}, r.fail("listing.update.write", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Listing{}, r.fail("listing.update.commit", err)
	}
	return updated, nil
}

func (r *Repository) fail(op string, err error) error {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	r.log.Error("listing store failure", "op", op, "err", err)
	return fault.StoreFailure("storage error, please try again later")
}
