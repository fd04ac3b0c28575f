package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seumarket/campus-market/internal/address/domain"
	"github.com/seumarket/campus-market/internal/fault"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const addressColumns = `id, user_id, recipient_name, phone, province, city, district, detail, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.Province, &a.City,
		&a.District, &a.Detail, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repository) List(ctx context.Context, userID int64) ([]domain.Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+addressColumns+` FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, r.fail("address.list", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, r.fail("address.list.scan", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("address.list.read", err)
	}
	return addresses, nil
}

func (r *Repository) Create(ctx context.Context, userID int64, in domain.AddressInput) (domain.Address, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Address{}, r.fail("address.create.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if in.IsDefault {
		if err := r.clearDefault(ctx, tx, userID, 0); err != nil {
			return domain.Address{}, r.fail("address.create.clear_default", err)
		}
	}
	a, err := scanAddress(tx.QueryRow(ctx, `
		INSERT INTO addresses (user_id, recipient_name, phone, province, city, district, detail, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+addressColumns,
		userID, in.RecipientName, in.Phone, in.Province, in.City, in.District, in.Detail, in.IsDefault))
	if err != nil {
		return domain.Address{}, r.fail("address.create.insert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Address{}, r.fail("address.create.commit", err)
	}
	return a, nil
}

func (r *Repository) Update(ctx context.Context, userID, addressID int64, in domain.AddressInput) (domain.Address, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Address{}, r.fail("address.update.begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var ownerID int64
	err = tx.QueryRow(ctx, `SELECT user_id FROM addresses WHERE id = $1 FOR UPDATE`, addressID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Address{}, fault.NotFound("address %d does not exist", addressID)
	}
	if err != nil {
		return domain.Address{}, r.fail("address.update.lock", err)
	}
	if ownerID != userID {
		return domain.Address{}, fault.PermissionDenied("address %d does not belong to you", addressID)
	}

	if in.IsDefault {
		if err := r.clearDefault(ctx, tx, userID, addressID); err != nil {
			return domain.Address{}, r.fail("address.update.clear_default", err)
		}
	}
	a, err := scanAddress(tx.QueryRow(ctx, `
		UPDATE addresses
		SET recipient_name = $2, phone = $3, province = $4, city = $5, district = $6,
		    detail = $7, is_default = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+addressColumns,
		addressID, in.RecipientName, in.Phone, in.Province, in.City, in.District, in.Detail, in.IsDefault))
	if err != nil {
		return domain.Address{}, r.fail("address.update.write", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Address{}, r.fail("address.update.commit", err)
	}
	return a, nil
}

// clearDefault drops the default flag from every other address of the user so
// the single-default invariant holds when the surrounding transaction commits.
func (r *Repository) clearDefault(ctx context.Context, tx pgx.Tx, userID, keepID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default = FALSE, updated_at = now()
		WHERE user_id = $1 AND is_default AND id <> $2`, userID, keepID)
	return err
}

func (r *Repository) fail(op string, err error) error {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	r.log.Error("address store failure", "op", op, "err", err)
	return fault.StoreFailure("storage error, please try again later")
}
