package application

import (
	"context"

	"github.com/seumarket/campus-market/internal/address/domain"
)

type AddressRepository interface {
	// List returns the user's addresses, default first, then newest.
	List(ctx context.Context, userID int64) ([]domain.Address, error)
	// Create inserts a new address; when it is flagged default, the previous
	// default is cleared in the same transaction.
	Create(ctx context.Context, userID int64, in domain.AddressInput) (domain.Address, error)
	// Update rewrites an address the user owns, preserving the single-default
	// invariant transactionally.
	Update(ctx context.Context, userID, addressID int64, in domain.AddressInput) (domain.Address, error)
}
