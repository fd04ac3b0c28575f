package application

import (
	"context"

	"github.com/seumarket/campus-market/internal/listing/domain"
)

type ListingRepository interface {
	Get(ctx context.Context, id int64) (domain.Listing, error)
	// Browse returns active listings newest first, optionally narrowed to a
	// category, plus the matching total for pagination.
	Browse(ctx context.Context, category string, page, pageSize int) ([]domain.Listing, int, error)
	Create(ctx context.Context, sellerID int64, in domain.ListingInput) (domain.Listing, error)
	// Update applies a seller patch under the same row lock the order engine
	// uses, so direct stock edits never race a locked decrement.
	Update(ctx context.Context, sellerID, id int64, patch domain.ListingPatch) (domain.Listing, error)
}

// ViewCounter tracks how often a listing detail has been opened.
type ViewCounter interface {
	Increment(ctx context.Context, listingID int64) (int64, error)
}
