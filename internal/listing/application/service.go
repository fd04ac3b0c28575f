package application

import (
	"context"
	"log/slog"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/listing/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	log      *slog.Logger
	listings ListingRepository
	views    ViewCounter
}

func NewService(log *slog.Logger, listings ListingRepository, views ViewCounter) *Service {
	return &Service{log: log, listings: listings, views: views}
}

func (s *Service) Browse(ctx context.Context, category string, page, pageSize int) ([]domain.Listing, int, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, 0, fault.Validation("unknown category %q", category)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.listings.Browse(ctx, category, page, pageSize)
}

// Get fetches one listing and bumps its view counter. The counter is
// best-effort: a Redis outage must not break browsing.
func (s *Service) Get(ctx context.Context, id int64) (domain.Listing, error) {
	l, err := s.listings.Get(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	views, err := s.views.Increment(ctx, id)
	if err != nil {
		s.log.Warn("view counter unavailable", "listing_id", id, "err", err)
		return l, nil
	}
	l.Views = views
	return l, nil
}

func (s *Service) Create(ctx context.Context, sellerID int64, in domain.ListingInput) (domain.Listing, error) {
	if err := in.Validate(); err != nil {
		return domain.Listing{}, err
	}
	if in.Category == "" {
		in.Category = "other"
	}
	l, err := s.listings.Create(ctx, sellerID, in)
	if err != nil {
		return domain.Listing{}, err
	}
	s.log.Info("listing created", "listing_id", l.ID, "seller_id", sellerID, "title", l.Title)
	return l, nil
}

func (s *Service) Update(ctx context.Context, sellerID, id int64, patch domain.ListingPatch) (domain.Listing, error) {
	if err := patch.Validate(); err != nil {
		return domain.Listing{}, err
	}
	return s.listings.Update(ctx, sellerID, id, patch)
}
