package application

import (
	"context"
	"log/slog"

	"github.com/seumarket/campus-market/internal/address/domain"
)

type Service struct {
	log       *slog.Logger
	addresses AddressRepository
}

func NewService(log *slog.Logger, addresses AddressRepository) *Service {
	return &Service{log: log, addresses: addresses}
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.Address, error) {
	return s.addresses.List(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID int64, in domain.AddressInput) (domain.Address, error) {
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	addr, err := s.addresses.Create(ctx, userID, in)
	if err != nil {
		return domain.Address{}, err
	}
	s.log.Info("address created", "address_id", addr.ID, "user_id", userID, "default", addr.IsDefault)
	return addr, nil
}

func (s *Service) Update(ctx context.Context, userID, addressID int64, in domain.AddressInput) (domain.Address, error) {
	if err := in.Validate(); err != nil {
		return domain.Address{}, err
	}
	return s.addresses.Update(ctx, userID, addressID, in)
}
