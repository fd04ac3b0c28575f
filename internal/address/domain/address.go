package domain

import (
	"time"

	"github.com/seumarket/campus-market/internal/fault"
)

// Address is a buyer's shipping destination. At most one address per user
// carries the default flag.
type Address struct {
	ID            int64
	UserID        int64
	RecipientName string
	Phone         string
	Province      *string
	City          *string
	District      *string
	Detail        string
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AddressInput struct {
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Province      *string `json:"province"`
	City          *string `json:"city"`
	District      *string `json:"district"`
	Detail        string  `json:"detail"`
	IsDefault     bool    `json:"is_default"`
}

func (in AddressInput) Validate() error {
	if in.RecipientName == "" {
		return fault.Validation("recipient_name is required")
	}
	if in.Phone == "" {
		return fault.Validation("phone is required")
	}
	if in.Detail == "" {
		return fault.Validation("detail is required")
	}
	return nil
}
