package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seumarket/campus-market/internal/address/application"
	"github.com/seumarket/campus-market/internal/address/domain"
	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/platform/web"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/addresses", h.list)
	r.Post("/addresses", h.create)
	r.Put("/addresses/{id}", h.update)
	return r
}

type addressResp struct {
	ID            int64   `json:"id"`
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Province      *string `json:"province"`
	City          *string `json:"city"`
	District      *string `json:"district"`
	Detail        string  `json:"detail"`
	IsDefault     bool    `json:"is_default"`
	CreatedAt     string  `json:"created_at"`
}

func toAddressResp(a domain.Address) addressResp {
	return addressResp{
		ID:            a.ID,
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Province:      a.Province,
		City:          a.City,
		District:      a.District,
		Detail:        a.Detail,
		IsDefault:     a.IsDefault,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID := web.UserID(r)
	if userID == 0 {
		web.Error(w, fault.PermissionDenied("authentication required"))
		return
	}
	addresses, err := h.service.List(r.Context(), userID)
	if err != nil {
		web.Error(w, err)
		return
	}
	resp := make([]addressResp, 0, len(addresses))
	for _, a := range addresses {
		resp = append(resp, toAddressResp(a))
	}
	web.JSON(w, http.StatusOK, map[string]any{"addresses": resp})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID := web.UserID(r)
	if userID == 0 {
		web.Error(w, fault.PermissionDenied("authentication required"))
		return
	}
	var in domain.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.Error(w, fault.Validation("invalid request body"))
		return
	}
	a, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, toAddressResp(a))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID := web.UserID(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		web.Error(w, fault.Validation("invalid address id"))
		return
	}
	var in domain.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.Error(w, fault.Validation("invalid request body"))
		return
	}
	a, err := h.service.Update(r.Context(), userID, id, in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, toAddressResp(a))
}
