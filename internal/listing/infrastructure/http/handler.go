package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/listing/application"
	"github.com/seumarket/campus-market/internal/listing/domain"
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
	r.Get("/listings", h.browse)
	r.Get("/listings/{id}", h.get)
	r.Post("/listings", h.create)
	r.Patch("/listings/{id}", h.update)
	return r
}

type listingResp struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Views       int64           `json:"views"`
	ImageURL    *string         `json:"image_url"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
}

func toListingResp(l domain.Listing) listingResp {
	return listingResp{
		ID:          l.ID,
		SellerID:    l.SellerID,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Price:       l.Price,
		Stock:       l.Stock,
		Views:       l.Views,
		ImageURL:    l.ImageURL,
		IsActive:    l.Active,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	listings, total, err := h.service.Browse(r.Context(), q.Get("category"), page, pageSize)
	if err != nil {
		web.Error(w, err)
		return
	}
	resp := make([]listingResp, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, toListingResp(l))
	}
	web.JSON(w, http.StatusOK, map[string]any{"listings": resp, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		web.Error(w, fault.Validation("invalid listing id"))
		return
	}
	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, toListingResp(l))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sellerID := web.UserID(r)
	if sellerID == 0 {
		web.Error(w, fault.PermissionDenied("authentication required"))
		return
	}
	var in domain.ListingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.Error(w, fault.Validation("invalid request body"))
		return
	}
	l, err := h.service.Create(r.Context(), sellerID, in)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, toListingResp(l))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sellerID := web.UserID(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		web.Error(w, fault.Validation("invalid listing id"))
		return
	}
	var patch domain.ListingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		web.Error(w, fault.Validation("invalid request body"))
		return
	}
	l, err := h.service.Update(r.Context(), sellerID, id, patch)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, toListingResp(l))
}
