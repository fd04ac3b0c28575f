package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/order/application"
	"github.com/seumarket/campus-market/internal/order/domain"
	"github.com/seumarket/campus-market/internal/platform/web"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/statistics", h.orderStatistics)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
	return r
}

type createOrderReq struct {
	Lines     []domain.LineRequest `json:"lines"`
	AddressID int64                `json:"address_id"`
}

type orderConfirmationResp struct {
	OrderID         int64           `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	CreatedAt       string          `json:"created_at"`
	LineCount       int             `json:"line_count"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	buyerID := web.UserID(r)
	if buyerID == 0 {
		web.Error(w, fault.PermissionDenied("authentication required"))
		return
	}
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, fault.Validation("invalid request body"))
		return
	}

	conf, err := h.service.CreateOrder(ctx, buyerID, req.Lines, req.AddressID)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, orderConfirmationResp{
		OrderID:         conf.OrderID,
		OrderNumber:     conf.OrderNumber,
		TotalAmount:     conf.TotalAmount,
		Status:          string(conf.Status),
		ShippingAddress: conf.ShippingAddress,
		CreatedAt:       conf.CreatedAt.Format(timeFormat),
		LineCount:       conf.LineCount,
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CancelOrder")
	defer span.End()

	buyerID := web.UserID(r)
	orderID, err := pathID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	if err := h.service.CancelOrder(ctx, orderID, buyerID); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusCancelled)})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	buyerID := web.UserID(r)
	orderID, err := pathID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, fault.Validation("invalid request body"))
		return
	}
	if err := h.service.UpdateOrderStatus(ctx, orderID, buyerID, domain.OrderStatus(req.Status)); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	buyerID := web.UserID(r)
	orderID, err := pathID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	detail, err := h.service.GetOrder(ctx, orderID, buyerID)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, toDetailResp(detail))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	buyerID := web.UserID(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.service.ListOrders(ctx, buyerID, page, pageSize)
	if err != nil {
		web.Error(w, err)
		return
	}
	resp := orderPageResp{
		Orders:     make([]orderSummaryResp, 0, len(result.Orders)),
		Pagination: result.Pagination,
	}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, toSummaryResp(o))
	}
	web.JSON(w, http.StatusOK, resp)
}

func (h *Handler) orderStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrderStatistics")
	defer span.End()

	stats, err := h.service.GetOrderStatistics(ctx, web.UserID(r))
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, statisticsResp{
		TotalOrders:     stats.TotalOrders,
		PendingOrders:   stats.PendingOrders,
		CompletedOrders: stats.CompletedOrders,
		TotalSpent:      stats.TotalSpent,
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.Validation("invalid order id")
	}
	return id, nil
}
