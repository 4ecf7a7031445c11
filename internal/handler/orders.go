package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/enum"
	"github.com/bhouse-pos/api/internal/middleware"
	"github.com/bhouse-pos/api/internal/service"
	"github.com/bhouse-pos/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	SendToKitchen(ctx context.Context, req service.SendToKitchenRequest) (*service.SendToKitchenResult, error)
	MarkReady(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	CloseBill(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	CashCut(ctx context.Context) (*service.CashCutResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
}

// Broadcaster pushes typed change events to connected clients.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Publish(eventType string, payload any)
}

// OrderUserStore resolves the acting user, for stamping the waiter's
// name onto new orders.
type OrderUserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	users OrderUserStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, users OrderUserStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, users: users, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
}

// RegisterWaiterRoutes registers the order intents a waiter may perform.
func (h *OrderHandler) RegisterWaiterRoutes(r chi.Router) {
	r.Post("/tables/{id}/order", h.SendToKitchen)
	r.Post("/orders/{id}/deliver", h.Deliver)
	r.Post("/orders/{id}/close", h.Close)
}

// RegisterKitchenRoutes registers the kitchen confirmation intent.
func (h *OrderHandler) RegisterKitchenRoutes(r chi.Router) {
	r.Post("/orders/{id}/ready", h.Ready)
}

// RegisterAdminRoutes registers admin-only order operations.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/cash-cut", h.CashCut)
}

// --- Request / Response types ---

type sendToKitchenRequest struct {
	Items []cartLineRequest `json:"items"`
}

type cartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type orderResponse struct {
	ID         uuid.UUID `json:"id"`
	TableID    uuid.UUID `json:"table_id"`
	Total      string    `json:"total"`
	Status     string    `json:"status"`
	WaiterName string    `json:"waiter_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Reopened   bool      `json:"reopened,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Quantity  int32     `json:"quantity"`
	Price     string    `json:"price"`
	IsNew     bool      `json:"is_new"`
}

// orderDetailResponse extends orderResponse with raw items plus the
// grouped display lines clients render.
type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse   `json:"items"`
	Lines []service.GroupedItem `json:"lines"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

type cashCutResponse struct {
	ArchivedCount int    `json:"archived_count"`
	Total         string `json:"total"`
}

// --- Handlers ---

// SendToKitchen handles POST /tables/{id}/order: it submits the staged
// cart as one atomic batch against the table.
func (h *OrderHandler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req sendToKitchenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "product_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	waiter, err := h.waiterName(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Msg("resolve waiter name")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	svcItems := make([]service.CartLineRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CartLineRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	result, err := h.svc.SendToKitchen(r.Context(), service.SendToKitchenRequest{
		TableID:    tableID,
		WaiterName: waiter,
		Items:      svcItems,
	})
	if err != nil {
		h.writeOrderError(w, err, "send to kitchen")
		return
	}

	resp := dbOrderToResponse(result.Order)
	resp.Reopened = result.Reopened

	h.hub.Publish(ws.EventOrderUpdated, resp)
	h.hub.Publish(ws.EventStockChanged, stockChangePayload(req.Items))
	if !result.Reopened && result.Order.Status == enum.OrderStatusOpen {
		h.hub.Publish(ws.EventTableUpdated, map[string]string{
			"table_id": tableID.String(),
			"status":   enum.TableStatusOccupied,
		})
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders with an optional ?status= filter.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{}
	if s := r.URL.Query().Get("status"); s != "" {
		if !enum.IsValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("list orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp})
}

// Get handles GET /orders/{id}: the order, its raw items and the grouped
// display lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Msg("get order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("list order items")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	itemResponses := make([]orderItemResponse, len(items))
	for i, item := range items {
		itemResponses[i] = orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			Price:     numericToString(item.Price),
			IsNew:     item.IsNew,
		}
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: dbOrderToResponse(order),
		Items:         itemResponses,
		Lines:         service.GroupItems(items),
	})
}

// Ready handles POST /orders/{id}/ready: the kitchen confirms the
// current batch.
func (h *OrderHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.MarkReady, "mark ready")
}

// Deliver handles POST /orders/{id}/deliver.
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.MarkDelivered, "mark delivered")
}

// Close handles POST /orders/{id}/close: settle the bill and free the
// table.
func (h *OrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.CloseBill(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, err, "close bill")
		return
	}

	resp := dbOrderToResponse(order)
	h.hub.Publish(ws.EventOrderUpdated, resp)
	h.hub.Publish(ws.EventTableUpdated, map[string]string{
		"table_id": order.TableID.String(),
		"status":   enum.TableStatusFree,
	})
	writeJSON(w, http.StatusOK, resp)
}

// CashCut handles POST /cash-cut: archive every closed order.
func (h *OrderHandler) CashCut(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CashCut(r.Context())
	if err != nil {
		h.writeOrderError(w, err, "cash cut")
		return
	}

	resp := cashCutResponse{
		ArchivedCount: result.ArchivedCount,
		Total:         result.Total.StringFixed(2),
	}
	h.hub.Publish(ws.EventOrderUpdated, map[string]any{
		"action":         "cash_cut",
		"archived_count": result.ArchivedCount,
	})
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// transition runs a single-order status change and broadcasts the result.
func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (database.Order, error), op string) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := fn(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, err, op)
		return
	}

	resp := dbOrderToResponse(order)
	h.hub.Publish(ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// writeOrderError maps service errors to HTTP status codes.
func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error, op string) {
	switch {
	case isOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isOrderConflictError(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isOrderValidationError reports errors that should result in 400.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrProductNotFound)
}

// isOrderConflictError reports guard failures that should result in 409.
func isOrderConflictError(err error) bool {
	return errors.Is(err, service.ErrInsufficientStock) ||
		errors.Is(err, service.ErrOrderNotOpen) ||
		errors.Is(err, service.ErrNothingToDeliver) ||
		errors.Is(err, service.ErrKitchenPending) ||
		errors.Is(err, service.ErrDeliveryPending) ||
		errors.Is(err, service.ErrOrderAlreadyClosed) ||
		errors.Is(err, service.ErrNoClosedOrders)
}

// waiterName resolves the acting user's display name.
func (h *OrderHandler) waiterName(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.FullName, nil
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

func stockChangePayload(items []cartLineRequest) map[string]any {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return map[string]any{"product_ids": ids}
}

func dbOrderToResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		TableID:    o.TableID,
		Total:      numericToString(o.Total),
		Status:     o.Status,
		WaiterName: o.WaiterName,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
