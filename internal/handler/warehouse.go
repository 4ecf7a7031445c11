package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/ws"
)

// WarehouseStore defines the database methods needed by warehouse handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type WarehouseStore interface {
	ListWarehouseItems(ctx context.Context) ([]database.WarehouseItem, error)
	GetWarehouseItem(ctx context.Context, id uuid.UUID) (database.WarehouseItem, error)
	CreateWarehouseItem(ctx context.Context, arg database.CreateWarehouseItemParams) (database.WarehouseItem, error)
	UpdateWarehouseItem(ctx context.Context, arg database.UpdateWarehouseItemParams) (database.WarehouseItem, error)
	DeleteWarehouseItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// WarehouseHandler handles raw material inventory endpoints.
type WarehouseHandler struct {
	store WarehouseStore
	hub   Broadcaster
}

// NewWarehouseHandler creates a new WarehouseHandler.
func NewWarehouseHandler(store WarehouseStore, hub Broadcaster) *WarehouseHandler {
	return &WarehouseHandler{store: store, hub: hub}
}

// RegisterAdminRoutes registers warehouse endpoints. The warehouse is
// back-of-house bookkeeping, so every route is admin-only.
func (h *WarehouseHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/warehouse", h.List)
	r.Post("/warehouse", h.Create)
	r.Put("/warehouse/{id}", h.Update)
	r.Delete("/warehouse/{id}", h.Delete)
}

// --- Request / Response types ---

type warehouseItemRequest struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
	UnitCost string `json:"unit_cost"`
	MinStock int32  `json:"min_stock"`
}

type warehouseItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Quantity  int32     `json:"quantity"`
	UnitCost  string    `json:"unit_cost"`
	MinStock  int32     `json:"min_stock"`
	LowStock  bool      `json:"low_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type warehouseListResponse struct {
	Items []warehouseItemResponse `json:"items"`
}

// --- Handlers ---

// List handles GET /warehouse.
func (h *WarehouseHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListWarehouseItems(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list warehouse items")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]warehouseItemResponse, len(items))
	for i, item := range items {
		resp[i] = dbWarehouseItemToResponse(item)
	}
	writeJSON(w, http.StatusOK, warehouseListResponse{Items: resp})
}

// Create handles POST /warehouse.
func (h *WarehouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeWarehouseRequest(w, r)
	if !ok {
		return
	}

	unitCost, ok := parsePrice(req.UnitCost)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_cost must be a non-negative number"})
		return
	}

	item, err := h.store.CreateWarehouseItem(r.Context(), database.CreateWarehouseItemParams{
		Name:     req.Name,
		Quantity: req.Quantity,
		UnitCost: unitCost,
		MinStock: req.MinStock,
	})
	if err != nil {
		log.Error().Err(err).Msg("create warehouse item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbWarehouseItemToResponse(item)
	h.hub.Publish(ws.EventWarehouseUpdated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PUT /warehouse/{id}.
func (h *WarehouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	req, ok := decodeWarehouseRequest(w, r)
	if !ok {
		return
	}

	unitCost, ok := parsePrice(req.UnitCost)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_cost must be a non-negative number"})
		return
	}

	item, err := h.store.UpdateWarehouseItem(r.Context(), database.UpdateWarehouseItemParams{
		ID:       id,
		Name:     req.Name,
		Quantity: req.Quantity,
		UnitCost: unitCost,
		MinStock: req.MinStock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Error().Err(err).Msg("update warehouse item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbWarehouseItemToResponse(item)
	h.hub.Publish(ws.EventWarehouseUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /warehouse/{id}.
func (h *WarehouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	deleted, err := h.store.DeleteWarehouseItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Error().Err(err).Msg("delete warehouse item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Publish(ws.EventWarehouseUpdated, map[string]string{"deleted_id": deleted.String()})
	writeJSON(w, http.StatusOK, map[string]string{"deleted_id": deleted.String()})
}

// --- Helpers ---

func decodeWarehouseRequest(w http.ResponseWriter, r *http.Request) (warehouseItemRequest, bool) {
	var req warehouseItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return req, false
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be >= 0"})
		return req, false
	}
	if req.MinStock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_stock must be >= 0"})
		return req, false
	}
	return req, true
}

func dbWarehouseItemToResponse(item database.WarehouseItem) warehouseItemResponse {
	return warehouseItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitCost:  numericToString(item.UnitCost),
		MinStock:  item.MinStock,
		LowStock:  item.Quantity <= item.MinStock,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
