package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/service"
	"github.com/bhouse-pos/api/internal/ws"
)

// TableServicer defines the service methods needed by table handlers.
type TableServicer interface {
	SetTableCount(ctx context.Context, count int32) (int64, error)
}

// TableStore defines the database methods needed by table read handlers.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.Table, error)
}

// TableHandler handles floor plan endpoints.
type TableHandler struct {
	svc   TableServicer
	store TableStore
	hub   Broadcaster
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc TableServicer, store TableStore, hub Broadcaster) *TableHandler {
	return &TableHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers the read side available to every role.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
}

// RegisterAdminRoutes registers floor plan management.
func (h *TableHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/tables/count", h.SetCount)
}

// --- Request / Response types ---

type setTableCountRequest struct {
	Count int32 `json:"count"`
}

type tableResponse struct {
	ID     uuid.UUID `json:"id"`
	Number int32     `json:"number"`
	Status string    `json:"status"`
}

type tableListResponse struct {
	Tables []tableResponse `json:"tables"`
}

type tableCountResponse struct {
	Count int64 `json:"count"`
}

// --- Handlers ---

// List handles GET /tables, ordered by table number.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list tables")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = tableResponse{ID: t.ID, Number: t.Number, Status: t.Status}
	}
	writeJSON(w, http.StatusOK, tableListResponse{Tables: resp})
}

// SetCount handles PUT /tables/count: grow or shrink the floor plan.
func (h *TableHandler) SetCount(w http.ResponseWriter, r *http.Request) {
	var req setTableCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	count, err := h.svc.SetTableCount(r.Context(), req.Count)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTableCount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrTablesStillInUse):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("set table count")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.hub.Publish(ws.EventTableUpdated, map[string]any{"count": count})
	writeJSON(w, http.StatusOK, tableCountResponse{Count: count})
}
