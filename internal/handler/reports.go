package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/enum"
)

// Products at or below this stock level show up on the dashboard alert.
const lowStockThreshold = 10

// ReportStore defines the database methods needed by the dashboard.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	SumOrderTotalsByStatus(ctx context.Context, status string) (pgtype.Numeric, error)
	SumActiveOrderTotals(ctx context.Context) (pgtype.Numeric, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)
	CountOccupiedTables(ctx context.Context) (int64, error)
	ListLowStockProducts(ctx context.Context, threshold int32) ([]database.Product, error)
	WarehouseValuation(ctx context.Context) (pgtype.Numeric, error)
	ListLowStockWarehouseItems(ctx context.Context) ([]database.WarehouseItem, error)
}

// ReportHandler serves the admin dashboard aggregates.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterAdminRoutes registers reporting endpoints.
func (h *ReportHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/reports/dashboard", h.Dashboard)
}

// --- Response types ---

type dashboardResponse struct {
	ClosedTotal        string                  `json:"closed_total"`
	ActiveTotal        string                  `json:"active_total"`
	OccupiedTables     int64                   `json:"occupied_tables"`
	OpenOrders         int64                   `json:"open_orders"`
	LowStockProducts   []productResponse       `json:"low_stock_products"`
	WarehouseValuation string                  `json:"warehouse_valuation"`
	WarehouseLowStock  []warehouseItemResponse `json:"warehouse_low_stock"`
}

// --- Handlers ---

// Dashboard handles GET /reports/dashboard: the numbers an admin checks
// between cash cuts. ClosedTotal is what the next cash cut will archive;
// ActiveTotal is every peso not yet archived.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	closedTotal, err := h.store.SumOrderTotalsByStatus(ctx, enum.OrderStatusClosed)
	if err != nil {
		h.fail(w, err, "sum closed totals")
		return
	}

	activeTotal, err := h.store.SumActiveOrderTotals(ctx)
	if err != nil {
		h.fail(w, err, "sum active totals")
		return
	}

	occupied, err := h.store.CountOccupiedTables(ctx)
	if err != nil {
		h.fail(w, err, "count occupied tables")
		return
	}

	openOrders, err := h.store.CountOrdersByStatus(ctx, enum.OrderStatusOpen)
	if err != nil {
		h.fail(w, err, "count open orders")
		return
	}

	lowProducts, err := h.store.ListLowStockProducts(ctx, lowStockThreshold)
	if err != nil {
		h.fail(w, err, "list low stock products")
		return
	}

	valuation, err := h.store.WarehouseValuation(ctx)
	if err != nil {
		h.fail(w, err, "warehouse valuation")
		return
	}

	lowWarehouse, err := h.store.ListLowStockWarehouseItems(ctx)
	if err != nil {
		h.fail(w, err, "list low stock warehouse items")
		return
	}

	productResps := make([]productResponse, len(lowProducts))
	for i, p := range lowProducts {
		productResps[i] = dbProductToResponse(p)
	}
	warehouseResps := make([]warehouseItemResponse, len(lowWarehouse))
	for i, item := range lowWarehouse {
		warehouseResps[i] = dbWarehouseItemToResponse(item)
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		ClosedTotal:        numericToString(closedTotal),
		ActiveTotal:        numericToString(activeTotal),
		OccupiedTables:     occupied,
		OpenOrders:         openOrders,
		LowStockProducts:   productResps,
		WarehouseValuation: numericToString(valuation),
		WarehouseLowStock:  warehouseResps,
	})
}

func (h *ReportHandler) fail(w http.ResponseWriter, err error, op string) {
	log.Error().Err(err).Msg(op)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
