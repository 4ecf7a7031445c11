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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/ws"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]database.Product, error)
	ListActiveProducts(ctx context.Context) ([]database.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SetProductActive(ctx context.Context, arg database.SetProductActiveParams) (database.Product, error)
}

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	store ProductStore
	hub   Broadcaster
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, hub Broadcaster) *ProductHandler {
	return &ProductHandler{store: store, hub: hub}
}

// RegisterRoutes registers the read side available to every role.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.List)
}

// RegisterAdminRoutes registers catalog management endpoints.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Post("/products/{id}/toggle", h.Toggle)
}

// --- Request / Response types ---

type createProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int32  `json:"stock"`
}

type updateProductRequest struct {
	Price string `json:"price"`
	Stock int32  `json:"stock"`
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int32     `json:"stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
}

// --- Handlers ---

// List handles GET /products: active products by default, the full
// catalog with ?all=true (the admin screen shows inactive ones dimmed).
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		products []database.Product
		err      error
	)
	if r.URL.Query().Get("all") == "true" {
		products, err = h.store.ListProducts(r.Context())
	} else {
		products, err = h.store.ListActiveProducts(r.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("list products")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = dbProductToResponse(p)
	}
	writeJSON(w, http.StatusOK, productListResponse{Products: resp})
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, ok := parsePrice(req.Price)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative number"})
		return
	}
	if req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must be >= 0"})
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:  req.Name,
		Price: price,
		Stock: req.Stock,
	})
	if err != nil {
		log.Error().Err(err).Msg("create product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbProductToResponse(product)
	h.hub.Publish(ws.EventCatalogUpdated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PUT /products/{id}: price and stock only, the name is
// fixed at creation.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, ok := parsePrice(req.Price)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative number"})
		return
	}
	if req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock must be >= 0"})
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:    id,
		Price: price,
		Stock: req.Stock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Error().Err(err).Msg("update product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbProductToResponse(product)
	h.hub.Publish(ws.EventCatalogUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Toggle handles POST /products/{id}/toggle: flip availability without
// deleting. Ordered items keep their product reference either way.
func (h *ProductHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	current, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Error().Err(err).Msg("get product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	product, err := h.store.SetProductActive(r.Context(), database.SetProductActiveParams{
		ID:       id,
		IsActive: !current.IsActive,
	})
	if err != nil {
		log.Error().Err(err).Msg("toggle product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbProductToResponse(product)
	h.hub.Publish(ws.EventCatalogUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func parsePrice(s string) (pgtype.Numeric, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return pgtype.Numeric{}, false
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, false
	}
	return n, true
}

func dbProductToResponse(p database.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     numericToString(p.Price),
		Stock:     p.Stock,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
