package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhouse-pos/api/internal/config"
	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/enum"
	"github.com/bhouse-pos/api/internal/handler"
	mw "github.com/bhouse-pos/api/internal/middleware"
	"github.com/bhouse-pos/api/internal/service"
	"github.com/bhouse-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Route groups follow the three roles: every authenticated user reads,
// waiters drive the order lifecycle, the kitchen confirms batches, and
// admins manage catalog, floor plan, warehouse and reports.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services
	orderService := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	tableService := service.NewTableService(pool, func(db database.DBTX) service.TableStore {
		return database.New(db)
	})

	// Handlers
	orderHandler := handler.NewOrderHandler(orderService, queries, queries, hub)
	productHandler := handler.NewProductHandler(queries, hub)
	tableHandler := handler.NewTableHandler(tableService, queries, hub)
	warehouseHandler := handler.NewWarehouseHandler(queries, hub)
	reportHandler := handler.NewReportHandler(queries)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Read side, every role
		orderHandler.RegisterRoutes(r)
		productHandler.RegisterRoutes(r)
		tableHandler.RegisterRoutes(r)

		// Waiter intents
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleWaiter, enum.RoleAdmin))
			orderHandler.RegisterWaiterRoutes(r)
		})

		// Kitchen confirmation
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleKitchen, enum.RoleAdmin))
			orderHandler.RegisterKitchenRoutes(r)
		})

		// Admin-only management
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))
			orderHandler.RegisterAdminRoutes(r)
			productHandler.RegisterAdminRoutes(r)
			tableHandler.RegisterAdminRoutes(r)
			warehouseHandler.RegisterAdminRoutes(r)
			reportHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}
