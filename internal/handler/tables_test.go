package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bhouse-pos/api/internal/database"
	"github.com/bhouse-pos/api/internal/handler"
	"github.com/bhouse-pos/api/internal/service"
)

// --- Mocks ---

type mockTableService struct {
	setCountFn func(ctx context.Context, count int32) (int64, error)
}

func (m *mockTableService) SetTableCount(ctx context.Context, count int32) (int64, error) {
	return m.setCountFn(ctx, count)
}

type mockTableReadStore struct {
	tables []database.Table
}

func (m *mockTableReadStore) ListTables(_ context.Context) ([]database.Table, error) {
	return m.tables, nil
}

func setupTableRouter(svc *mockTableService, store *mockTableReadStore, hub *spyHub) *chi.Mux {
	h := handler.NewTableHandler(svc, store, hub)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	h.RegisterAdminRoutes(r)
	return r
}

// --- Tests ---

func TestTableList_ReturnsFloorPlan(t *testing.T) {
	store := &mockTableReadStore{tables: []database.Table{
		{ID: uuid.New(), Number: 1, Status: "free"},
		{ID: uuid.New(), Number: 2, Status: "occupied"},
	}}
	router := setupTableRouter(&mockTableService{}, store, &spyHub{})

	rr := doRequest(t, router, "GET", "/tables", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	tables := resp["tables"].([]interface{})
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	second := tables[1].(map[string]interface{})
	if second["status"] != "occupied" {
		t.Errorf("status: got %v, want 'occupied'", second["status"])
	}
}

func TestTableSetCount_Valid(t *testing.T) {
	svc := &mockTableService{
		setCountFn: func(_ context.Context, count int32) (int64, error) {
			if count != 12 {
				t.Errorf("count: got %d, want 12", count)
			}
			return 12, nil
		},
	}
	hub := &spyHub{}
	router := setupTableRouter(svc, &mockTableReadStore{}, hub)

	rr := doRequest(t, router, "PUT", "/tables/count", map[string]interface{}{"count": 12})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["count"] != float64(12) {
		t.Errorf("count: got %v, want 12", resp["count"])
	}
	if !hub.published("table.updated") {
		t.Error("expected table.updated event")
	}
}

func TestTableSetCount_OutOfRange(t *testing.T) {
	svc := &mockTableService{
		setCountFn: func(_ context.Context, _ int32) (int64, error) {
			return 0, service.ErrInvalidTableCount
		},
	}
	router := setupTableRouter(svc, &mockTableReadStore{}, &spyHub{})

	rr := doRequest(t, router, "PUT", "/tables/count", map[string]interface{}{"count": 0})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTableSetCount_TablesStillInUse(t *testing.T) {
	svc := &mockTableService{
		setCountFn: func(_ context.Context, _ int32) (int64, error) {
			return 0, service.ErrTablesStillInUse
		},
	}
	hub := &spyHub{}
	router := setupTableRouter(svc, &mockTableReadStore{}, hub)

	rr := doRequest(t, router, "PUT", "/tables/count", map[string]interface{}{"count": 2})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	if len(hub.events) != 0 {
		t.Error("rejected shrink should broadcast nothing")
	}
}

func TestTableSetCount_InvalidBody(t *testing.T) {
	router := setupTableRouter(&mockTableService{}, &mockTableReadStore{}, &spyHub{})

	rr := doRequest(t, router, "PUT", "/tables/count", "not json")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
