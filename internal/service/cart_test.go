package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhouse-pos/api/internal/database"
)

func testProduct(name, price string, stock int32) database.Product {
	return database.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    makeNumeric(price),
		Stock:    stock,
		IsActive: true,
	}
}

func TestCartAdd_RejectsInactive(t *testing.T) {
	p := testProduct("Taco", "25.00", 10)
	p.IsActive = false

	cart := NewCart()
	if err := cart.Add(p); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got: %v", err)
	}
	if !cart.IsEmpty() {
		t.Error("rejected add must not stage anything")
	}
}

func TestCartAdd_RejectsZeroStock(t *testing.T) {
	cart := NewCart()
	err := cart.Add(testProduct("Taco", "25.00", 0))
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got: %v", err)
	}
}

func TestCartAdd_BumpsQuantityUpToStock(t *testing.T) {
	p := testProduct("Soda", "10.00", 2)
	cart := NewCart()

	if err := cart.Add(p); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := cart.Add(p); err != nil {
		t.Fatalf("second add: %v", err)
	}
	// Third unit exceeds the known stock of 2.
	if err := cart.Add(p); !errors.Is(err, ErrCartExceedsStock) {
		t.Fatalf("expected ErrCartExceedsStock, got: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", lines[0].Quantity)
	}
}

func TestCartLines_KeepFirstAddedOrder(t *testing.T) {
	taco := testProduct("Taco", "25.00", 10)
	soda := testProduct("Soda", "10.00", 10)

	cart := NewCart()
	for _, p := range []database.Product{taco, soda, taco, taco} {
		if err := cart.Add(p); err != nil {
			t.Fatalf("add %s: %v", p.Name, err)
		}
	}

	lines := cart.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Name != "Taco" || lines[0].Quantity != 3 {
		t.Errorf("line 0: got %s x%d, want Taco x3", lines[0].Name, lines[0].Quantity)
	}
	if lines[1].Name != "Soda" || lines[1].Quantity != 1 {
		t.Errorf("line 1: got %s x%d, want Soda x1", lines[1].Name, lines[1].Quantity)
	}

	// total = 25.00*3 + 10.00*1 = 85.00
	want, _ := decimal.NewFromString("85.00")
	if !cart.Total().Equal(want) {
		t.Errorf("total: got %v, want 85.00", cart.Total())
	}
}

func TestCartRemove(t *testing.T) {
	taco := testProduct("Taco", "25.00", 10)
	soda := testProduct("Soda", "10.00", 10)

	cart := NewCart()
	_ = cart.Add(taco)
	_ = cart.Add(taco)
	_ = cart.Add(soda)

	cart.Remove(taco.ID)
	lines := cart.Lines()
	if len(lines) != 2 || lines[0].Quantity != 1 {
		t.Fatalf("after one remove: got %+v", lines)
	}

	cart.Remove(taco.ID)
	lines = cart.Lines()
	if len(lines) != 1 || lines[0].Name != "Soda" {
		t.Fatalf("after line removal: got %+v", lines)
	}

	// Unstaged product: no-op.
	cart.Remove(uuid.New())
	if len(cart.Lines()) != 1 {
		t.Error("removing an unstaged product must be a no-op")
	}
}

func TestCartRequests(t *testing.T) {
	taco := testProduct("Taco", "25.00", 10)
	cart := NewCart()
	_ = cart.Add(taco)
	_ = cart.Add(taco)

	reqs := cart.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request line, got %d", len(reqs))
	}
	if reqs[0].ProductID != taco.ID.String() || reqs[0].Quantity != 2 {
		t.Errorf("request: got %+v", reqs[0])
	}
}

func TestGroupItems_CollapsesByProductAndState(t *testing.T) {
	tacoID := uuid.New()
	sodaID := uuid.New()
	orderID := uuid.New()

	items := []database.ListOrderItemsByOrderRow{
		{ID: uuid.New(), OrderID: orderID, ProductID: tacoID, ProductName: "Taco", Quantity: 2, Price: makeNumeric("25.00"), IsNew: false},
		{ID: uuid.New(), OrderID: orderID, ProductID: sodaID, ProductName: "Soda", Quantity: 1, Price: makeNumeric("10.00"), IsNew: false},
		{ID: uuid.New(), OrderID: orderID, ProductID: tacoID, ProductName: "Taco", Quantity: 1, Price: makeNumeric("25.00"), IsNew: false},
		{ID: uuid.New(), OrderID: orderID, ProductID: tacoID, ProductName: "Taco", Quantity: 1, Price: makeNumeric("25.00"), IsNew: true},
	}

	grouped := GroupItems(items)
	if len(grouped) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(grouped))
	}

	// Delivered tacos collapse: 2 + 1 = 3.
	if grouped[0].Name != "Taco" || grouped[0].Quantity != 3 || grouped[0].IsNew {
		t.Errorf("group 0: got %+v, want Taco x3 delivered", grouped[0])
	}
	want, _ := decimal.NewFromString("75.00")
	if !grouped[0].LineTotal.Equal(want) {
		t.Errorf("group 0 line total: got %v, want 75.00", grouped[0].LineTotal)
	}

	if grouped[1].Name != "Soda" || grouped[1].Quantity != 1 {
		t.Errorf("group 1: got %+v, want Soda x1", grouped[1])
	}

	// The pending taco stays its own line for the kitchen ticket.
	if grouped[2].Name != "Taco" || grouped[2].Quantity != 1 || !grouped[2].IsNew {
		t.Errorf("group 2: got %+v, want Taco x1 pending", grouped[2])
	}
}

func TestGroupItems_Empty(t *testing.T) {
	if got := GroupItems(nil); len(got) != 0 {
		t.Errorf("expected no groups, got %d", len(got))
	}
}
