package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhouse-pos/api/internal/database"
)

var (
	ErrProductUnavailable = errors.New("no stock")
	ErrCartExceedsStock   = errors.New("insufficient stock")
)

// CartLine is one staged product with its quantity and snapshot price.
type CartLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	stock     int32
}

// Cart stages items against known stock before anything is sent to the
// kitchen. Lines keep the order the product was first added in; adding
// the same product again bumps its quantity instead of appending.
//
// The stock checks here are advisory, against the snapshot the caller
// loaded. The authoritative check is the atomic debit performed when
// the cart is sent.
type Cart struct {
	lines []CartLine
	index map[uuid.UUID]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[uuid.UUID]int)}
}

// Add stages one unit of the product. Inactive or zero-stock products
// are rejected outright; a product already staged up to its known stock
// cannot be bumped further.
func (c *Cart) Add(p database.Product) error {
	if !p.IsActive || p.Stock <= 0 {
		return ErrProductUnavailable
	}
	if i, ok := c.index[p.ID]; ok {
		if c.lines[i].Quantity+1 > p.Stock {
			return ErrCartExceedsStock
		}
		c.lines[i].Quantity++
		c.lines[i].stock = p.Stock
		return nil
	}
	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: numericToDecimal(p.Price),
		Quantity:  1,
		stock:     p.Stock,
	})
	return nil
}

// Remove drops one unit of the product; the line disappears when its
// quantity hits zero. Removing an unstaged product is a no-op.
func (c *Cart) Remove(productID uuid.UUID) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
}

// Lines returns the staged lines in first-added order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is Σ(unit price × quantity) over the staged lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Requests converts the staged lines into a send-to-kitchen payload.
func (c *Cart) Requests() []CartLineRequest {
	reqs := make([]CartLineRequest, 0, len(c.lines))
	for _, line := range c.lines {
		reqs = append(reqs, CartLineRequest{
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		})
	}
	return reqs
}
