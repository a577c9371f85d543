package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spinshelf/spinshelf-backend/pkg/db/models"
)

// NewOrderNumber mints a human-readable order reference. Uniqueness is
// enforced by the database index; the uuid fragment keeps collisions
// implausible within a day.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("SO-%s-%s", now.UTC().Format("20060102"), shortRef())
}

// NewInvoiceNumber mints a human-readable invoice reference.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("20060102"), shortRef())
}

func shortRef() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// InvoiceForOrder derives the invoice rows from an order's totals.
func InvoiceForOrder(order *models.Order, now time.Time) *models.Invoice {
	return &models.Invoice{
		OrderID:       order.ID,
		InvoiceNumber: NewInvoiceNumber(now),
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.ShippingCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		IssuedAt:      now.UTC(),
	}
}
