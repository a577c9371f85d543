package enums

import "fmt"

// StockMovementDirection marks whether stock entered or left the warehouse.
type StockMovementDirection string

const (
	StockMovementEntry StockMovementDirection = "entry"
	StockMovementExit  StockMovementDirection = "exit"
)

// IsValid reports whether the value is a known direction.
func (d StockMovementDirection) IsValid() bool {
	return d == StockMovementEntry || d == StockMovementExit
}

// String implements fmt.Stringer.
func (d StockMovementDirection) String() string {
	return string(d)
}

// StockMovementReference names the operation that caused a stock change.
type StockMovementReference string

const (
	StockMovementReferenceOrder        StockMovementReference = "order"
	StockMovementReferenceCancellation StockMovementReference = "cancellation"
	StockMovementReferenceManual       StockMovementReference = "manual"
)

var validStockMovementReferences = []StockMovementReference{
	StockMovementReferenceOrder,
	StockMovementReferenceCancellation,
	StockMovementReferenceManual,
}

// IsValid reports whether the value is a known reference type.
func (r StockMovementReference) IsValid() bool {
	for _, candidate := range validStockMovementReferences {
		if candidate == r {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (r StockMovementReference) String() string {
	return string(r)
}

// ParseStockMovementReference converts raw input into a reference type.
func ParseStockMovementReference(value string) (StockMovementReference, error) {
	for _, candidate := range validStockMovementReferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reference %q", value)
}
