package market

import (
	"strings"

	"github.com/google/uuid"
)

// OrderParams is a venue-agnostic order request. Price and size travel as
// strings so venue tick/lot formatting survives the trip to the adapter
// untouched. Optional fields use the zero value for "not set"; Extra
// carries venue-specific knobs that have no normalized home.
type OrderParams struct {
	Inst          string
	Side          OrderSide
	Size          string
	OrderType     OrderType
	Price         string
	ReduceOnly    bool
	MarginMode    MarginMode
	PositionSide  PositionSide
	TimeInForce   TimeInForce
	ClientOrderID string
	Extra         map[string]string
}

// NewClientOrderID returns a fresh client order id suitable for every
// supported venue (alphanumeric, 32 chars).
func NewClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// OrderAck is the immediate REST acknowledgement of a placed or canceled
// order. Venue adapters normalize into this before returning.
type OrderAck struct {
	OrderID       string
	ClientOrderID string
	Status        OrderStatus
}
