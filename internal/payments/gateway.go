package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ChargeInput is what the gateway needs to authorize a payment.
type ChargeInput struct {
	OrderID     uuid.UUID
	UserID      uuid.UUID
	AmountCents int
	Currency    string
}

// ChargeResult carries the gateway's references for a successful charge.
type ChargeResult struct {
	TransactionRef string
	GatewayID      string
}

// Gateway authorizes charges. A returned error means the charge was
// declined or the gateway was unreachable.
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (ChargeResult, error)
}

type simulatedGateway struct{}

// NewSimulatedGateway returns a gateway that approves every charge with
// synthetic references. Real processors plug in behind the same interface.
func NewSimulatedGateway() Gateway {
	return simulatedGateway{}
}

func (simulatedGateway) Charge(ctx context.Context, input ChargeInput) (ChargeResult, error) {
	ref := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ChargeResult{
		TransactionRef: "txn_" + ref,
		GatewayID:      "sim_" + ref[:12],
	}, nil
}
