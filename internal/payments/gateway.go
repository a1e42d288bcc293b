package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mcastellan/terravia-backend/pkg/enums"
	"github.com/mcastellan/terravia-backend/pkg/types"
)

// ChargeRequest is what the platform hands to a payment gateway.
type ChargeRequest struct {
	OrderID     uuid.UUID
	AmountCents int64
	Currency    enums.Currency
	Method      enums.PaymentMethod
	Details     types.PaymentDetails
}

// ChargeResult is the gateway's settlement decision.
type ChargeResult struct {
	Approved  bool
	Reference string
	Reason    string
}

// Gateway is the settlement capability. The production integration is
// pending provider selection; the simulated gateway stands in behind
// the same interface.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway approves every charge and issues a synthetic
// settlement reference.
type SimulatedGateway struct{}

func (SimulatedGateway) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return ChargeResult{
		Approved:  true,
		Reference: fmt.Sprintf("SIM-%s", suffix),
	}, nil
}
