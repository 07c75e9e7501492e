// internal/services/payment_gateway.go
package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/javajoker/beatmarket/internal/models"
)

type ChargeRequest struct {
	Amount      float64
	Currency    string
	Method      models.PaymentMethod
	Details     map[string]string
	Description string
	Metadata    map[string]string
}

// ChargeResult is the settled outcome of a charge. Only Success moves money.
type ChargeResult struct {
	Success   bool
	Reference string
	Status    string
	Message   string
}

// PaymentGateway is the only source of truth for whether money changed hands.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// SimulatedGateway settles card payments immediately. Bank transfer and bitcoin
// payments never settle synchronously and are reported as pending.
type SimulatedGateway struct {
	Latency time.Duration
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.Latency > 0 {
		select {
		case <-time.After(g.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch req.Method {
	case models.PaymentMethodCard:
		if strings.TrimSpace(req.Details["card_number"]) == "" && req.Details["payment_method_id"] == "" {
			return &ChargeResult{Success: false, Status: "declined", Message: "card details missing"}, nil
		}
		return &ChargeResult{Success: true, Reference: "sim_" + uuid.NewString(), Status: "succeeded"}, nil
	case models.PaymentMethodTransfer, models.PaymentMethodBitcoin:
		return &ChargeResult{Success: false, Status: "pending", Message: "payment awaiting external confirmation"}, nil
	default:
		return &ChargeResult{Success: false, Status: "unsupported", Message: fmt.Sprintf("unsupported payment method %q", req.Method)}, nil
	}
}

// StripeGateway confirms a PaymentIntent synchronously for card payments.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Method != models.PaymentMethodCard {
		return &ChargeResult{Success: false, Status: "unsupported", Message: "only card payments are processed by stripe"}, nil
	}

	paymentMethodID := req.Details["payment_method_id"]
	if paymentMethodID == "" {
		return &ChargeResult{Success: false, Status: "declined", Message: "payment_method_id is required"}, nil
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Description),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Type == stripe.ErrorTypeCard {
			return &ChargeResult{Success: false, Status: "declined", Message: stripeErr.Msg}, nil
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &ChargeResult{
		Success:   pi.Status == stripe.PaymentIntentStatusSucceeded,
		Reference: pi.ID,
		Status:    string(pi.Status),
	}, nil
}
