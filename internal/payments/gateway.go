package payments

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
)

// Gateway is the payment processor surface checkout depends on.
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*RefundResult, error)
	Methods() []MethodInfo
}

var declineReasons = []string{
	"Insufficient funds",
	"Card declined by bank",
	"Invalid card details",
	"Security verification failed",
	"Bank system temporarily unavailable",
}

// SimulatedGateway models a bank processor with configurable outcome rates.
// randFloat and now are injectable so tests can pin outcomes and dates.
type SimulatedGateway struct {
	cfg       config.GatewayConfig
	randFloat func() float64
	now       func() time.Time
}

// Option customizes a SimulatedGateway.
type Option func(*SimulatedGateway)

// WithRand overrides the outcome source.
func WithRand(f func() float64) Option {
	return func(g *SimulatedGateway) { g.randFloat = f }
}

// WithClock overrides the transaction-id date source.
func WithClock(f func() time.Time) Option {
	return func(g *SimulatedGateway) { g.now = f }
}

// NewSimulatedGateway validates the configured rates and builds the simulator.
func NewSimulatedGateway(cfg config.GatewayConfig, opts ...Option) (*SimulatedGateway, error) {
	if cfg.SuccessRate < 0 || cfg.DeclineRate < 0 || cfg.SuccessRate+cfg.DeclineRate > 1 {
		return nil, fmt.Errorf("gateway outcome rates must be non-negative and sum to at most 1")
	}
	if cfg.RefundRate < 0 || cfg.RefundRate > 1 {
		return nil, fmt.Errorf("gateway refund rate must be within [0,1]")
	}
	g := &SimulatedGateway{
		cfg:       cfg,
		randFloat: rand.Float64,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Charge runs one simulated payment. The transaction id is synthesized
// after validation passes, so declined and timed-out attempts still carry
// an id the bank could be asked about.
func (g *SimulatedGateway) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return &ChargeResult{Outcome: OutcomeFailed, Message: "Invalid payment amount"}, nil
	}

	method, ok := methodCatalog[input.Method]
	if !ok {
		return &ChargeResult{Outcome: OutcomeFailed, Message: fmt.Sprintf("Unsupported payment method: %s", input.Method)}, nil
	}
	if input.Amount.LessThan(method.MinAmount) || input.Amount.GreaterThan(method.MaxAmount) {
		return &ChargeResult{
			Outcome: OutcomeFailed,
			Message: fmt.Sprintf("Amount out of bounds for %s (%s - %s)", method.Name, method.MinAmount, method.MaxAmount),
		}, nil
	}

	if input.Method.RequiresCard() {
		if input.Card == nil {
			return &ChargeResult{Outcome: OutcomeFailed, Message: "Card details required"}, nil
		}
		if msg, ok := g.validateCard(*input.Card); !ok {
			return &ChargeResult{Outcome: OutcomeFailed, Message: fmt.Sprintf("Invalid card details: %s", msg)}, nil
		}
	}

	if err := g.sleep(ctx, g.cfg.ProcessDelay); err != nil {
		return nil, err
	}

	txnID := g.newTransactionID()
	roll := g.randFloat()

	switch {
	case roll < g.cfg.SuccessRate:
		return &ChargeResult{Outcome: OutcomeSuccess, Message: "Payment successful", TransactionID: txnID}, nil
	case roll < g.cfg.SuccessRate+g.cfg.DeclineRate:
		reason := declineReasons[int(g.randFloat()*float64(len(declineReasons)))%len(declineReasons)]
		return &ChargeResult{Outcome: OutcomeDeclined, Message: reason, TransactionID: txnID}, nil
	default:
		return &ChargeResult{Outcome: OutcomeTimeout, Message: "Payment processing timeout", TransactionID: txnID}, nil
	}
}

// Refund attempts to return funds for a prior transaction.
func (g *SimulatedGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (*RefundResult, error) {
	if !strings.HasPrefix(transactionID, "TXN-") {
		return &RefundResult{Outcome: OutcomeFailed, Message: "Invalid transaction ID"}, nil
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return &RefundResult{Outcome: OutcomeFailed, Message: "Invalid refund amount"}, nil
	}

	if err := g.sleep(ctx, g.cfg.RefundDelay); err != nil {
		return nil, err
	}

	if g.randFloat() < g.cfg.RefundRate {
		return &RefundResult{
			Outcome: OutcomeRefunded,
			Message: fmt.Sprintf("Refund of %s processed successfully", amount.StringFixed(2)),
		}, nil
	}
	return &RefundResult{Outcome: OutcomeFailed, Message: "Refund processing failed"}, nil
}

// Methods returns the supported payment methods in a stable order.
func (g *SimulatedGateway) Methods() []MethodInfo {
	out := make([]MethodInfo, 0, len(methodOrder))
	for _, m := range methodOrder {
		out = append(out, methodCatalog[m])
	}
	return out
}

func (g *SimulatedGateway) validateCard(card CardDetails) (string, bool) {
	number := strings.ReplaceAll(card.Number, " ", "")
	if len(number) != 16 || !isDigits(number) {
		return "Invalid card number format", false
	}
	if card.ExpiryMonth < 1 || card.ExpiryMonth > 12 {
		return "Invalid expiry month", false
	}
	now := g.now()
	if card.ExpiryYear < now.Year() || (card.ExpiryYear == now.Year() && time.Month(card.ExpiryMonth) < now.Month()) {
		return "Card has expired", false
	}
	if len(card.CVV) < 3 || len(card.CVV) > 4 || !isDigits(card.CVV) {
		return "Invalid CVV format", false
	}
	return "", true
}

func (g *SimulatedGateway) newTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("TXN-%s-%s", g.now().Format("20060102"), suffix)
}

func (g *SimulatedGateway) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "gateway call interrupted")
	case <-timer.C:
		return nil
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var methodOrder = []enums.PaymentMethod{
	enums.PaymentMethodCreditCard,
	enums.PaymentMethodDebitCard,
	enums.PaymentMethodNetBanking,
	enums.PaymentMethodUPI,
	enums.PaymentMethodWallet,
}

var methodCatalog = map[enums.PaymentMethod]MethodInfo{
	enums.PaymentMethodCreditCard: {
		Method:       enums.PaymentMethodCreditCard,
		Name:         "Credit Card",
		Description:  "Visa, MasterCard, American Express",
		Icon:         "credit-card",
		Currencies:   []string{"INR", "USD", "EUR"},
		MinAmount:    decimal.RequireFromString("10.00"),
		MaxAmount:    decimal.RequireFromString("50000.00"),
		RequiresCard: true,
	},
	enums.PaymentMethodDebitCard: {
		Method:       enums.PaymentMethodDebitCard,
		Name:         "Debit Card",
		Description:  "Visa, MasterCard, Rupay",
		Icon:         "debit-card",
		Currencies:   []string{"INR"},
		MinAmount:    decimal.RequireFromString("10.00"),
		MaxAmount:    decimal.RequireFromString("25000.00"),
		RequiresCard: true,
	},
	enums.PaymentMethodNetBanking: {
		Method:      enums.PaymentMethodNetBanking,
		Name:        "Net Banking",
		Description: "Direct bank transfer",
		Icon:        "bank",
		Currencies:  []string{"INR"},
		MinAmount:   decimal.RequireFromString("100.00"),
		MaxAmount:   decimal.RequireFromString("100000.00"),
	},
	enums.PaymentMethodUPI: {
		Method:      enums.PaymentMethodUPI,
		Name:        "UPI",
		Description: "Unified Payments Interface",
		Icon:        "upi",
		Currencies:  []string{"INR"},
		MinAmount:   decimal.RequireFromString("1.00"),
		MaxAmount:   decimal.RequireFromString("100000.00"),
	},
	enums.PaymentMethodWallet: {
		Method:      enums.PaymentMethodWallet,
		Name:        "Digital Wallet",
		Description: "Paytm, PhonePe, Google Pay",
		Icon:        "wallet",
		Currencies:  []string{"INR"},
		MinAmount:   decimal.RequireFromString("1.00"),
		MaxAmount:   decimal.RequireFromString("50000.00"),
	},
}
