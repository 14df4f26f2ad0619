package domain

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusDisputed OrderStatus = "disputed"
)

const DefaultCurrency = "usd"

// orderTransitions lists, per current status, the statuses an order may move to.
// A write to the current status is a no-op and is not listed, except for
// disputed where the dispute sub-state itself may change. A paid order only
// reaches refunded through a lost dispute; processor refunds are recorded on
// the order without changing its status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusPaid, OrderStatusFailed},
	OrderStatusFailed:   {OrderStatusPaid},
	OrderStatusPaid:     {OrderStatusDisputed},
	OrderStatusDisputed: {OrderStatusDisputed, OrderStatusPaid, OrderStatusRefunded},
	OrderStatusRefunded: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransition reports whether an order in status from may be moved to status to.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(orderTransitions[from], to)
}

// Predecessors returns every status from which an order may move to the given
// status, sorted so it can be passed to a conditional update as-is.
func Predecessors(to OrderStatus) []string {
	var from []string
	for status, next := range orderTransitions {
		if slices.Contains(next, to) {
			from = append(from, string(status))
		}
	}

	slices.Sort(from)
	return from
}

// paymentOutcomeSources limits which statuses a payment outcome reported by
// the processor may overwrite. A late success must never clear a dispute or
// a refund.
var paymentOutcomeSources = map[OrderStatus][]OrderStatus{
	OrderStatusPaid:   {OrderStatusPending, OrderStatusFailed},
	OrderStatusFailed: {OrderStatusPending},
}

// PaymentOutcomeSources returns the statuses a payment success or failure may
// move an order out of.
func PaymentOutcomeSources(to OrderStatus) []OrderStatus {
	return slices.Clone(paymentOutcomeSources[to])
}

type Order struct {
	ID                    uuid.UUID
	OrderID               string
	ExternalID            *string
	CheckoutToken         string
	Total                 decimal.Decimal
	Quantity              int
	Currency              string
	StripePaymentIntentID *string
	ServiceID             *string
	ProviderID            *uuid.UUID
	ItemName              string
	ItemDescription       *string
	Status                OrderStatus
	DisputeID             *string
	DisputeStatus         *DisputeStatus
	DisputeAmount         *decimal.Decimal
	DisputeReason         *string
	RefundedAmount        *decimal.Decimal
	RefundedAt            *time.Time
	PaidAt                *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RedirectURL substitutes the order's public id into a provider redirect template.
func (o *Order) RedirectURL(template *string) *string {
	if template == nil || *template == "" {
		return nil
	}

	url := strings.ReplaceAll(*template, "{orderId}", o.OrderID)
	return &url
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByCheckoutToken(ctx context.Context, token string) (*Order, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error)
	// CreateFromPayment inserts the order unless one already exists for the
	// same payment intent. It reports whether a row was inserted.
	CreateFromPayment(ctx context.Context, order *Order) (bool, error)
	// Transition moves the order to the given status when its current status
	// is one of from. Writing the current status again returns the order
	// unchanged. Any other current status returns the order with
	// ErrInvalidTransition.
	Transition(ctx context.Context, id uuid.UUID, to OrderStatus, from []OrderStatus) (*Order, bool, error)
	// UpdateDispute records dispute details and moves the order to the status
	// the dispute maps to. The boolean reports whether the status changed.
	UpdateDispute(ctx context.Context, id uuid.UUID, update DisputeUpdate) (*Order, bool, error)
	// RecordRefund stores the cumulative refunded amount of a paid or disputed
	// order. The status is left untouched. The boolean reports whether the
	// stored amount changed.
	RecordRefund(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Order, bool, error)
	// ClaimNotification marks the integrator notification for the given status
	// as sent. Only the first claim for a status succeeds.
	ClaimNotification(ctx context.Context, id uuid.UUID, status OrderStatus) (bool, error)
}
