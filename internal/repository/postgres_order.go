package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"id",
	"order_id",
	"external_id",
	"checkout_token",
	"total",
	"quantity",
	"currency",
	"stripe_payment_intent_id",
	"service_id",
	"provider_id",
	"item_name",
	"item_description",
	"status",
	"dispute_id",
	"dispute_status",
	"dispute_amount",
	"dispute_reason",
	"refunded_amount",
	"refunded_at",
	"paid_at",
	"created_at",
	"updated_at",
}

func selectOrderColumns(prefix string) string {
	cols := make([]string, len(orderColumns))
	for i, col := range orderColumns {
		cols[i] = prefix + col
	}

	return strings.Join(cols, ", ")
}

type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

func NewPostgresOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db: db,
	}
}

func (p *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id,
			order_id,
			external_id,
			checkout_token,
			total,
			quantity,
			currency,
			stripe_payment_intent_id,
			service_id,
			provider_id,
			item_name,
			item_description,
			status,
			paid_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			CASE WHEN $13 = 'paid' THEN NOW() END)
		RETURNING paid_at, created_at, updated_at
	`

	err := p.db.QueryRow(ctx, query, orderInsertArgs(order)...).
		Scan(&order.PaidAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return mapOrderWriteError(err)
	}

	return nil
}

func (p *PostgresOrderRepository) CreateFromPayment(ctx context.Context, order *domain.Order) (bool, error) {
	query := `
		INSERT INTO orders (
			id,
			order_id,
			external_id,
			checkout_token,
			total,
			quantity,
			currency,
			stripe_payment_intent_id,
			service_id,
			provider_id,
			item_name,
			item_description,
			status,
			paid_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			CASE WHEN $13 = 'paid' THEN NOW() END)
		ON CONFLICT (stripe_payment_intent_id) DO NOTHING
		RETURNING paid_at, created_at, updated_at
	`

	err := p.db.QueryRow(ctx, query, orderInsertArgs(order)...).
		Scan(&order.PaidAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, mapOrderWriteError(err)
	}

	return true, nil
}

func (p *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, selectOrderColumns(""))

	return scanOrder(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresOrderRepository) GetByCheckoutToken(ctx context.Context, token string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE checkout_token = $1`, selectOrderColumns(""))

	return scanOrder(p.db.QueryRow(ctx, query, token))
}

func (p *PostgresOrderRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE stripe_payment_intent_id = $1`, selectOrderColumns(""))

	return scanOrder(p.db.QueryRow(ctx, query, paymentIntentID))
}

func (p *PostgresOrderRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	to domain.OrderStatus,
	from []domain.OrderStatus) (*domain.Order, bool, error) {

	allowed := make([]string, 0, len(from))
	for _, status := range from {
		if status != to && domain.CanTransition(status, to) {
			allowed = append(allowed, string(status))
		}
	}

	query := fmt.Sprintf(`
		UPDATE orders
		SET status = $2,
			paid_at = CASE WHEN $2 = 'paid' THEN COALESCE(paid_at, NOW()) ELSE paid_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING %s
	`, selectOrderColumns(""))

	order, err := scanOrder(p.db.QueryRow(ctx, query, id, string(to), allowed))
	if err == nil {
		return order, true, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, err
	}

	return p.unchanged(ctx, id, to)
}

func (p *PostgresOrderRepository) UpdateDispute(
	ctx context.Context,
	id uuid.UUID,
	update domain.DisputeUpdate) (*domain.Order, bool, error) {

	to := update.Status.OrderStatus()

	query := fmt.Sprintf(`
		WITH prev AS (
			SELECT id, status FROM orders WHERE id = $1 FOR UPDATE
		)
		UPDATE orders o
		SET status = $2,
			dispute_id = $3,
			dispute_status = $4,
			dispute_amount = $5,
			dispute_reason = NULLIF($6, ''),
			updated_at = NOW()
		FROM prev
		WHERE o.id = prev.id AND (prev.status = $2 OR prev.status = ANY($7))
		RETURNING prev.status, %s
	`, selectOrderColumns("o."))

	var previous string

	order, err := scanOrder(p.db.QueryRow(
		ctx,
		query,
		id,
		string(to),
		update.DisputeID,
		string(update.Status),
		update.Amount,
		update.Reason,
		domain.DisputeSources(to),
	), &previous)
	if err == nil {
		return order, domain.OrderStatus(previous) != to, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, err
	}

	current, _, err := p.unchanged(ctx, id, to)
	if err == nil {
		err = fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, to)
	}

	return current, false, err
}

func (p *PostgresOrderRepository) RecordRefund(
	ctx context.Context,
	id uuid.UUID,
	amount decimal.Decimal) (*domain.Order, bool, error) {

	query := fmt.Sprintf(`
		UPDATE orders
		SET refunded_amount = $2,
			refunded_at = COALESCE(refunded_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
			AND status IN ('paid', 'disputed')
			AND refunded_amount IS DISTINCT FROM $2
		RETURNING %s
	`, selectOrderColumns(""))

	order, err := scanOrder(p.db.QueryRow(ctx, query, id, amount))
	if err == nil {
		return order, true, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, err
	}

	current, err := p.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	return current, false, nil
}

func (p *PostgresOrderRepository) ClaimNotification(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET notified_status = $2, notified_at = NOW()
		WHERE id = $1 AND notified_status IS DISTINCT FROM $2
	`

	tag, err := p.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// unchanged resolves a conditional write that matched no row: the order is
// either missing, already in the target status, or in a status the write
// may not leave.
func (p *PostgresOrderRepository) unchanged(
	ctx context.Context,
	id uuid.UUID,
	to domain.OrderStatus) (*domain.Order, bool, error) {

	current, err := p.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if current.Status == to {
		return current, false, nil
	}

	return current, false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, to)
}

func orderInsertArgs(order *domain.Order) []any {
	currency := order.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	quantity := order.Quantity
	if quantity == 0 {
		quantity = 1
	}

	status := order.Status
	if status == "" {
		status = domain.OrderStatusPending
	}

	return []any{
		order.ID,
		order.OrderID,
		order.ExternalID,
		order.CheckoutToken,
		order.Total,
		quantity,
		currency,
		order.StripePaymentIntentID,
		order.ServiceID,
		order.ProviderID,
		order.ItemName,
		order.ItemDescription,
		string(status),
	}
}

func scanOrder(row pgx.Row, leading ...any) (*domain.Order, error) {
	var (
		order         domain.Order
		providerID    uuid.NullUUID
		status        string
		disputeStatus *string
		disputeAmount decimal.NullDecimal
		refunded      decimal.NullDecimal
	)

	dest := slices.Concat(leading, []any{
		&order.ID,
		&order.OrderID,
		&order.ExternalID,
		&order.CheckoutToken,
		&order.Total,
		&order.Quantity,
		&order.Currency,
		&order.StripePaymentIntentID,
		&order.ServiceID,
		&providerID,
		&order.ItemName,
		&order.ItemDescription,
		&status,
		&order.DisputeID,
		&disputeStatus,
		&disputeAmount,
		&order.DisputeReason,
		&refunded,
		&order.RefundedAt,
		&order.PaidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	})

	err := row.Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	order.Status = domain.OrderStatus(status)

	if providerID.Valid {
		order.ProviderID = &providerID.UUID
	}

	if disputeStatus != nil {
		ds := domain.DisputeStatus(*disputeStatus)
		order.DisputeStatus = &ds
	}

	if disputeAmount.Valid {
		order.DisputeAmount = &disputeAmount.Decimal
	}

	if refunded.Valid {
		order.RefundedAmount = &refunded.Decimal
	}

	return &order, nil
}

func mapOrderWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return domain.ErrDuplicateOrder
	}

	return err
}
