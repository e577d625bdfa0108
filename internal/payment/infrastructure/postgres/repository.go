package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	orderdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Find(ctx context.Context, orderID string) (orderdom.Order, error) {
	var o orderdom.Order
	var chargeRef *string
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, total_cents, status, payment_status, charge_ref, order_date, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.PaymentStatus, &chargeRef, &o.OrderDate, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	if err != nil {
		return orderdom.Order{}, err
	}
	if chargeRef != nil {
		o.ChargeRef = *chargeRef
	}
	return o, nil
}

// CompareAndSetPaymentStatus advances payment_status only when it still holds
// the expected value, and commits the outbox event in the same transaction.
// A zero row count on an existing order means another settlement won the
// race; nothing is recorded for the loser.
func (r *Repository) CompareAndSetPaymentStatus(ctx context.Context, orderID string, expected, next orderdom.PaymentStatus, chargeRef string, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET payment_status=$3, charge_ref=$4, updated_at=now()
		WHERE id=$1 AND payment_status=$2`,
		orderID, expected, next, chargeRef)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return orderdom.ErrNotFound
		}
		return domain.ErrConflict
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"payment", orderID, eventType, payload, headers, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
