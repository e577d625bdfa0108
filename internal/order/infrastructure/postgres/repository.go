package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/catalog/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/order/application"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// CreateWithStock writes the stock decrements, the order, its items and the
// outbox event in one transaction. Each decrement is conditional on
// sufficient stock, so two orders racing for the same unit cannot both
// commit; the loser sees the shortfall and the whole transaction rolls back.
func (r *Repository) CreateWithStock(ctx context.Context, o domain.Order, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, item := range o.Items {
		ct, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity)
		if err != nil {
			return mapPgError(err)
		}
		if ct.RowsAffected() == 0 {
			return r.stockShortfall(ctx, tx, item)
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, user_id, total_cents, status, payment_status, order_date, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.UserID, o.TotalCents, o.Status, o.PaymentStatus, o.OrderDate, o.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity, price_cents) VALUES ($1,$2,$3,$4)`,
			o.ID, item.ProductID, item.Quantity, item.PriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", o.ID, eventType, payload, headers, traceparent)
	if err != nil {
		return mapPgError(err)
	}

	return mapPgError(tx.Commit(ctx))
}

func (r *Repository) stockShortfall(ctx context.Context, tx pgx.Tx, item domain.Item) error {
	var name string
	var stock int
	err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1`, item.ProductID).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalogdom.ErrNotFound
	}
	if err != nil {
		return mapPgError(err)
	}
	return &domain.InsufficientStockError{
		ProductID:   item.ProductID,
		ProductName: name,
		Requested:   item.Quantity,
		Available:   stock,
	}
}

func (r *Repository) Find(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	var chargeRef *string
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, total_cents, status, payment_status, charge_ref, order_date, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.PaymentStatus, &chargeRef, &o.OrderDate, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, mapPgError(err)
	}
	if chargeRef != nil {
		o.ChargeRef = *chargeRef
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, price_cents FROM order_items WHERE order_id=$1`, id)
	if err != nil {
		return domain.Order{}, mapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceCents); err != nil {
			return domain.Order{}, mapPgError(err)
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *Repository) GetView(ctx context.Context, id string) (application.OrderView, error) {
	views, err := r.views(ctx, `WHERE o.id=$1`, id)
	if err != nil {
		return application.OrderView{}, err
	}
	if len(views) == 0 {
		return application.OrderView{}, domain.ErrNotFound
	}
	return views[0], nil
}

func (r *Repository) ListViews(ctx context.Context) ([]application.OrderView, error) {
	return r.views(ctx, `ORDER BY o.order_date DESC`)
}

func (r *Repository) views(ctx context.Context, tail string, args ...any) ([]application.OrderView, error) {
	rows, err := r.pool.Query(ctx, `SELECT o.id, o.user_id, u.phone_number, o.order_date, o.total_cents, o.status, o.payment_status,
			i.product_id, p.name, i.quantity, i.price_cents
		FROM orders o
		JOIN users u ON u.id = o.user_id
		JOIN order_items i ON i.order_id = o.id
		JOIN products p ON p.id = i.product_id `+tail, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	byID := map[string]int{}
	var views []application.OrderView
	for rows.Next() {
		var v application.OrderView
		var item application.ItemView
		if err := rows.Scan(&v.ID, &v.UserID, &v.UserPhone, &v.OrderDate, &v.TotalCents, &v.Status, &v.PaymentStatus,
			&item.ProductID, &item.ProductName, &item.Quantity, &item.PriceCents); err != nil {
			return nil, mapPgError(err)
		}
		idx, ok := byID[v.ID]
		if !ok {
			idx = len(views)
			byID[v.ID] = idx
			views = append(views, v)
		}
		views[idx].Items = append(views[idx].Items, item)
	}
	return views, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.Status, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", id, eventType, payload, headers, traceparent)
	if err != nil {
		return mapPgError(err)
	}
	return mapPgError(tx.Commit(ctx))
}

func (r *Repository) Delete(ctx context.Context, id string, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return mapPgError(err)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1 AND payment_status='pending'`, id)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		// Either absent or settled in the meantime; re-read to tell the two apart.
		var st domain.PaymentStatus
		err := tx.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id=$1`, id).Scan(&st)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return mapPgError(err)
		}
		return domain.ErrNotDeletable
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", id, eventType, payload, headers, traceparent)
	if err != nil {
		return mapPgError(err)
	}
	return mapPgError(tx.Commit(ctx))
}

// mapPgError surfaces serialization and deadlock losses as retriable
// conflicts; everything else passes through.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return domain.ErrConflict
		}
	}
	return err
}
