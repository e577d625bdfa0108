package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Save(ctx context.Context, channel, message string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO notifications (channel, message, created_at) VALUES ($1,$2,$3)`,
		channel, message, time.Now().UTC())
	return err
}
