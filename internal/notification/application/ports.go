package application

import "context"

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Repository interface {
	Save(ctx context.Context, channel, message string) error
}
