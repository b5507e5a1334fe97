package repo

import (
	"context"

	"componentlab/internal/infra"
	"componentlab/internal/sqlinline"
)

// QueueNotifier wakes the worker through pg_notify after a prompt is queued.
type QueueNotifier struct {
	sql     infra.SQLExecutor
	channel string
}

func NewQueueNotifier(sql infra.SQLExecutor) *QueueNotifier {
	return &QueueNotifier{sql: sql, channel: infra.PromptQueuedChannel}
}

func (n *QueueNotifier) NotifyQueued(ctx context.Context, promptID string) error {
	_, err := n.sql.Exec(ctx, sqlinline.QNotifyPromptQueued, n.channel, promptID)
	return err
}
