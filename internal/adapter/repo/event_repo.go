package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"componentlab/internal/domain"
	"componentlab/internal/infra"
	"componentlab/internal/sqlinline"
)

const eventWriteTimeout = 2 * time.Second

// EventLogPG implements domain.EventLog on the prompt_events table.
type EventLogPG struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	now    func() time.Time
}

func NewEventLog(sql infra.SQLExecutor, logger zerolog.Logger) *EventLogPG {
	return &EventLogPG{sql: sql, logger: logger, now: time.Now}
}

// Record appends an event. Failures are logged and never reach the caller.
func (l *EventLogPG) Record(ctx context.Context, promptID string, level domain.EventLevel, message string, fields map[string]any) {
	var payload []byte
	if len(fields) > 0 {
		raw, err := json.Marshal(fields)
		if err != nil {
			l.logger.Warn().Err(err).Str("prompt_id", promptID).Str("event", message).Msg("event context not serializable")
		} else {
			payload = raw
		}
	}

	writeCtx, cancel := detachedTimeout(ctx, eventWriteTimeout)
	defer cancel()

	if _, err := l.sql.Exec(writeCtx, sqlinline.QInsertPromptEvent, promptID, string(level), message, payload, l.now().UTC()); err != nil {
		l.logger.Warn().Err(err).Str("prompt_id", promptID).Str("event", message).Msg("record prompt event failed")
	}
}

// ListRecent returns up to limit events for the prompt, newest first.
func (l *EventLogPG) ListRecent(ctx context.Context, promptID string, limit int) ([]domain.PromptEvent, error) {
	if limit <= 0 || !validID(promptID) {
		return nil, nil
	}
	rows, err := l.sql.Query(ctx, sqlinline.QListRecentPromptEvents, promptID, limit)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	defer rows.Close()

	var events []domain.PromptEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr("list events", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}

// ListRecentForMany loads the latest perPromptLimit events of every prompt in
// one query.
func (l *EventLogPG) ListRecentForMany(ctx context.Context, promptIDs []string, perPromptLimit int) (map[string][]domain.PromptEvent, error) {
	out := make(map[string][]domain.PromptEvent, len(promptIDs))
	ids := make([]string, 0, len(promptIDs))
	for _, id := range promptIDs {
		if validID(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || perPromptLimit <= 0 {
		return out, nil
	}

	rows, err := l.sql.Query(ctx, sqlinline.QListRecentPromptEventsForMany, ids, perPromptLimit)
	if err != nil {
		return nil, storeErr("list events for prompts", err)
	}
	defer rows.Close()

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr("list events for prompts", err)
		}
		out[event.PromptID] = append(out[event.PromptID], event)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list events for prompts", err)
	}
	return out, nil
}

func scanEvent(row pgx.Row) (domain.PromptEvent, error) {
	var (
		event domain.PromptEvent
		level string
		raw   []byte
	)
	if err := row.Scan(&event.ID, &event.PromptID, &level, &event.Message, &raw, &event.CreatedAt); err != nil {
		return event, err
	}
	event.Level = domain.EventLevel(level)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &event.Context); err != nil {
			return event, err
		}
	}
	return event, nil
}

// detachedTimeout keeps the caller's values but not its cancellation, so an
// event still lands when the worker is shutting down.
func detachedTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}
