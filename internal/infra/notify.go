package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// PromptQueuedChannel is the NOTIFY channel the API signals after intake.
const PromptQueuedChannel = "prompt_queued"

const wakeListenerPingInterval = 90 * time.Second

// WakeListener turns Postgres NOTIFY messages on a channel into coalesced
// wake-up signals. It never carries payloads; receivers re-query the store.
type WakeListener struct {
	listener *pq.Listener
	wake     chan struct{}
	logger   zerolog.Logger
}

// NewWakeListener connects with lib/pq and subscribes to channel.
func NewWakeListener(dsn, channel string, logger zerolog.Logger) (*WakeListener, error) {
	l := &WakeListener{wake: make(chan struct{}, 1), logger: logger}
	l.listener = pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			l.logger.Warn().Err(err).Msg("wake listener: connection lost")
		case pq.ListenerEventReconnected:
			// Notifications may have been missed while disconnected.
			l.logger.Info().Msg("wake listener: reconnected")
			l.signal()
		}
	})
	if err := l.listener.Listen(channel); err != nil {
		_ = l.listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return l, nil
}

// C returns the wake-up channel. Bursts of notifications collapse into one signal.
func (l *WakeListener) C() <-chan struct{} {
	return l.wake
}

// Run forwards notifications until ctx is done.
func (l *WakeListener) Run(ctx context.Context) error {
	ping := time.NewTicker(wakeListenerPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-l.listener.Notify:
			if !ok {
				return nil
			}
			l.signal()
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				l.logger.Warn().Err(err).Msg("wake listener: ping failed")
			}
		}
	}
}

// Close releases the listener connection.
func (l *WakeListener) Close() error {
	return l.listener.Close()
}

func (l *WakeListener) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
