package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunReaper periodically removes sessions idle longer than the configured
// timeout. It blocks until ctx is canceled. Safe to run alongside normal
// session traffic: the sweep takes the same lock as every other mutation,
// and a session a racing End already removed is simply skipped.
func (e *Engine) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(e.opts.ReapInterval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", e.opts.ReapInterval).
		Dur("timeout", e.opts.SessionTimeout).
		Msg("Session reaper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session reaper shutting down")
			return
		case <-ticker.C:
			e.reapIdle(ctx)
		}
	}
}

type expiredSession struct {
	id        string
	userID    string
	channelID string
}

// reapIdle runs one sweep. Exported behavior is covered by the engine
// tests via this method rather than the ticker loop.
func (e *Engine) reapIdle(ctx context.Context) {
	cutoff := time.Now().Add(-e.opts.SessionTimeout)

	e.mu.Lock()
	var expired []expiredSession
	for id, s := range e.sessions {
		if s.LastActivity.Before(cutoff) {
			expired = append(expired, expiredSession{id: id, userID: s.UserID, channelID: s.ChannelID})
		}
	}
	e.mu.Unlock()

	for _, ex := range expired {
		log.Info().Str("session", ex.id).Str("user", ex.userID).Msg("Reaping inactive session")

		if err := e.End(ctx, ex.id, false); err != nil {
			// Lost the race against a concurrent end; nothing to do.
			continue
		}

		if e.notifier != nil {
			if err := e.notifier.NotifyExpired(ex.userID, ex.channelID); err != nil {
				log.Debug().Err(err).Str("user", ex.userID).Msg("Expiry notification failed")
			}
		}
	}
}
