package smpp

import (
	"fmt"
	"time"
)

// checkLiveness drives the enquire_link keepalive. An idle session gets one
// enquire_link; if that stays unanswered the session is sent unbind and
// closed after the grace period.
func (s *Session) checkLiveness(now time.Time) error {
	if !s.closeAt.IsZero() {
		if !now.Before(s.closeAt) {
			s.logger.Info("Closing session", "reason", "unbind grace period elapsed")
			return fmt.Errorf("%w: unbind grace period elapsed", ErrSessionClosed)
		}
		return nil
	}

	if now.Sub(s.lastSeen) <= s.config.IdleTimeout {
		return nil
	}

	if s.enquireSentAt.IsZero() {
		s.logger.Debug("Session idle, sending enquire_link", "idle", now.Sub(s.lastSeen))
		s.enquireSentAt = now
		return s.send(CommandEnquireLink, nil)
	}

	if now.Sub(s.enquireSentAt) > s.config.EnquireLinkTimeout {
		s.logger.Warn("enquire_link unanswered, unbinding",
			"outstanding", now.Sub(s.enquireSentAt),
			"grace", s.config.UnbindGrace)
		s.closeAt = now.Add(s.config.UnbindGrace)
		s.deps.Metrics.IncCounter("forced_unbinds_total", nil)
		return s.send(CommandUnbind, nil)
	}

	return nil
}
