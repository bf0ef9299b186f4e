package driver

import (
	"log/slog"

	"github.com/chromedp/cdproto/target"
)

// sensitiveActions change page state; they are logged at info level, the
// rest at debug.
var sensitiveActions = map[string]bool{
	"navigate": true,
	"click":    true,
	"type":     true,
}

type actionLogger struct {
	logger *slog.Logger
}

func newActionLogger() *actionLogger {
	return &actionLogger{
		logger: slog.Default().With("component", "cdp-driver"),
	}
}

func (l *actionLogger) attached(id target.ID) {
	if l == nil {
		return
	}
	l.logger.Debug("cdp_attached", "target", truncateID(string(id)))
}

func (l *actionLogger) action(name, subject string) {
	if l == nil {
		return
	}
	if sensitiveActions[name] {
		l.logger.Info("cdp_action", "action", name, "subject", subject)
	} else {
		l.logger.Debug("cdp_action", "action", name, "subject", subject)
	}
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
