package ftplet

import (
	"context"

	"github.com/harborfs/harborftp/internal/logger"
)

// AuditFtplet logs session lifecycle events. It never vetoes anything; it
// exists so deployments get a connection audit trail by listing "audit" in
// the ftplets configuration.
type AuditFtplet struct {
	DefaultFtplet
}

// NewAuditFtplet creates the audit hook.
func NewAuditFtplet() *AuditFtplet {
	return &AuditFtplet{}
}

func (a *AuditFtplet) OnConnect(ctx context.Context, ev Event) (Action, error) {
	logger.Info("audit: connection from %s (session %s)", ev.ClientAddr, ev.SessionID)
	return ActionContinue, nil
}

func (a *AuditFtplet) OnLogin(ctx context.Context, ev Event) (Action, error) {
	logger.Info("audit: login %q from %s (anonymous=%v, session %s)",
		ev.Username, ev.ClientAddr, ev.Anonymous, ev.SessionID)
	return ActionContinue, nil
}

func (a *AuditFtplet) OnDisconnect(ctx context.Context, ev Event) (Action, error) {
	logger.Info("audit: disconnect %s (session %s)", ev.ClientAddr, ev.SessionID)
	return ActionContinue, nil
}
