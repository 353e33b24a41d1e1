// Package ftplet defines the server's extension hook interface.
//
// Ftplets are ordered interceptors invoked at session lifecycle points. A
// hook returns an Action telling the engine how to proceed: continue as
// normal, skip the remaining chain and treat the event as handled (for a
// login, handled means refused), or disconnect the session outright.
package ftplet

import (
	"context"

	"github.com/harborfs/harborftp/internal/logger"
)

// Action is a hook's verdict on the event it was shown.
type Action int

const (
	// ActionContinue lets processing proceed to the next hook and then to
	// the engine's default behavior.
	ActionContinue Action = iota

	// ActionSkip stops the chain and makes the engine treat the event as
	// vetoed. A vetoed login fails with the session rolled back.
	ActionSkip

	// ActionDisconnect aborts the session immediately. No further reply is
	// written.
	ActionDisconnect
)

// Event carries the facts of a lifecycle event into the hooks.
type Event struct {
	// SessionID identifies the session.
	SessionID string

	// ClientAddr is the remote address of the control connection.
	ClientAddr string

	// Username is set for login events.
	Username string

	// Anonymous is set for login events.
	Anonymous bool
}

// Ftplet is one extension hook. Implementations embed DefaultFtplet and
// override the events they care about.
type Ftplet interface {
	// OnConnect runs when a control connection is accepted, before the
	// greeting is written.
	OnConnect(ctx context.Context, ev Event) (Action, error)

	// OnLogin runs after credentials verify but before the login commits.
	// The session still holds its tentative state; ActionSkip rolls the
	// login back, ActionDisconnect drops the session.
	OnLogin(ctx context.Context, ev Event) (Action, error)

	// OnDisconnect runs when the session ends, after logout accounting.
	// Its action is ignored.
	OnDisconnect(ctx context.Context, ev Event) (Action, error)
}

// DefaultFtplet is a no-op Ftplet meant for embedding.
type DefaultFtplet struct{}

var _ Ftplet = (*DefaultFtplet)(nil)

func (DefaultFtplet) OnConnect(ctx context.Context, ev Event) (Action, error) {
	return ActionContinue, nil
}

func (DefaultFtplet) OnLogin(ctx context.Context, ev Event) (Action, error) {
	return ActionContinue, nil
}

func (DefaultFtplet) OnDisconnect(ctx context.Context, ev Event) (Action, error) {
	return ActionContinue, nil
}

// Chain runs an ordered list of hooks. The first hook returning something
// other than ActionContinue decides the outcome; a hook error counts as
// ActionDisconnect, matching the rule that a broken interceptor must never
// let a session through half-inspected.
type Chain struct {
	hooks []Ftplet
}

// NewChain creates a chain over the given hooks, invoked in order.
func NewChain(hooks ...Ftplet) *Chain {
	return &Chain{hooks: hooks}
}

func (c *Chain) run(ctx context.Context, ev Event, call func(Ftplet) (Action, error)) Action {
	for _, h := range c.hooks {
		action, err := call(h)
		if err != nil {
			logger.Error("ftplet hook failed for session %s: %v", ev.SessionID, err)
			return ActionDisconnect
		}
		if action != ActionContinue {
			return action
		}
	}
	return ActionContinue
}

// OnConnect runs the connect event through the chain.
func (c *Chain) OnConnect(ctx context.Context, ev Event) Action {
	return c.run(ctx, ev, func(h Ftplet) (Action, error) {
		return h.OnConnect(ctx, ev)
	})
}

// OnLogin runs the login event through the chain.
func (c *Chain) OnLogin(ctx context.Context, ev Event) Action {
	return c.run(ctx, ev, func(h Ftplet) (Action, error) {
		return h.OnLogin(ctx, ev)
	})
}

// OnDisconnect runs the disconnect event through the chain. Verdicts are
// ignored; the session is already ending.
func (c *Chain) OnDisconnect(ctx context.Context, ev Event) {
	for _, h := range c.hooks {
		if _, err := h.OnDisconnect(ctx, ev); err != nil {
			logger.Error("ftplet disconnect hook failed for session %s: %v", ev.SessionID, err)
		}
	}
}
