package ftplet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingFtplet notes which events it saw and answers with fixed verdicts.
type recordingFtplet struct {
	DefaultFtplet

	loginAction      Action
	loginErr         error
	loginCalls       int
	disconnectCalls  int
	disconnectErr    error
	connectAction    Action
	connectCalls     int
	lastLoginEvent   Event
	lastConnectEvent Event
}

func (r *recordingFtplet) OnConnect(ctx context.Context, ev Event) (Action, error) {
	r.connectCalls++
	r.lastConnectEvent = ev
	return r.connectAction, nil
}

func (r *recordingFtplet) OnLogin(ctx context.Context, ev Event) (Action, error) {
	r.loginCalls++
	r.lastLoginEvent = ev
	return r.loginAction, r.loginErr
}

func (r *recordingFtplet) OnDisconnect(ctx context.Context, ev Event) (Action, error) {
	r.disconnectCalls++
	return ActionSkip, r.disconnectErr
}

func TestChainOnLogin(t *testing.T) {
	ctx := context.Background()
	ev := Event{SessionID: "s1", ClientAddr: "192.0.2.1:5000", Username: "alice"}

	t.Run("EmptyChainContinues", func(t *testing.T) {
		assert.Equal(t, ActionContinue, NewChain().OnLogin(ctx, ev))
	})

	t.Run("AllContinue", func(t *testing.T) {
		first := &recordingFtplet{}
		second := &recordingFtplet{}

		action := NewChain(first, second).OnLogin(ctx, ev)
		assert.Equal(t, ActionContinue, action)
		assert.Equal(t, 1, first.loginCalls)
		assert.Equal(t, 1, second.loginCalls)
		assert.Equal(t, "alice", second.lastLoginEvent.Username)
	})

	t.Run("FirstVerdictStopsTheChain", func(t *testing.T) {
		first := &recordingFtplet{loginAction: ActionSkip}
		second := &recordingFtplet{}

		action := NewChain(first, second).OnLogin(ctx, ev)
		assert.Equal(t, ActionSkip, action)
		assert.Zero(t, second.loginCalls)
	})

	t.Run("DisconnectWins", func(t *testing.T) {
		first := &recordingFtplet{loginAction: ActionDisconnect}
		second := &recordingFtplet{}

		action := NewChain(first, second).OnLogin(ctx, ev)
		assert.Equal(t, ActionDisconnect, action)
		assert.Zero(t, second.loginCalls)
	})

	t.Run("HookErrorBecomesDisconnect", func(t *testing.T) {
		first := &recordingFtplet{loginErr: errors.New("boom")}
		second := &recordingFtplet{}

		action := NewChain(first, second).OnLogin(ctx, ev)
		assert.Equal(t, ActionDisconnect, action)
		assert.Zero(t, second.loginCalls)
	})
}

func TestChainOnConnect(t *testing.T) {
	ctx := context.Background()
	ev := Event{SessionID: "s1", ClientAddr: "192.0.2.1:5000"}

	first := &recordingFtplet{}
	second := &recordingFtplet{connectAction: ActionDisconnect}
	third := &recordingFtplet{}

	action := NewChain(first, second, third).OnConnect(ctx, ev)
	assert.Equal(t, ActionDisconnect, action)
	assert.Equal(t, 1, first.connectCalls)
	assert.Equal(t, "192.0.2.1:5000", first.lastConnectEvent.ClientAddr)
	assert.Zero(t, third.connectCalls)
}

func TestChainOnDisconnect(t *testing.T) {
	ctx := context.Background()
	ev := Event{SessionID: "s1"}

	// Every hook runs; verdicts and errors do not stop the sweep.
	first := &recordingFtplet{disconnectErr: errors.New("boom")}
	second := &recordingFtplet{}

	NewChain(first, second).OnDisconnect(ctx, ev)
	assert.Equal(t, 1, first.disconnectCalls)
	assert.Equal(t, 1, second.disconnectCalls)
}

func TestDefaultFtplet(t *testing.T) {
	ctx := context.Background()
	var d DefaultFtplet

	action, err := d.OnConnect(ctx, Event{})
	assert.NoError(t, err)
	assert.Equal(t, ActionContinue, action)

	action, err = d.OnLogin(ctx, Event{})
	assert.NoError(t, err)
	assert.Equal(t, ActionContinue, action)

	action, err = d.OnDisconnect(ctx, Event{})
	assert.NoError(t, err)
	assert.Equal(t, ActionContinue, action)
}

func TestAuditFtpletContinues(t *testing.T) {
	ctx := context.Background()
	a := NewAuditFtplet()
	ev := Event{SessionID: "s1", ClientAddr: "192.0.2.1:5000", Username: "alice"}

	action, err := a.OnConnect(ctx, ev)
	assert.NoError(t, err)
	assert.Equal(t, ActionContinue, action)

	action, err = a.OnLogin(ctx, ev)
	assert.NoError(t, err)
	assert.Equal(t, ActionContinue, action)

	action, err = a.OnDisconnect(ctx, ev)
	assert.NoError(t, err)
	assert.Equal(t, ActionContinue, action)
}
