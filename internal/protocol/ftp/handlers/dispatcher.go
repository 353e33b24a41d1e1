// Package handlers implements one command handler per control-connection
// verb, plus the dispatcher that routes parsed requests to them.
//
// Every handler follows the same shape: clear transient session state,
// validate, authorize, act, and write exactly one reply through the sink.
// Handlers return an error only for transport-level conditions; protocol
// failures are expressed as reply codes.
package handlers

import (
	"context"
	"strings"

	"github.com/harborfs/harborftp/internal/logger"
	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Handler executes one command verb.
type Handler interface {
	Execute(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error

func (f HandlerFunc) Execute(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	return f(ctx, sctx, req, sess, sink)
}

// Dispatcher routes verbs to handlers. The table is built once and read
// concurrently by all connection goroutines.
type Dispatcher struct {
	handlers map[string]Handler

	// noAuth lists the verbs allowed before login.
	noAuth map[string]bool
}

// NewDispatcher builds the dispatch table with the full verb set.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		noAuth: map[string]bool{
			"USER": true,
			"PASS": true,
			"QUIT": true,
			"NOOP": true,
		},
	}

	d.register("USER", HandlerFunc(User))
	d.register("PASS", HandlerFunc(Pass))
	d.register("QUIT", HandlerFunc(Quit))
	d.register("REIN", HandlerFunc(Rein))
	d.register("NOOP", HandlerFunc(Noop))
	d.register("CDUP", HandlerFunc(Cdup))
	d.register("CWD", HandlerFunc(Cwd))
	d.register("PWD", HandlerFunc(Pwd))
	d.register("MDTM", HandlerFunc(Mdtm))
	d.register("SIZE", HandlerFunc(Size))
	d.register("MLST", HandlerFunc(Mlst))
	d.register("OPTS", HandlerFunc(Opts))
	d.register("SITE", HandlerFunc(Site))

	return d
}

func (d *Dispatcher) register(verb string, h Handler) {
	d.handlers[strings.ToUpper(verb)] = h
}

// Dispatch resolves the verb and invokes its handler exactly once. Unknown
// verbs get a 502 reply; a panicking handler is recovered into a generic
// failure reply so one bad command cannot take down the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) (err error) {
	h, ok := d.handlers[req.Verb]
	if !ok {
		return sink.Send(ftp.CodeCommandNotImpl, req.Verb, req.Verb)
	}

	if sess.Status() != ftp.StatusAuthenticated && !d.noAuth[req.Verb] {
		return sink.Send(ftp.CodeNotLoggedIn, "AUTH", "")
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler %s panicked for session %s: %v", req.Verb, sess.ID(), r)
			err = sink.Send(ftp.CodeSyntaxError, "EXEC", "")
		}
	}()

	return h.Execute(ctx, sctx, req, sess, sink)
}
