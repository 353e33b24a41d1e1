package ftp

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	"github.com/harborfs/harborftp/internal/logger"
	ftpproto "github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/ftplet"
)

// maxLineLength bounds a single command line to keep a misbehaving client
// from growing the read buffer without limit.
const maxLineLength = 4096

// FTPConnection runs the command loop for one control connection: greeting,
// read line, dispatch, reply, until disconnect.
type FTPConnection struct {
	server  *FTPAdapter
	conn    net.Conn
	session *ftpproto.Session
	reader  *bufio.Reader
	sink    *recordingSink
}

// recordingSink wraps the reply writer and remembers the last code written
// so the command loop can feed it to metrics.
type recordingSink struct {
	inner    ftpproto.ReplySink
	lastCode int
}

func (r *recordingSink) Send(code int, messageKey string, payload string) error {
	r.lastCode = code
	return r.inner.Send(code, messageKey, payload)
}

// NewFTPConnection wraps an accepted connection. For TLS listeners the
// handshake state feeds the session so PASS can attach the peer certificate
// chain.
func NewFTPConnection(server *FTPAdapter, conn net.Conn) *FTPConnection {
	var tlsState *tls.ConnectionState
	if tc, ok := conn.(*tls.Conn); ok {
		// Handshake state is only populated after the handshake; the first
		// read triggers it, so force it here where errors are reportable.
		if err := tc.Handshake(); err == nil {
			state := tc.ConnectionState()
			tlsState = &state
		}
	}

	session := ftpproto.NewSession(conn.RemoteAddr().String(), tlsState)
	session.SetIdleTimeout(server.config.ReadTimeout)

	return &FTPConnection{
		server:  server,
		conn:    conn,
		session: session,
		reader:  bufio.NewReaderSize(conn, maxLineLength),
		sink:    &recordingSink{inner: ftpproto.NewWriter(conn)},
	}
}

// Serve runs the command loop until the client quits, the session idles
// out, or the server shuts down.
func (c *FTPConnection) Serve(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in FTP connection from %s: %v", c.session.ClientAddr(), r)
		}
		c.teardown(ctx)
		_ = c.conn.Close()
	}()

	ev := ftplet.Event{SessionID: c.session.ID(), ClientAddr: c.session.ClientAddr()}
	if c.server.engine.Ftplets.OnConnect(ctx, ev) == ftplet.ActionDisconnect {
		logger.Debug("Connection from %s refused by hook", c.session.ClientAddr())
		return
	}

	if err := c.sink.Send(ftpproto.CodeServiceReady, "WELCOME", ""); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Connection from %s closed due to shutdown", c.session.ClientAddr())
			return
		case <-c.server.shutdown:
			return
		default:
		}

		if err := c.handleCommand(ctx); err != nil {
			switch {
			case errors.Is(err, ftpproto.ErrDisconnect):
				logger.Debug("Session %s disconnecting", c.session.ID())
			case errors.Is(err, io.EOF):
				logger.Debug("Connection from %s closed by client", c.session.ClientAddr())
			default:
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					logger.Debug("Connection from %s idled out", c.session.ClientAddr())
				} else {
					logger.Debug("Error on connection from %s: %v", c.session.ClientAddr(), err)
				}
			}
			return
		}
	}
}

// handleCommand reads one line, dispatches it, and records metrics for the
// reply.
func (c *FTPConnection) handleCommand(ctx context.Context) error {
	// The idle deadline follows the session: the configured read timeout
	// applies until a login installs the user's own idle policy.
	if err := c.conn.SetReadDeadline(time.Now().Add(c.session.IdleTimeout())); err != nil {
		return err
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return err
	}

	req := ftpproto.ParseRequest(line)
	if req.Verb == "" {
		return nil
	}

	logger.Debug("session %s <- %s", c.session.ID(), req.Verb)

	start := time.Now()
	err = c.server.dispatcher.Dispatch(ctx, c.server.engine, req, c.session, c.sink)
	c.server.metrics.RecordCommand(req.Verb, c.sink.lastCode, time.Since(start))
	return err
}

// teardown releases the login slot and runs the disconnect hooks. It covers
// QUIT, forced disconnects, idle timeouts, and clients that just drop the
// socket.
func (c *FTPConnection) teardown(ctx context.Context) {
	if u := c.session.User(); u != nil {
		c.server.engine.Stats.Logout(u.IsAnonymous())
	}
	c.session.Reinitialize()

	c.server.engine.Ftplets.OnDisconnect(ctx, ftplet.Event{
		SessionID:  c.session.ID(),
		ClientAddr: c.session.ClientAddr(),
	})
}
