package wsserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
)

// MaxClients bounds concurrent connections, matching the C original's
// fixed pollfd table size.
const MaxClients = 64

// Conn is the handle a server hands to its callbacks: Send writes a text
// frame to the client. Conn has no Close method; a callback closes the
// connection by returning false from OnMessage. id is an opaque
// uuid rather than the C original's raw file descriptor — Go doesn't
// expose net.Conn's underlying fd, and a uuid also makes a safer
// per-connection session-id component than a reused small integer.
type Conn struct {
	id   string
	conn net.Conn
	mu   sync.Mutex
}

func (c *Conn) Send(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeText(c.conn, msg)
}

func (c *Conn) ID() string { return c.id }

// OnMessage handles one text frame; returning false closes the
// connection, matching the C original's on_message contract.
type OnMessage func(c *Conn, payload []byte) (keepGoing bool)

// Server is the WebSocket gateway driving one agent turn per inbound
// message (spec.md §4.5).
type Server struct {
	Port      int
	AuthToken string
	Log       *slog.Logger

	OnConnect    func(c *Conn)
	OnMessage    OnMessage
	OnDisconnect func(c *Conn)

	mu      sync.Mutex
	clients int
}

// ListenAndServe binds Port and accepts connections until ctx is
// canceled. A goroutine closes the listener on ctx.Done(), which
// unblocks the Accept() loop with an error; that error is swallowed in
// favor of ctx.Err() so a caller-initiated shutdown returns nil instead
// of looking like a listener failure.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return fmt.Errorf("ws listen: %w", err)
	}
	defer ln.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()

	s.logf("WebSocket server listening on port %d", s.Port)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) logf(msg string, args ...any) {
	if s.Log != nil {
		s.Log.Info(fmt.Sprintf(msg, args...))
	}
}

func (s *Server) tryAdmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients >= MaxClients {
		return false
	}
	s.clients++
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.clients--
	s.mu.Unlock()
}

func (s *Server) handleConn(raw net.Conn) {
	defer raw.Close()

	r := bufio.NewReader(raw)
	if err := handshake(raw, s.AuthToken, r); err != nil {
		s.logf("WS handshake failed: %v", err)
		return
	}

	if !s.tryAdmit() {
		s.logf("WS: max clients reached, rejecting")
		writeClose(raw)
		return
	}
	defer s.release()

	id := uuid.NewString()
	c := &Conn{id: id, conn: raw}

	s.logf("WS: client connected (id=%s)", id)
	if s.OnConnect != nil {
		s.OnConnect(c)
	}
	defer func() {
		s.logf("WS: client disconnected (id=%s)", id)
		if s.OnDisconnect != nil {
			s.OnDisconnect(c)
		}
	}()

	for {
		frame, err := readFrame(r)
		if err != nil {
			return
		}
		switch frame.Opcode {
		case OpText:
			if s.OnMessage != nil && !s.OnMessage(c, frame.Payload) {
				writeClose(raw)
				return
			}
		case OpPing:
			c.mu.Lock()
			_ = writePong(raw, frame.Payload)
			c.mu.Unlock()
		case OpClose:
			c.mu.Lock()
			_ = writeClose(raw)
			c.mu.Unlock()
			return
		}
	}
}
