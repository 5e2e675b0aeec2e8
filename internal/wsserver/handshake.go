// Package wsserver implements the minimal WebSocket gateway of spec.md
// §4.5 (C5): a hand-rolled RFC 6455 handshake and frame codec serving
// text frames, ping/pong, and the close handshake over plain TCP, with
// an optional bearer-token gate. One goroutine per connection replaces
// the C original's poll() loop — each connection blocks independently
// on its own read, which is the idiomatic Go equivalent of multiplexing
// many file descriptors on a single thread.
package wsserver

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net"
	"net/textproto"
	"strings"
)

const wsMagic = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// handshakeRequest is the subset of an HTTP upgrade request the
// handshake inspects.
type handshakeRequest struct {
	path    string
	headers textproto.MIMEHeader
}

// readHandshakeRequest parses the request line and headers off conn
// without pulling in net/http — spec.md frames this as a raw-socket
// subsystem, not an HTTP server.
func readHandshakeRequest(r *bufio.Reader) (*handshakeRequest, error) {
	tp := textproto.NewReader(r)
	requestLine, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("read request line: %w", err)
	}
	parts := strings.Fields(requestLine)
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed request line: %q", requestLine)
	}
	headers, err := tp.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	return &handshakeRequest{path: parts[1], headers: headers}, nil
}

// authorized checks the Bearer Authorization header and the ?token=
// query parameter, matching either against token. An empty token
// disables the check entirely.
func (r *handshakeRequest) authorized(token string) bool {
	if token == "" {
		return true
	}
	if auth := r.headers.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if strings.TrimPrefix(auth, "Bearer ") == token {
			return true
		}
	}
	if i := strings.Index(r.path, "?"); i >= 0 {
		query := r.path[i+1:]
		for _, pair := range strings.Split(query, "&") {
			if k, v, ok := strings.Cut(pair, "="); ok && k == "token" && v == token {
				return true
			}
		}
	}
	return false
}

// acceptKey computes Sec-WebSocket-Accept per RFC 6455 §1.3.
func acceptKey(clientKey string) string {
	sum := sha1.Sum([]byte(clientKey + wsMagic))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// handshake performs the upgrade. On success it writes the 101
// response and returns nil; on failure it writes 401/nothing and
// returns a non-nil error, and the caller must close the connection.
func handshake(conn net.Conn, authToken string, r *bufio.Reader) error {
	req, err := readHandshakeRequest(r)
	if err != nil {
		return err
	}

	upgrade := req.headers.Get("Upgrade")
	if !strings.EqualFold(upgrade, "websocket") {
		return fmt.Errorf("not a WebSocket upgrade request")
	}

	if !req.authorized(authToken) {
		fmt.Fprint(conn, "HTTP/1.1 401 Unauthorized\r\n\r\n")
		return fmt.Errorf("unauthorized")
	}

	key := req.headers.Get("Sec-Websocket-Key")
	if key == "" {
		return fmt.Errorf("missing Sec-WebSocket-Key")
	}

	response := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + acceptKey(key) + "\r\n\r\n"
	_, err = conn.Write([]byte(response))
	return err
}
