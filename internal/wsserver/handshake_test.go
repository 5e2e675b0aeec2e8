package wsserver

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"testing"
)

// pipeConn wraps the client side of a net.Pipe so handshake() can write
// its response while the test reads from the other end.
func pipeConn(t *testing.T) (server net.Conn, client net.Conn) {
	t.Helper()
	server, client = net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

func TestHandshakeAcceptsValidUpgrade(t *testing.T) {
	server, client := pipeConn(t)

	request := "GET /ws HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	done := make(chan error, 1)
	go func() {
		done <- handshake(server, "", bufio.NewReader(strings.NewReader(request)))
	}()

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if err := <-done; err != nil {
		t.Fatalf("handshake() error = %v", err)
	}

	resp := string(buf[:n])
	if !strings.Contains(resp, "101 Switching Protocols") {
		t.Fatalf("response = %q, want 101 status", resp)
	}
	if !strings.Contains(resp, "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=") {
		t.Fatalf("response = %q, missing expected accept key", resp)
	}
}

func TestHandshakeRejectsMissingUpgradeHeader(t *testing.T) {
	request := "GET /ws HTTP/1.1\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	err := handshake(nil, "", bufio.NewReader(strings.NewReader(request)))
	if err == nil {
		t.Fatalf("expected error for a request missing Upgrade: websocket")
	}
}

func TestHandshakeBearerTokenAuth(t *testing.T) {
	server, client := pipeConn(t)

	request := "GET /ws HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Authorization: Bearer secret\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	done := make(chan error, 1)
	go func() {
		done <- handshake(server, "secret", bufio.NewReader(strings.NewReader(request)))
	}()

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if err := <-done; err != nil {
		t.Fatalf("handshake() error = %v", err)
	}
	if !strings.Contains(string(buf[:n]), "101 Switching Protocols") {
		t.Fatalf("expected successful upgrade with matching bearer token")
	}
}

func TestHandshakeQueryTokenAuth(t *testing.T) {
	server, client := pipeConn(t)

	request := "GET /ws?token=secret HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	done := make(chan error, 1)
	go func() {
		done <- handshake(server, "secret", bufio.NewReader(strings.NewReader(request)))
	}()

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if err := <-done; err != nil {
		t.Fatalf("handshake() error = %v", err)
	}
	if !strings.Contains(string(buf[:n]), "101 Switching Protocols") {
		t.Fatalf("expected successful upgrade with matching query token")
	}
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	server, client := pipeConn(t)

	request := "GET /ws HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Authorization: Bearer wrong\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	done := make(chan error, 1)
	go func() {
		done <- handshake(server, "secret", bufio.NewReader(strings.NewReader(request)))
	}()

	buf := make([]byte, 512)
	n, _ := client.Read(buf)
	if err := <-done; err == nil {
		t.Fatalf("expected error for mismatched bearer token")
	}
	if !bytes.Contains(buf[:n], []byte("401 Unauthorized")) {
		t.Fatalf("response = %q, want 401 status", string(buf[:n]))
	}
}
