package transport_test

import (
	"errors"
	"net"
	"testing"

	"github.com/mickamy/boltcore/protoerr"
	"github.com/mickamy/boltcore/transport"
)

func TestTCPSendRecvRoundTrip(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ct := transport.NewTCP(client)
	st := transport.NewTCP(server)

	done := make(chan error, 1)
	go func() {
		done <- ct.Send([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := st.Recv(buf, 5, 5)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Fatalf("Recv() = %q, want hello", buf[:n])
	}
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestTCPRecvOrderlyClose(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	client.Close()

	st := transport.NewTCP(server)
	buf := make([]byte, 4)
	n, err := st.Recv(buf, 4, 4)
	if err != nil {
		t.Fatalf("Recv after close: %v", err)
	}
	if n != 0 {
		t.Fatalf("Recv() = %d bytes, want 0 on orderly close", n)
	}
}

func TestSendOnClosedConnClassifiesAsTransportError(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	server.Close()
	client.Close()

	ct := transport.NewTCP(client)
	err := ct.Send([]byte("x"))
	if err == nil {
		t.Fatal("expected error sending on a closed connection")
	}
	var te *protoerr.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Send error = %T (%v), want *protoerr.TransportError", err, err)
	}
}
