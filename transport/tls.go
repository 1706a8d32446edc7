package transport

import (
	"crypto/tls"
	"errors"
	"io"
	"net"

	"github.com/mickamy/boltcore/protoerr"
)

// TLS wraps an already-handshaken *tls.Conn as a Transport. Certificate
// verification and the handshake itself stay the caller's responsibility:
// this adapter only classifies errors from an established session.
type TLS struct {
	conn *tls.Conn
}

// NewTLS wraps conn. If conn has not yet completed its handshake, the
// first Send/Recv call triggers it and classifies any failure as a
// protoerr.TlsError.
func NewTLS(conn *tls.Conn) *TLS {
	return &TLS{conn: conn}
}

func (t *TLS) Send(p []byte) error {
	for len(p) > 0 {
		n, err := t.conn.Write(p)
		if err != nil {
			return classifyTLSErr(err, protoerr.TlsWrite)
		}
		p = p[n:]
	}
	return nil
}

func (t *TLS) Recv(buf []byte, min, max int) (int, error) {
	if max > len(buf) {
		max = len(buf)
	}
	total := 0
	for total < min {
		n, err := t.conn.Read(buf[total:max])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return total, nil
			}
			return total, classifyTLSErr(err, protoerr.TlsRead)
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}

func (t *TLS) Close() error {
	return t.conn.Close()
}

// Handshake forces completion of the TLS handshake now rather than on the
// first Send/Recv, classifying any failure as protoerr.TlsHandshake.
func (t *TLS) Handshake() error {
	if err := t.conn.Handshake(); err != nil {
		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			return &protoerr.TlsError{Stage: protoerr.TlsVerification, Cause: err}
		}
		return &protoerr.TlsError{Stage: protoerr.TlsHandshake, Cause: err}
	}
	return nil
}

func classifyTLSErr(err error, stage protoerr.TlsStage) error {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return &protoerr.TlsError{Stage: protoerr.TlsVerification, Cause: err}
	}
	return &protoerr.TlsError{Stage: stage, Cause: err}
}
