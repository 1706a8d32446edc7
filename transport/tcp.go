package transport

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/mickamy/boltcore/protoerr"
)

// TCP wraps an already-connected net.Conn as a Transport, classifying
// platform errors into protoerr.TransportError by errno.
type TCP struct {
	conn net.Conn
}

// NewTCP wraps conn. conn must already be connected; TCP never dials.
func NewTCP(conn net.Conn) *TCP {
	return &TCP{conn: conn}
}

func (t *TCP) Send(p []byte) error {
	for len(p) > 0 {
		n, err := t.conn.Write(p)
		if err != nil {
			return classifyErr(err)
		}
		p = p[n:]
	}
	return nil
}

func (t *TCP) Recv(buf []byte, min, max int) (int, error) {
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
			return total, classifyErr(err)
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}

func (t *TCP) Close() error {
	return t.conn.Close()
}

// classifyErr maps a net/os error into the TransportError taxonomy:
// timeouts reported via net.Error classify as TimedOut, a syscall.Errno
// goes through the POSIX mapping in classifyErrno, and anything else
// (including any non-POSIX platform error) classifies as Unknown.
func classifyErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &protoerr.TransportError{Kind: protoerr.TransportTimedOut, Cause: err}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &protoerr.TransportError{Kind: classifyErrno(errno), Cause: err}
	}
	return &protoerr.TransportError{Kind: protoerr.TransportUnknown, Cause: err}
}

// classifyErrno maps a POSIX errno to the TransportKind taxonomy. This is
// the one exhaustive mapping this package maintains; any errno not listed
// here classifies as TransportUnknown rather than guessing.
func classifyErrno(errno syscall.Errno) protoerr.TransportKind {
	switch errno {
	case syscall.EACCES, syscall.EPERM:
		return protoerr.TransportPermissionDenied
	case syscall.EAFNOSUPPORT, syscall.EADDRNOTAVAIL:
		return protoerr.TransportAddressUnsupported
	case syscall.EMFILE, syscall.ENFILE:
		return protoerr.TransportOutOfFiles
	case syscall.ENOMEM, syscall.ENOBUFS:
		return protoerr.TransportOutOfMemory
	case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
		return protoerr.TransportConnectionRefused
	case syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ENETDOWN:
		return protoerr.TransportNetworkUnreachable
	case syscall.ETIMEDOUT:
		return protoerr.TransportTimedOut
	case syscall.EINTR:
		return protoerr.TransportInterrupted
	default:
		return protoerr.TransportUnknown
	}
}
