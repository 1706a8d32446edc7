package boltconn

import "fmt"

// StatusKind is the connection lifecycle state.
type StatusKind int

const (
	Disconnected StatusKind = iota
	Connected
	Ready
	Failed
	Defunct
)

func (k StatusKind) String() string {
	switch k {
	case Disconnected:
		return "Disconnected"
	case Connected:
		return "Connected"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	case Defunct:
		return "Defunct"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is the connection's current lifecycle state. Meta carries
// server-supplied failure metadata when Kind is Failed; Cause carries the
// error that drove the connection to Defunct.
type Status struct {
	Kind  StatusKind
	Meta  map[string]string
	Cause error
}

func (s Status) String() string {
	switch s.Kind {
	case Failed:
		return fmt.Sprintf("Failed%v", s.Meta)
	case Defunct:
		return fmt.Sprintf("Defunct(%v)", s.Cause)
	default:
		return s.Kind.String()
	}
}
