package boltconn

import (
	"github.com/mickamy/boltcore/protocolv1"
	"github.com/mickamy/boltcore/protoerr"
	"github.com/mickamy/boltcore/value"
)

// SetStatement sets the Cypher-like statement text of the prepared run
// request.
func (c *Connection) SetStatement(text string) {
	c.run.Field(0).ToString(text)
}

// ResizeParameters reshapes the run request's parameters dictionary to n
// entries, keys empty and values Null until set via ParameterKey/Parameter.
func (c *Connection) ResizeParameters(n int32) {
	c.run.Field(1).ToDictionary(n)
}

// ParameterKey names the parameter at position i.
func (c *Connection) ParameterKey(i int32, name string) {
	c.run.Field(1).SetKey(i, name)
}

// Parameter returns the value slot for the parameter at position i, for
// the caller to fill with a To* call.
func (c *Connection) Parameter(i int32) *value.Value {
	return c.run.Field(1).Val(i)
}

// LoadRun packs and frames the prepared run request into the outbound
// chunked buffer and increments the queued-request count.
func (c *Connection) LoadRun() error {
	if c.status.Kind == Defunct {
		return &protoerr.ProgrammerError{Reason: "load_run: connection is defunct"}
	}
	if err := c.packAndFrame(c.run); err != nil {
		return c.violation("load_run: pack", err)
	}
	c.requestsQueued++
	c.nextRequestID++
	return nil
}

// LoadPull queues the standing PULL_ALL request. Any negative n (callers
// pass -1) pulls everything; n >= 0 is rejected, since protocol v1 has no
// partial-pull facility.
func (c *Connection) LoadPull(n int32) error {
	if n >= 0 {
		return &protoerr.ProgrammerError{Reason: "load_pull: non-negative n is unsupported in protocol v1"}
	}
	if c.status.Kind == Defunct {
		return &protoerr.ProgrammerError{Reason: "load_pull: connection is defunct"}
	}
	if err := c.packAndFrame(c.pull); err != nil {
		return c.violation("load_pull: pack", err)
	}
	c.requestsQueued++
	c.nextRequestID++
	return nil
}

// LoadDiscard queues the standing DISCARD_ALL request. Any negative n
// discards everything; n >= 0 is rejected, mirroring LoadPull.
func (c *Connection) LoadDiscard(n int32) error {
	if n >= 0 {
		return &protoerr.ProgrammerError{Reason: "load_discard: non-negative n is unsupported in protocol v1"}
	}
	if c.status.Kind == Defunct {
		return &protoerr.ProgrammerError{Reason: "load_discard: connection is defunct"}
	}
	if err := c.packAndFrame(c.discard); err != nil {
		return c.violation("load_discard: pack", err)
	}
	c.requestsQueued++
	c.nextRequestID++
	return nil
}

// Transmit moves the entire unloadable range of the outbound chunked
// buffer through the transport, then shifts requestsQueued into
// requestsRunning.
func (c *Connection) Transmit() error {
	if c.status.Kind == Defunct {
		return &protoerr.ProgrammerError{Reason: "transmit: connection is defunct"}
	}
	n := c.txChunked.Unloadable()
	if n == 0 {
		return nil
	}
	data, err := c.txChunked.UnloadTarget(n)
	if err != nil {
		return c.defunct(err)
	}
	if err := c.transport.Send(data); err != nil {
		return c.defunct(err)
	}
	c.txChunked.Compact()
	c.requestsRunning += c.requestsQueued
	c.requestsQueued = 0
	return nil
}

// LastRequestID returns the ID assigned to the most recently loaded
// request (RUN, PULL_ALL, or DISCARD_ALL), usable as a Fetch argument.
func (c *Connection) LastRequestID() int64 {
	return c.nextRequestID
}

// Acknowledge sends ACK_FAILURE to clear a Failed status back to Ready.
// Only valid while Failed.
func (c *Connection) Acknowledge() error {
	if c.status.Kind != Failed {
		return &protoerr.ProgrammerError{Reason: "acknowledge: connection is not Failed"}
	}
	return c.sendControlMessage(protocolv1.MessageAckFailure)
}

// Reset sends RESET, clearing any outstanding server-side request state
// and returning the connection to Ready.
func (c *Connection) Reset() error {
	if c.status.Kind == Defunct {
		return &protoerr.ProgrammerError{Reason: "reset: connection is defunct"}
	}
	return c.sendControlMessage(protocolv1.MessageReset)
}

func (c *Connection) sendControlMessage(code int16) error {
	msg := value.New()
	msg.ToMessage(code, 0)
	if err := c.packAndFrame(msg); err != nil {
		return c.violation("control message: pack", err)
	}
	c.requestsQueued++
	// ACK_FAILURE/RESET expect exactly one terminal summary, same as any
	// LoadRun/LoadPull/LoadDiscard request; nextRequestID must advance in
	// step or a later Fetch's lastResponseID-vs-requestID comparison runs
	// ahead of the IDs LastRequestID hands out, returning false before the
	// next request's own records/summary are read.
	c.nextRequestID++
	if err := c.Transmit(); err != nil {
		return err
	}
	return c.ReceiveSummary()
}
