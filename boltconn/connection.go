// Package boltconn implements the connection state machine: handshake,
// initialization, request queuing, transmission, and response consumption
// over a transport.Transport, tracking lifecycle status and correlating
// queued requests with the records and summaries they produce.
//
// A Connection is single-owner: the core performs no internal threading,
// and at most one goroutine may drive a given Connection at a time.
package boltconn

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/mickamy/boltcore/buffer"
	"github.com/mickamy/boltcore/chunk"
	"github.com/mickamy/boltcore/packstream"
	"github.com/mickamy/boltcore/protocolv1"
	"github.com/mickamy/boltcore/protoerr"
	"github.com/mickamy/boltcore/transport"
	"github.com/mickamy/boltcore/value"
)

// DefaultReadChunk is how many bytes Connection asks the transport for on
// each inbound fill when no complete message is yet buffered.
const DefaultReadChunk = 4096

// Connection owns everything needed to drive one protocol conversation
// over a transport: the tx/rx buffer pairs, the prepared run/pull/discard
// requests, the most recently received value, and the connection's
// lifecycle status.
type Connection struct {
	// ID is a diagnostic correlation handle, logged alongside status
	// transitions. It carries no wire or session semantics.
	ID string

	logger *log.Logger

	transport       transport.Transport
	protocolVersion int32
	status          Status

	txRaw     *buffer.Buffer
	txChunked *buffer.Buffer
	rxRaw     *buffer.Buffer
	rxChunked *buffer.Buffer

	chunkWriter *chunk.Writer
	chunkReader *chunk.Reader

	run     *value.Value // Message RUN(statement, parameters)
	pull    *value.Value // Message PULL_ALL()
	discard *value.Value // Message DISCARD_ALL()

	received *value.Value

	requestsQueued  int64
	requestsRunning int64
	nextRequestID   int64
	lastResponseID  int64
}

// New constructs a Connection in status Disconnected over t. logger may be
// nil, in which case status transitions are not logged.
func New(t transport.Transport, logger *log.Logger) *Connection {
	c := &Connection{
		ID:          uuid.New().String(),
		logger:      logger,
		transport:   t,
		status:      Status{Kind: Disconnected},
		txRaw:       buffer.New(0),
		txChunked:   buffer.New(0),
		rxRaw:       buffer.New(0),
		rxChunked:   buffer.New(0),
		chunkReader: chunk.NewReader(),
		run:         value.New(),
		pull:        value.New(),
		discard:     value.New(),
		received:    value.New(),
	}
	w, _ := chunk.NewWriter(chunk.MaxChunkSize) // MaxChunkSize always in range
	c.chunkWriter = w

	c.run.ToMessage(protocolv1.MessageRun, 2)
	c.run.Field(0).ToString("")
	c.run.Field(1).ToDictionary(0)
	c.pull.ToMessage(protocolv1.MessagePullAll, 0)
	c.discard.ToMessage(protocolv1.MessageDiscardAll, 0)

	return c
}

// Status returns the connection's current lifecycle state.
func (c *Connection) Status() Status { return c.status }

// ProtocolVersion returns the negotiated version, or 0 before Open
// completes.
func (c *Connection) ProtocolVersion() int32 { return c.protocolVersion }

// Received returns the most recently unpacked Value: a record Message on
// Fetch/ReceiveValue returning true, or the terminal summary Message
// otherwise.
func (c *Connection) Received() *value.Value { return c.received }

func (c *Connection) logf(format string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Printf("boltconn[%s]: "+format, append([]any{c.ID}, args...)...)
}

// setStatus applies a transition, except that once Defunct is reached it
// never leaves. Defunct is terminal.
func (c *Connection) setStatus(s Status) {
	if c.status.Kind == Defunct {
		return
	}
	c.status = s
	c.logf("status -> %s", s)
}

func (c *Connection) defunct(err error) error {
	c.setStatus(Status{Kind: Defunct, Cause: err})
	return err
}

func (c *Connection) violation(reason string, cause error) error {
	return c.defunct(&protoerr.ProtocolViolation{Reason: reason, Cause: cause})
}

// Open performs the handshake: send the magic plus up to four candidate
// versions (most preferred first, zero-padded), then read the server's
// 4-byte selection. Only version 1 is understood; any other selection (or
// 0, meaning no agreement) is a ProtocolViolation and drives Defunct.
func (c *Connection) Open(candidateVersions [4]uint32) error {
	if c.status.Kind != Disconnected {
		return &protoerr.ProgrammerError{Reason: "open: connection is not Disconnected"}
	}

	c.txRaw.Reset()
	c.txRaw.Load(protocolv1.HandshakeMagic[:])
	for _, v := range candidateVersions {
		c.txRaw.LoadUint32BE(v)
	}
	data, err := c.txRaw.UnloadTarget(c.txRaw.Unloadable())
	if err != nil {
		return c.defunct(err)
	}
	if err := c.transport.Send(data); err != nil {
		return c.defunct(err)
	}

	selected := make([]byte, 4)
	n, err := c.transport.Recv(selected, 4, 4)
	if err != nil {
		return c.defunct(err)
	}
	if n < 4 {
		return c.violation("handshake: connection closed before version selection", nil)
	}

	version := binary.BigEndian.Uint32(selected)
	if version != protocolv1.Version {
		return c.violation(fmt.Sprintf("handshake: unsupported version %d", version), nil)
	}
	c.protocolVersion = int32(version)
	c.setStatus(Status{Kind: Connected})
	return nil
}

// Init sends the INIT message carrying the user agent and auth fields,
// then consumes responses until the terminal summary. Unlike the general
// response classification in ReceiveValue, a FAILURE here drives Defunct
// directly rather than the recoverable Failed state: a rejected
// initialization is not retriable on the same connection.
func (c *Connection) Init(userAgent, scheme, principal, credentials string) error {
	if c.status.Kind != Connected {
		return &protoerr.ProgrammerError{Reason: "init: connection is not Connected"}
	}

	msg := value.New()
	msg.ToMessage(protocolv1.MessageInit, 2)
	msg.Field(0).ToString(userAgent)
	auth := msg.Field(1)
	auth.ToDictionary(3)
	auth.SetKey(0, "scheme")
	auth.Val(0).ToString(scheme)
	auth.SetKey(1, "principal")
	auth.Val(1).ToString(principal)
	auth.SetKey(2, "credentials")
	auth.Val(2).ToString(credentials)

	if err := c.packAndFrame(msg); err != nil {
		return c.violation("init: pack", err)
	}
	c.requestsQueued++
	// INIT expects exactly one terminal summary like any LoadRun/LoadPull/
	// LoadDiscard request; nextRequestID must advance here too, or Fetch's
	// lastResponseID-vs-requestID comparison drifts out of the FIFO
	// counting domain for the rest of the connection's life.
	c.nextRequestID++
	if err := c.Transmit(); err != nil {
		return err
	}

	for {
		v, err := c.receiveRawMessage()
		if err != nil {
			return err
		}
		if v.Type() != value.Message {
			return c.violation("init: expected a message", nil)
		}
		switch v.Code() {
		case protocolv1.MessageSuccess:
			c.requestsRunning--
			c.lastResponseID++
			c.setStatus(Status{Kind: Ready})
			return nil
		case protocolv1.MessageFailure:
			meta := metaFromFailure(v)
			c.requestsRunning--
			c.lastResponseID++
			return c.defunct(&protoerr.ServerFailure{Meta: meta})
		default:
			return c.violation("init: unexpected response", nil)
		}
	}
}

func metaFromFailure(v *value.Value) map[string]string {
	meta := map[string]string{}
	if v.Size() == 0 {
		return meta
	}
	metaDict := v.Field(0)
	if metaDict.Type() != value.Dictionary {
		return meta
	}
	for i := int32(0); i < metaDict.Size(); i++ {
		val := metaDict.Val(i)
		if val.Type() == value.String {
			meta[metaDict.Key(i)] = val.StringVal()
		}
	}
	return meta
}

// Close shuts down the transport and transitions to Disconnected, unless
// the connection is already Defunct (monotonicity forbids leaving it).
func (c *Connection) Close() error {
	if c.status.Kind == Disconnected {
		return nil
	}
	err := c.transport.Close()
	if c.status.Kind != Defunct {
		c.status = Status{Kind: Disconnected}
		c.logf("status -> %s", c.status)
	}
	return err
}

// packAndFrame packs msg into a scratch raw buffer and appends its chunked
// framing to txChunked, ready for Transmit.
func (c *Connection) packAndFrame(msg *value.Value) error {
	c.txRaw.Reset()
	if err := packstream.Encode(c.txRaw, msg, packstream.V1); err != nil {
		return err
	}
	packed, err := c.txRaw.UnloadTarget(c.txRaw.Unloadable())
	if err != nil {
		return err
	}
	c.chunkWriter.WriteMessage(c.txChunked, packed)
	return nil
}
