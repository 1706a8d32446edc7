package boltconn

import (
	"fmt"

	"github.com/mickamy/boltcore/packstream"
	"github.com/mickamy/boltcore/protocolv1"
	"github.com/mickamy/boltcore/value"
)

// ReceiveValue reassembles the next framed message and unpacks it into
// Received(). A record frame returns (true, nil); a summary classifies as
// SUCCESS (stays/returns to Ready), IGNORED (no status change), or FAILURE
// (transitions to Failed, carrying the server's metadata) and returns
// (false, nil). Any other code is a ProtocolViolation driving Defunct.
func (c *Connection) ReceiveValue() (isRecord bool, err error) {
	v, err := c.receiveRawMessage()
	if err != nil {
		return false, err
	}
	if v.Type() != value.Message {
		return false, c.violation("received value is not a message", nil)
	}

	code := v.Code()
	if code == protocolv1.MessageRecord {
		return true, nil
	}
	if !protocolv1.IsSummary(code) {
		return false, c.violation(fmt.Sprintf("unexpected message code %#02x", code), nil)
	}

	c.requestsRunning--
	c.lastResponseID++
	switch code {
	case protocolv1.MessageSuccess:
		if c.status.Kind == Failed {
			c.setStatus(Status{Kind: Ready})
		}
		return false, nil
	case protocolv1.MessageIgnored:
		return false, nil
	default: // protocolv1.MessageFailure
		c.setStatus(Status{Kind: Failed, Meta: metaFromFailure(v)})
		return false, nil
	}
}

// ReceiveSummary calls ReceiveValue until a summary (not a record) arrives.
func (c *Connection) ReceiveSummary() error {
	for {
		isRecord, err := c.ReceiveValue()
		if err != nil {
			return err
		}
		if !isRecord {
			return nil
		}
	}
}

// Receive drains every request still running.
func (c *Connection) Receive() error {
	for c.requestsRunning > 0 {
		if err := c.ReceiveSummary(); err != nil {
			return err
		}
	}
	return nil
}

// Fetch advances the response stream until either a record belonging to
// requestID is available (returns true) or requestID's summary has been
// consumed (returns false). Because responses are strictly FIFO, it is
// only meaningful to fetch up to the oldest outstanding request.
func (c *Connection) Fetch(requestID int64) (bool, error) {
	for c.lastResponseID < requestID {
		isRecord, err := c.ReceiveValue()
		if err != nil {
			return false, err
		}
		if isRecord {
			return true, nil
		}
	}
	return false, nil
}

// receiveRawMessage reassembles the next framed message from the
// transport and unpacks it into Received(), without applying any status
// classification.
func (c *Connection) receiveRawMessage() (*value.Value, error) {
	if err := c.fillUntilMessageReady(); err != nil {
		return nil, err
	}
	packed, err := c.chunkReader.ReadMessage(c.rxRaw)
	if err != nil {
		return nil, c.violation("dechunk", err)
	}

	c.rxChunked.Reset()
	c.rxChunked.Load(packed)
	// Bound every collection/structure size field by the reassembled
	// message's own byte length: no List/Dictionary/Structure can have more
	// elements than bytes available to encode them (each needs at least one
	// byte), so this is always a safe, tight limit. Without it, a hostile
	// server could claim a markerList32/markerDict32 count in the billions
	// and drive an allocation sized off that claim before the
	// decoder ever reads enough input to fail on its own.
	if err := packstream.Decode(c.rxChunked, c.received, packstream.V1, len(packed)); err != nil {
		return nil, c.violation("unpack", err)
	}
	if c.received.Type() == value.Structure {
		c.received.ReinterpretAsMessage()
	}
	return c.received, nil
}

func (c *Connection) fillUntilMessageReady() error {
	for {
		if _, ready := c.chunkReader.MessageSize(c.rxRaw); ready {
			return nil
		}
		if err := c.readMore(); err != nil {
			return err
		}
	}
}

func (c *Connection) readMore() error {
	c.rxRaw.Compact()
	n, err := c.rxRaw.LoadFill(func(p []byte) (int, error) {
		return c.transport.Recv(p, 1, len(p))
	}, DefaultReadChunk)
	if err != nil {
		return c.defunct(err)
	}
	if n == 0 {
		return c.violation("transport closed mid-message", nil)
	}
	return nil
}
