package boltconn_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mickamy/boltcore/boltconn"
	"github.com/mickamy/boltcore/transport"
	"github.com/mickamy/boltcore/value"
)

// startGraphServer launches a Bolt v1-speaking graph database container and
// returns its host:port address.
func startGraphServer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "neo4j:3.5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/test1234",
		},
		WaitingFor: wait.ForLog("Bolt enabled").WithStartupTimeout(2 * time.Minute),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start graph database container: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate graph database container: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("get host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "7687/tcp")
	if err != nil {
		t.Fatalf("get port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func dialConnection(t *testing.T, addr string) *boltconn.Connection {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := boltconn.New(transport.NewTCP(conn), nil)
	if err := c.Open([4]uint32{1, 0, 0, 0}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Init("boltcore-integration/0.0", "basic", "neo4j", "test1234"); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

// runAndPull issues statement, drains every record into rows via collect,
// and returns once the PULL_ALL summary is consumed.
func runAndPull(t *testing.T, c *boltconn.Connection, statement string, collect func(*value.Value)) {
	t.Helper()
	c.SetStatement(statement)
	c.ResizeParameters(0)
	if err := c.LoadRun(); err != nil {
		t.Fatalf("load run: %v", err)
	}
	if err := c.LoadPull(-1); err != nil {
		t.Fatalf("load pull: %v", err)
	}
	pullID := c.LastRequestID()
	if err := c.Transmit(); err != nil {
		t.Fatalf("transmit: %v", err)
	}
	for {
		hasRecord, err := c.Fetch(pullID)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if !hasRecord {
			return
		}
		collect(c.Received().Field(0))
	}
}

// TestEchoNull: a RUN/PULL_ALL round trip for "RETURN null" yields exactly
// one record whose single field is Null.
func TestEchoNull(t *testing.T) {
	addr := startGraphServer(t)
	c := dialConnection(t, addr)

	count := 0
	runAndPull(t, c, "RETURN null", func(row *value.Value) {
		count++
		if row.Type() != value.List || row.Size() != 1 {
			t.Fatalf("unexpected row shape: %s", row)
		}
		if row.At(0).Type() != value.Null {
			t.Errorf("expected a Null field, got %s", row.At(0).Type())
		}
	})
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
	if c.Status().Kind != boltconn.Ready {
		t.Fatalf("Status() = %v, want Ready", c.Status())
	}
}

// TestInvalidStatementRecoversViaAcknowledge: a syntactically invalid
// statement drives Failed, and Acknowledge returns the connection to Ready
// without reconnecting.
func TestInvalidStatementRecoversViaAcknowledge(t *testing.T) {
	addr := startGraphServer(t)
	c := dialConnection(t, addr)

	c.SetStatement("THIS IS NOT CYPHER")
	c.ResizeParameters(0)
	if err := c.LoadRun(); err != nil {
		t.Fatalf("load run: %v", err)
	}
	if err := c.Transmit(); err != nil {
		t.Fatalf("transmit: %v", err)
	}
	if err := c.ReceiveSummary(); err != nil {
		t.Fatalf("receive summary: %v", err)
	}
	if c.Status().Kind != boltconn.Failed {
		t.Fatalf("Status() = %v, want Failed", c.Status())
	}

	if err := c.Acknowledge(); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if c.Status().Kind != boltconn.Ready {
		t.Fatalf("Status() after Acknowledge = %v, want Ready", c.Status())
	}

	count := 0
	runAndPull(t, c, "RETURN 1", func(row *value.Value) { count++ })
	if count != 1 {
		t.Fatalf("expected 1 record after recovery, got %d", count)
	}
}

// TestLargeResultSetSpansManyChunks: a result set large enough that the
// response stream spans many transport reads, exercising the incremental
// fillUntilMessageReady/MessageSize reassembly path end to end.
func TestLargeResultSetSpansManyChunks(t *testing.T) {
	addr := startGraphServer(t)
	c := dialConnection(t, addr)

	count := 0
	runAndPull(t, c, "UNWIND range(1, 5000) AS x RETURN x", func(row *value.Value) {
		count++
	})
	if count != 5000 {
		t.Fatalf("expected 5000 records, got %d", count)
	}
	if c.Status().Kind != boltconn.Ready {
		t.Fatalf("Status() = %v, want Ready", c.Status())
	}
}
