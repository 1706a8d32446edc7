// Command client is a demonstration program showing boltcore's connection
// core end to end: dial, handshake, initialize, run a statement, and
// either print the resulting records or hand the connection to the
// inspector TUI.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/mickamy/boltcore/boltconn"
	"github.com/mickamy/boltcore/inspector"
	"github.com/mickamy/boltcore/protocolv1"
	"github.com/mickamy/boltcore/transport"
	"github.com/mickamy/boltcore/value"
)

func main() {
	fs := flag.NewFlagSet("client", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "client — run a statement over boltcore's connection core\n\nUsage:\n  client [flags] <statement>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	addr := fs.String("addr", "localhost:7687", "host:port of the server")
	user := fs.String("user", "neo4j", "auth principal")
	password := fs.String("password", "", "auth credentials")
	tui := fs.Bool("tui", false, "view results in the interactive inspector")
	timeout := fs.Duration("timeout", 5*time.Second, "dial timeout")

	_ = fs.Parse(os.Args[1:])
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	statement := fs.Arg(0)

	conn, err := dial(*addr, *user, *password, *timeout)
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if *tui {
		if err := inspector.Run(conn, statement); err != nil {
			log.Fatalf("client: inspector: %v", err)
		}
		return
	}

	if err := printRecords(conn, statement); err != nil {
		log.Fatalf("client: %v", err)
	}
}

func dial(addr, user, password string, timeout time.Duration) (*boltconn.Connection, error) {
	netConn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	conn := boltconn.New(transport.NewTCP(netConn), log.Default())
	if err := conn.Open([4]uint32{protocolv1.Version, 0, 0, 0}); err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := conn.Init("boltcore-client/0.0", "basic", user, password); err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("init: %w", err)
	}
	return conn, nil
}

func printRecords(conn *boltconn.Connection, statement string) error {
	conn.SetStatement(statement)
	conn.ResizeParameters(0)
	if err := conn.LoadRun(); err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if err := conn.LoadPull(-1); err != nil {
		return fmt.Errorf("load pull: %w", err)
	}
	pullID := conn.LastRequestID()
	if err := conn.Transmit(); err != nil {
		return fmt.Errorf("transmit: %w", err)
	}

	count := 0
	for {
		hasRecord, err := conn.Fetch(pullID)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if !hasRecord {
			break
		}
		count++
		fmt.Println(describeRow(conn.Received().Field(0)))
	}

	if conn.Status().Kind == boltconn.Failed {
		return fmt.Errorf("server failure: %v", conn.Status().Meta)
	}
	fmt.Printf("%d records\n", count)
	return nil
}

func describeRow(row *value.Value) string {
	out := ""
	for i := int32(0); i < row.Size(); i++ {
		if i > 0 {
			out += ", "
		}
		out += protocolv1.Describe(row.At(i))
	}
	return out
}
