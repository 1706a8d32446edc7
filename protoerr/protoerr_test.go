package protoerr_test

import (
	"errors"
	"testing"

	"github.com/mickamy/boltcore/protoerr"
)

func TestTransportErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &protoerr.TransportError{Kind: protoerr.TransportConnectionRefused, Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestProtocolViolationDiscrimination(t *testing.T) {
	t.Parallel()

	var err error = &protoerr.ProtocolViolation{Reason: "unknown marker"}
	var violation *protoerr.ProtocolViolation
	if !errors.As(err, &violation) {
		t.Fatal("expected errors.As to match ProtocolViolation")
	}
	if violation.Reason != "unknown marker" {
		t.Fatalf("Reason = %q", violation.Reason)
	}
}

func TestServerFailureCarriesMetadata(t *testing.T) {
	t.Parallel()

	err := &protoerr.ServerFailure{Meta: map[string]string{"code": "Neo.ClientError.Statement.SyntaxError", "message": "bad cypher"}}
	if err.Meta["code"] == "" {
		t.Fatal("expected code metadata")
	}
}
