// Package testutil provides helpers for simulating two components that
// handshake over a service, without a network.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/handshake"
)

// DefaultTimeout bounds a simulated handshake.
const DefaultTimeout = 5 * time.Second

// Peer is a simulated component that either calls or provides a service.
type Peer struct {
	CallerID string
	Contract rostrait.Contract

	interceptors []handshake.Interceptor
	logger       *slog.Logger
}

// NewPeer creates a peer identified by callerID that knows s by its own
// compiled traits.
func NewPeer(t *testing.T, callerID string, s rostrait.Service) *Peer {
	t.Helper()
	c, err := rostrait.Describe(s)
	if err != nil {
		t.Fatalf("describe %T: %v", s, err)
	}
	return &Peer{CallerID: callerID, Contract: c}
}

// PeerWithContract creates a peer from an explicit contract, e.g. one built
// from a modified message definition.
func PeerWithContract(callerID string, c rostrait.Contract) *Peer {
	return &Peer{CallerID: callerID, Contract: c}
}

// WithInterceptor adds an interceptor used when the peer provides a service.
func (p *Peer) WithInterceptor(i handshake.Interceptor) *Peer {
	p.interceptors = append(p.interceptors, i)
	return p
}

// WithLogger sets the peer's logger. Peers log nowhere by default.
func (p *Peer) WithLogger(logger *slog.Logger) *Peer {
	p.logger = logger
	return p
}

func (p *Peer) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.logger
}

// ServiceName is the name a peer advertises its contract under:
// the type's base name in lower case, e.g. "/reset".
func (p *Peer) ServiceName() string {
	return "/" + strings.ToLower(p.Contract.Name.Name())
}

// Result holds both sides of a simulated handshake.
type Result struct {
	// Reply is what the client received from the server.
	Reply     handshake.Header
	ClientErr error
	// Request is what the server received from the client.
	Request   handshake.Header
	ServerErr error
}

// Handshake runs client's requester against server's acceptor over an
// in-memory connection and returns both outcomes.
func Handshake(t *testing.T, client, server *Peer) Result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	cconn, sconn := net.Pipe()
	defer cconn.Close()
	defer sconn.Close()

	acceptor := handshake.NewAcceptor(server.CallerID, map[string]rostrait.Contract{
		server.ServiceName(): server.Contract,
	}).WithLogger(server.log())
	for _, i := range server.interceptors {
		acceptor.WithInterceptor(i)
	}

	var res Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		res.Request, res.ServerErr = acceptor.Accept(ctx, sconn)
	}()

	res.Reply, res.ClientErr = handshake.NewRequester(client.CallerID).
		WithLogger(client.log()).
		Request(ctx, cconn, server.ServiceName(), client.Contract)
	<-done
	return res
}

// AssertAccepted fails the test unless both sides completed the handshake.
func AssertAccepted(t *testing.T, r Result) {
	t.Helper()
	if r.ClientErr != nil {
		t.Errorf("client: unexpected error: %v", r.ClientErr)
	}
	if r.ServerErr != nil {
		t.Errorf("server: unexpected error: %v", r.ServerErr)
	}
}

// AssertContractMismatch fails the test unless both sides reported a
// contract mismatch and the client's error names service.
func AssertContractMismatch(t *testing.T, r Result, service rostrait.TypeName) {
	t.Helper()
	if !rostrait.IsContractMismatch(r.ClientErr) {
		t.Errorf("client: expected contract mismatch, got %v", r.ClientErr)
	}
	if !rostrait.IsContractMismatch(r.ServerErr) {
		t.Errorf("server: expected contract mismatch, got %v", r.ServerErr)
	}
	if r.ClientErr != nil && !strings.Contains(r.ClientErr.Error(), string(service)) {
		t.Errorf("client error %q does not name service %s", r.ClientErr, service)
	}
}

// AssertErrorCode fails the test unless err maps to code.
func AssertErrorCode(t *testing.T, err error, code rostrait.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := rostrait.AsError(err).Code; got != code {
		t.Errorf("expected error code %s, got %s (%v)", code, got, err)
	}
}
