package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/activegrasp/rostrait"
)

// Acceptor answers handshakes for the services a component provides.
type Acceptor struct {
	callerID      string
	services      map[string]rostrait.Contract
	interceptors  []Interceptor
	logger        *slog.Logger
	maxHeaderSize uint32
}

// NewAcceptor creates an acceptor for services, keyed by the name they are
// advertised under (e.g. "/reset"). The map is copied.
func NewAcceptor(callerID string, services map[string]rostrait.Contract) *Acceptor {
	copied := make(map[string]rostrait.Contract, len(services))
	for name, c := range services {
		copied[name] = c
	}
	return &Acceptor{
		callerID:      callerID,
		services:      copied,
		maxHeaderSize: DefaultMaxHeaderSize,
	}
}

// WithInterceptor adds an interceptor. Interceptors run in the order they
// were added, around the identity check.
func (a *Acceptor) WithInterceptor(i Interceptor) *Acceptor {
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithLogger sets a custom logger.
// If not set, slog.Default() will be used.
func (a *Acceptor) WithLogger(logger *slog.Logger) *Acceptor {
	a.logger = logger
	return a
}

// WithMaxHeaderSize sets the largest header accepted from a caller.
func (a *Acceptor) WithMaxHeaderSize(size uint32) *Acceptor {
	a.maxHeaderSize = size
	return a
}

func (a *Acceptor) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

// Accept reads a caller's header from conn, verifies it and replies with the
// local identity or with an error field. It returns the caller's header.
//
// A rejected handshake is answered before Accept returns its error; closing
// conn is up to the caller. Probe requests (probe=1) are answered the same
// way and should be closed after Accept returns.
func (a *Acceptor) Accept(ctx context.Context, conn net.Conn) (Header, error) {
	stop := bindContext(ctx, conn)
	defer stop()

	fields, err := ReadFields(conn, a.maxHeaderSize)
	if err != nil {
		return Header{}, contextError(ctx, err)
	}
	remote, err := ParseHeader(fields)
	if err == nil {
		err = remote.validateRequest()
	}
	if err != nil {
		return remote, a.reject(ctx, conn, remote, err)
	}

	local, ok := a.services[remote.Service]
	if !ok {
		return remote, a.reject(ctx, conn, remote, rostrait.Errorf(rostrait.CodeNotFound, "service %s is not provided by %s", remote.Service, a.callerID))
	}

	verified := false
	final := func(ctx context.Context, local rostrait.Contract, remote Header) error {
		verified = true
		return Verify(ctx, local, remote)
	}
	err = chainInterceptors(a.interceptors, final)(ctx, local, remote)
	if err == nil && !verified {
		err = Verify(ctx, local, remote)
	}
	if err != nil {
		return remote, a.reject(ctx, conn, remote, err)
	}

	reply := identityHeader(a.callerID, local)
	if err := WriteFields(conn, reply.Fields()); err != nil {
		return remote, contextError(ctx, fmt.Errorf("write reply: %w", err))
	}
	return remote, nil
}

// reject answers with an error field and returns cause.
func (a *Acceptor) reject(ctx context.Context, conn net.Conn, remote Header, cause error) error {
	rpcErr := rostrait.AsError(cause)
	a.log().WarnContext(ctx, "handshake rejected",
		slog.String("service", remote.Service),
		slog.String("callerid", remote.CallerID),
		slog.String("code", string(rpcErr.Code)),
		slog.String("error", rpcErr.Message))

	reply := Header{CallerID: a.callerID, Error: rpcErr.Error()}
	if err := WriteFields(conn, reply.Fields()); err != nil {
		a.log().ErrorContext(ctx, "failed to write handshake error",
			slog.String("service", remote.Service),
			slog.Any("error", err))
	}
	return cause
}

// Requester performs handshakes on behalf of a calling component.
type Requester struct {
	callerID      string
	persistent    bool
	logger        *slog.Logger
	maxHeaderSize uint32
}

// NewRequester creates a requester identified by callerID.
func NewRequester(callerID string) *Requester {
	return &Requester{
		callerID:      callerID,
		maxHeaderSize: DefaultMaxHeaderSize,
	}
}

// WithPersistent asks the service to keep the connection open across calls.
func (r *Requester) WithPersistent() *Requester {
	r.persistent = true
	return r
}

// WithLogger sets a custom logger.
// If not set, slog.Default() will be used.
func (r *Requester) WithLogger(logger *slog.Logger) *Requester {
	r.logger = logger
	return r
}

// WithMaxHeaderSize sets the largest reply accepted from a service.
func (r *Requester) WithMaxHeaderSize(size uint32) *Requester {
	r.maxHeaderSize = size
	return r
}

func (r *Requester) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// Request opens a call to service, advertised under name, and checks the
// reply against the local contract. A mismatch on either side is returned
// as a contract mismatch naming the service.
func (r *Requester) Request(ctx context.Context, conn net.Conn, name string, local rostrait.Contract) (Header, error) {
	h := identityHeader(r.callerID, local)
	h.Service = name
	h.Persistent = r.persistent

	reply, err := r.exchange(ctx, conn, h)
	if err != nil {
		return reply, err
	}
	if err := verifyReply(local, reply); err != nil {
		r.log().ErrorContext(ctx, "service identity mismatch",
			slog.String("service", name),
			slog.String("callerid", reply.CallerID),
			slog.Any("error", err))
		return reply, err
	}
	return reply, nil
}

// Probe asks the service named name for its identity without claiming one.
func (r *Requester) Probe(ctx context.Context, conn net.Conn, name string) (rostrait.Contract, error) {
	reply, err := r.exchange(ctx, conn, Header{
		CallerID: r.callerID,
		Service:  name,
		MD5Sum:   rostrait.Wildcard,
		Probe:    true,
	})
	if err != nil {
		return rostrait.Contract{}, err
	}
	sum, err := rostrait.ParseFingerprint(reply.MD5Sum)
	if err != nil {
		return rostrait.Contract{}, err
	}
	return rostrait.Contract{
		Name:     rostrait.TypeName(reply.Type),
		MD5Sum:   sum,
		Request:  rostrait.TypeName(reply.RequestType),
		Response: rostrait.TypeName(reply.ResponseType),
	}, nil
}

func (r *Requester) exchange(ctx context.Context, conn net.Conn, h Header) (Header, error) {
	stop := bindContext(ctx, conn)
	defer stop()

	if err := WriteFields(conn, h.Fields()); err != nil {
		return Header{}, contextError(ctx, fmt.Errorf("write request: %w", err))
	}
	fields, err := ReadFields(conn, r.maxHeaderSize)
	if err != nil {
		return Header{}, contextError(ctx, err)
	}
	reply, err := ParseHeader(fields)
	if err != nil {
		return Header{}, err
	}
	if reply.Error != "" {
		return reply, remoteError(h.Service, reply.Error)
	}
	if err := reply.validateReply(); err != nil {
		return reply, err
	}
	return reply, nil
}

// remoteError rebuilds the error envelope a service sent back as text
// ("code: message").
func remoteError(service, text string) error {
	code, msg, ok := strings.Cut(text, ": ")
	if c := rostrait.ErrorCode(code); ok && c.Known() {
		return rostrait.NewError(c, msg).WithDetail("service", service)
	}
	return rostrait.NewError(rostrait.CodeUnavailable, text).WithDetail("service", service)
}

// bindContext applies ctx's deadline to conn and unblocks pending I/O when
// ctx is done. The returned func restores conn for further use.
func bindContext(ctx context.Context, conn net.Conn) func() {
	if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = conn.SetDeadline(time.Now())
	})
	return func() {
		if !stop() {
			// The callback has started; let it finish before clearing.
			<-fired
		}
		_ = conn.SetDeadline(time.Time{})
	}
}

// contextError prefers the context's error over the I/O error it caused.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return context.DeadlineExceeded
	}
	return err
}
