package handshake

import (
	"context"

	"github.com/activegrasp/rostrait"
)

// VerifyFunc decides whether a remote header may use the local contract.
type VerifyFunc func(ctx context.Context, local rostrait.Contract, remote Header) error

// Interceptor wraps verification of an incoming handshake. It can:
//   - inspect the remote header before calling next
//   - reject the handshake by returning an error without calling next
//   - observe the outcome of next
//
// The identity check is the innermost step. If no interceptor calls next, the
// Acceptor still runs it after the chain returns.
type Interceptor func(ctx context.Context, local rostrait.Contract, remote Header, next VerifyFunc) error

// chainInterceptors wraps final with interceptors. The first interceptor is
// the outermost one (runs first).
func chainInterceptors(interceptors []Interceptor, final VerifyFunc) VerifyFunc {
	chain := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		current := interceptors[i]
		next := chain
		chain = func(ctx context.Context, local rostrait.Contract, remote Header) error {
			return current(ctx, local, remote, next)
		}
	}
	return chain
}

// Verify checks remote against the local contract. The md5sum must match
// unless the caller sent the wildcard; type names are compared when present.
func Verify(_ context.Context, local rostrait.Contract, remote Header) error {
	return verify(local, remote, true)
}

// verifyReply is Verify for a service's answer, which must name its md5sum.
func verifyReply(local rostrait.Contract, reply Header) error {
	return verify(local, reply, false)
}

func verify(local rostrait.Contract, remote Header, allowWildcard bool) error {
	wildcard := allowWildcard && remote.MD5Sum == rostrait.Wildcard
	if !wildcard && remote.MD5Sum != local.MD5Sum.String() {
		return &rostrait.ContractMismatchError{
			Service: local.Name, Field: "md5sum", Local: local.MD5Sum.String(), Remote: remote.MD5Sum,
		}
	}
	checks := []struct {
		field  string
		local  rostrait.TypeName
		remote string
	}{
		{"type", local.Name, remote.Type},
		{"request_type", local.Request, remote.RequestType},
		{"response_type", local.Response, remote.ResponseType},
	}
	for _, c := range checks {
		if c.remote != "" && c.remote != string(c.local) {
			return &rostrait.ContractMismatchError{
				Service: local.Name, Field: c.field, Local: string(c.local), Remote: c.remote,
			}
		}
	}
	return nil
}
