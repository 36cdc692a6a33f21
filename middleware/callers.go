package middleware

import (
	"context"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/handshake"
)

// AllowCallers creates an interceptor that rejects handshakes from callers
// not in ids. The identity check still runs for allowed callers.
func AllowCallers(ids ...string) handshake.Interceptor {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}

	return func(ctx context.Context, local rostrait.Contract, remote handshake.Header, next handshake.VerifyFunc) error {
		if _, ok := allowed[remote.CallerID]; !ok {
			return rostrait.Errorf(rostrait.CodeInvalidArgument, "caller %s may not use service %s", remote.CallerID, local.Name)
		}
		return next(ctx, local, remote)
	}
}
