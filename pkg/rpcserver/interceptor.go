package rpcserver

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/nullsector/judged/pkg/judgeerr"
)

// secretMetadataKey is the gRPC metadata key a caller supplies the
// configured shared secret under.
const secretMetadataKey = "x-judged-secret"

// AuthInterceptor rejects any call that does not present the
// configured shared secret, compared in constant time so the check
// cannot be used as a timing oracle. An empty secret disables the
// check entirely, matching config.toml's optional `secret` field.
func AuthInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if err := checkSecret(ctx, secret); err != nil {
			return nil, judgeerr.ToStatus(err)
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor is AuthInterceptor's server-streaming
// equivalent, covering the Judge RPC itself.
func StreamAuthInterceptor(secret string) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if err := checkSecret(ss.Context(), secret); err != nil {
			return judgeerr.ToStatus(err)
		}
		return handler(srv, ss)
	}
}

func checkSecret(ctx context.Context, secret string) error {
	if secret == "" {
		return nil
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return judgeerr.AuthRejected()
	}
	values := md.Get(secretMetadataKey)
	if len(values) != 1 {
		return judgeerr.AuthRejected()
	}

	given := values[0]
	if len(given) != len(secret) || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
		return judgeerr.AuthRejected()
	}
	return nil
}
