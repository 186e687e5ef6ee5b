package interceptor

import (
	"context"
	"strings"

	"github.com/ogurasousui/codex-timeclock/internal/adapters/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationHeader = "authorization"

// TokenVerifier はアクセストークンを検証します。
type TokenVerifier interface {
	Verify(token string) (identity.User, error)
}

// Auth は Bearer トークンを検証し、利用者を context に設定します。
// publicPrefixes に前方一致するメソッドは検証しません。
func Auth(verifier TokenVerifier, publicPrefixes ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(info.FullMethod, prefix) {
				return handler(ctx, req)
			}
		}

		token, ok := bearerFromMetadata(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, identity.ErrTokenMissing.Error())
		}

		user, err := verifier.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(identity.WithUser(ctx, user), req)
	}
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, value := range md.Get(authorizationHeader) {
		if token, ok := identity.BearerToken(value); ok {
			return token, true
		}
	}
	return "", false
}
