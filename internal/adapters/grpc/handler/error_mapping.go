package handler

import (
	"errors"

	"github.com/ogurasousui/codex-timeclock/internal/adapters/identity"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatusError は転送層のエラーを gRPC ステータスへ変換します。
// ドメインの失敗はエンベロープで返すためここには来ません。
func toStatusError(err error) error {
	var reqErr *requestError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &reqErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, identity.ErrTokenMissing),
		errors.Is(err, identity.ErrTokenExpired),
		errors.Is(err, identity.ErrTokenInvalid):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
