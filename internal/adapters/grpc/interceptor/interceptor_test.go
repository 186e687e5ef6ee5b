package interceptor

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/codex-timeclock/internal/adapters/identity"
	"github.com/ogurasousui/codex-timeclock/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const testMethod = "/timeclock.v1.TimeclockService/StartShift"

type stubVerifier struct {
	token string
	user  identity.User
	err   error
}

func (s *stubVerifier) Verify(token string) (identity.User, error) {
	s.token = token
	return s.user, s.err
}

func TestAuth(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: "5f0c6c8e-7a39-4a3f-9d52-1b2c3d4e5f60", Email: "ana@flashguyscleaning.com"}
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	t.Run("valid bearer sets current user", func(t *testing.T) {
		t.Parallel()
		verifier := &stubVerifier{user: user}
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def"))

		var got identity.User
		_, err := Auth(verifier)(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			got, _ = identity.CurrentUser(ctx)
			return nil, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verifier.token != "abc.def" {
			t.Fatalf("token = %q, want abc.def", verifier.token)
		}
		if got != user {
			t.Fatalf("current user = %+v, want %+v", got, user)
		}
	})

	t.Run("missing metadata", func(t *testing.T) {
		t.Parallel()
		called := false
		_, err := Auth(&stubVerifier{user: user})(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			called = true
			return nil, nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
		}
		if called {
			t.Fatalf("handler must not be called")
		}
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		t.Parallel()
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic dXNlcjpwYXNz"))
		_, err := Auth(&stubVerifier{user: user})(ctx, nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
		}
	})

	t.Run("verifier rejects", func(t *testing.T) {
		t.Parallel()
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer expired"))
		_, err := Auth(&stubVerifier{err: identity.ErrTokenExpired})(ctx, nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
		}
	})

	t.Run("public method skips verification", func(t *testing.T) {
		t.Parallel()
		healthInfo := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		called := false
		_, err := Auth(&stubVerifier{err: errors.New("must not verify")}, "/grpc.health.v1.Health/")(context.Background(), nil, healthInfo, func(context.Context, interface{}) (interface{}, error) {
			called = true
			return nil, nil
		})
		if err != nil || !called {
			t.Fatalf("expected handler to run, err = %v", err)
		}
	})
}

func TestLogging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	intercept := Logging(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	ok, _ := structpb.NewStruct(map[string]interface{}{"success": true})
	if _, err := intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return ok, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storeFailure, _ := structpb.NewStruct(map[string]interface{}{"success": false, "kind": "backing_store", "message": "db down"})
	if _, err := intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return storeFailure, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "name: is required")
	}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("error must pass through, got %v", err)
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["code"] != "OK" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["kind"] != "backing_store" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[2].Level != zapcore.WarnLevel || entries[2].ContextMap()["code"] != "InvalidArgument" {
		t.Fatalf("unexpected third entry: %+v", entries[2])
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	intercept := Metrics(m)
	info := &grpc.UnaryServerInfo{FullMethod: testMethod}

	for i := 0; i < 2; i++ {
		_, _ = intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, nil
		})
	}
	_, _ = intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unauthenticated, "no token")
	})

	if got := testutil.ToFloat64(m.GRPCRequests.WithLabelValues(testMethod, "OK")); got != 2 {
		t.Fatalf("OK requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GRPCRequests.WithLabelValues(testMethod, "Unauthenticated")); got != 1 {
		t.Fatalf("Unauthenticated requests = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.GRPCDuration); got != 1 {
		t.Fatalf("duration series = %d, want 1", got)
	}
}
