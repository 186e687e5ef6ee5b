package identity

import (
	"context"
	"errors"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMissing = errors.New("identity: bearer token is required")
	ErrTokenExpired = errors.New("identity: token expired")
	ErrTokenInvalid = errors.New("identity: token invalid")
)

// User は ID プロバイダが認証した利用者です。ID は社員 ID として使います。
type User struct {
	ID    string
	Email string
}

// Claims は ID プロバイダが発行するアクセストークンのクレームです。
type Claims struct {
	Email string `json:"email"`
	jwtv5.RegisteredClaims
}

// Verifier は HS256 署名のアクセストークンを検証します。
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier は Verifier を生成します。issuer が空の場合は発行者を検証しません。
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify はトークンを検証し、利用者を返します。
func (v *Verifier) Verify(token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrTokenMissing
	}

	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(v.issuer))
	}

	parsed, err := jwtv5.ParseWithClaims(token, &Claims{}, func(*jwtv5.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return User{}, ErrTokenExpired
		}
		return User{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return User{}, ErrTokenInvalid
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return User{}, ErrTokenInvalid
	}

	return User{ID: id.String(), Email: strings.ToLower(strings.TrimSpace(claims.Email))}, nil
}

// BearerToken は authorization ヘッダの値からトークンを取り出します。
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

type userContextKey struct{}

// WithUser は認証済み利用者をコンテキストに格納します。
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// CurrentUser はコンテキストから認証済み利用者を取り出します。
func CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey{}).(User)
	return u, ok
}
