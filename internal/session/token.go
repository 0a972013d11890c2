// token.go — работа с bearer-токеном API.
// Извлечение exp без проверки подписи (срок жизни сессии) и
// опциональная локальная проверка подписи через JWKS API.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry извлекает время истечения из JWT без проверки подписи.
// Подпись проверяет API ассоциации; консоли exp нужен только для
// срока жизни cookie. Токен без exp или не-JWT — fallback на ttl.
func TokenExpiry(token string, fallback time.Duration) int64 {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Unix()
		}
	}

	return time.Now().Add(fallback).Unix()
}

// Verifier — опциональная локальная проверка подписи токена
// против JWKS API ассоциации.
type Verifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewVerifier создаёт верификатор с фоновым обновлением JWKS.
// NoErrorReturnFirstHTTPReq — стартуем даже если API ещё недоступен.
func NewVerifier(jwksURL string, logger *slog.Logger) (*Verifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           time.Hour,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &Verifier{
		jwks:   k,
		logger: logger.With(slog.String("component", "token_verifier")),
	}, nil
}

// Verify проверяет подпись и срок действия токена.
// Невалидный токен — ошибка; сессия с таким токеном считается истёкшей.
func (v *Verifier) Verify(ctx context.Context, token string) error {
	parsed, err := jwt.Parse(token, v.jwks.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("проверка токена: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("невалидный токен")
	}
	return nil
}
