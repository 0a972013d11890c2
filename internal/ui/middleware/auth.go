// Пакет middleware — HTTP middleware веб-консоли.
// auth.go — защита маршрутов по роли: сессия из зашифрованного cookie,
// redirect на /login без сессии и на /unauthorized при недостатке прав.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/roles"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeySession — данные сессии в контексте запроса.
	ContextKeySession contextKey = "ss_session"
)

// TokenVerifier — опциональная локальная проверка подписи токена.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// Guard — защита маршрутов по минимальной роли.
type Guard struct {
	sessions *session.Manager
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewGuard создаёт Guard. verifier может быть nil — тогда подпись
// токена на стороне консоли не проверяется.
func NewGuard(sessions *session.Manager, verifier TokenVerifier, logger *slog.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "route_guard")),
	}
}

// RequireRole возвращает middleware, требующий роль не ниже minRole.
// Порядок решений строго такой:
//  1. нет сессии (или истекла) — redirect на /login;
//  2. роль ниже minRole — redirect на /unauthorized;
//  3. иначе сессия кладётся в контекст и запрос продолжается.
func (g *Guard) RequireRole(minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := g.sessions.FromRequest(r)
			if sess == nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if sess.IsExpired() {
				g.logger.Debug("Сессия истекла",
					slog.String("user_id", sess.UserID),
				)
				g.sessions.ClearCookie(w)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if g.verifier != nil {
				if err := g.verifier.Verify(r.Context(), sess.Token); err != nil {
					g.logger.Info("Токен не прошёл локальную проверку",
						slog.String("user_id", sess.UserID),
						slog.String("error", err.Error()),
					)
					g.sessions.ClearCookie(w)
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
			}

			if !roles.HasAtLeast(sess.Role, minRole) {
				http.Redirect(w, r, "/unauthorized", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Attach возвращает middleware, который кладёт сессию в контекст,
// если она есть, но ничего не требует. Для публичных страниц,
// меняющих вид при входе (шапка, домашняя страница).
func (g *Guard) Attach() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := g.sessions.FromRequest(r); sess != nil && !sess.IsExpired() {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext извлекает данные сессии из контекста запроса.
// Возвращает nil, если запрос не прошёл через Guard.
func SessionFromContext(ctx context.Context) *session.Data {
	sess, ok := ctx.Value(ContextKeySession).(*session.Data)
	if !ok {
		return nil
	}
	return sess
}
