// auth.go — вход, выход и восстановление пароля.
// Аутентификацию выполняет внешний REST-сервис; консоль хранит
// bearer-токен в шифрованной cookie-сессии.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/viewstate"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	client   *apiclient.Client
	sessions *session.Manager
	store    *viewstate.Store
	renderer *pages.Renderer
	// sessionTTL — срок жизни сессии, когда в токене нет exp.
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(
	client *apiclient.Client,
	sessions *session.Manager,
	store *viewstate.Store,
	renderer *pages.Renderer,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		client:     client,
		sessions:   sessions,
		store:      store,
		renderer:   renderer,
		sessionTTL: sessionTTL,
		logger:     logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage обрабатывает GET /login.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r) != nil {
		http.Redirect(w, r, "/homeLogin", http.StatusFound)
		return
	}
	h.renderer.Render(r.Context(), w, "login.html", pages.LoginData{
		BaseData: baseData(r, nil),
	})
}

// HandleLogin обрабатывает POST /login.
// Вход во внешнем API, затем профиль через /api/me; срок сессии —
// из exp токена, иначе конфигурационный TTL.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	renderError := func(key string) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderer.Render(ctx, w, "login.html", pages.LoginData{
			BaseData: baseData(r, nil),
			Email:    email,
			Error:    i18n.T(ctx, key),
		})
	}

	if email == "" || password == "" {
		renderError("login.error.credentials")
		return
	}

	token, err := h.client.Login(ctx, email, password)
	if err != nil {
		if isAPIStatus(err, http.StatusUnauthorized) || isAPIStatus(err, http.StatusForbidden) {
			h.logger.Info("Отказ во входе", slog.String("email", email))
			renderError("login.error.credentials")
			return
		}
		h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
		renderError("login.error.unavailable")
		return
	}

	user, err := h.client.Me(ctx, token)
	if err != nil {
		h.logger.Error("Ошибка получения профиля", slog.String("error", err.Error()))
		renderError("login.error.unavailable")
		return
	}

	sess := &session.Data{
		Token:       token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName(),
		Role:        user.Role,
		ExpiresAt:   session.TokenExpiry(token, h.sessionTTL),
	}
	if err := h.sessions.SetCookie(w, sess); err != nil {
		h.logger.Error("Ошибка установки cookie сессии", slog.String("error", err.Error()))
		renderError("login.error.unavailable")
		return
	}

	h.logger.Info("Пользователь вошёл",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	http.Redirect(w, r, "/homeLogin", http.StatusSeeOther)
}

// HandleLogout обрабатывает POST /logout.
// Сбрасывает cookie и состояние консоли этой сессии.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r); sess != nil {
		h.store.Drop(sessionKey(sess))
		h.logger.Info("Пользователь вышел", slog.String("user_id", sess.UserID))
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleForgotPasswordPage обрабатывает GET /forgot-password.
func (h *AuthHandler) HandleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(r.Context(), w, "forgot_password.html", pages.ForgotPasswordData{
		BaseData: baseData(r, nil),
	})
}

// HandleForgotPassword обрабатывает POST /forgot-password.
// Ответ одинаков для существующих и несуществующих адресов.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.FormValue("email"))

	data := pages.ForgotPasswordData{
		BaseData: baseData(r, nil),
		Email:    email,
	}

	if email == "" || !emailRe.MatchString(email) {
		data.Error = i18n.T(ctx, "validation.email")
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderer.Render(ctx, w, "forgot_password.html", data)
		return
	}

	if err := h.client.RequestPasswordReset(ctx, email); err != nil {
		// Существование адреса не раскрываем; сбой сервиса — честно.
		if !isAPIStatus(err, http.StatusNotFound) {
			h.logger.Error("Ошибка запроса сброса пароля", slog.String("error", err.Error()))
			data.Error = i18n.T(ctx, "login.error.unavailable")
			h.renderer.Render(ctx, w, "forgot_password.html", data)
			return
		}
	}

	data.Sent = true
	h.renderer.Render(ctx, w, "forgot_password.html", data)
}
