// Пакет handlers — HTTP-обработчики консоли ассоциации.
// Все данные адгерентов и членов живут во внешнем REST-сервисе;
// обработчики склеивают его ответы с состоянием консоли и страницами.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/roles"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	uimiddleware "github.com/gregory-nguekam/solidarite-serenite/internal/ui/middleware"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// baseData собирает общие данные макета из сессии запроса.
func baseData(r *http.Request, sess *session.Data) pages.BaseData {
	data := pages.BaseData{
		Lang: i18n.LangFromContext(r.Context()),
	}
	if sess == nil {
		return data
	}
	data.LoggedIn = true
	data.DisplayName = sess.DisplayName
	data.Role = sess.Role
	data.ShowAdmin = roles.HasAtLeast(sess.Role, roles.AdminMembre)
	data.ShowSettings = roles.HasAtLeast(sess.Role, roles.SuperAdmin)
	return data
}

// sessionFrom достаёт сессию, положенную guard-middleware.
func sessionFrom(r *http.Request) *session.Data {
	return uimiddleware.SessionFromContext(r.Context())
}

// sessionKey — ключ состояния консоли в хранилище между запросами.
// Идентификатор пользователя стабильнее email: он не меняется при
// правке профиля.
func sessionKey(sess *session.Data) string {
	if sess.UserID != "" {
		return sess.UserID
	}
	return sess.Email
}

// apiErrorMessage переводит ошибку внешнего API в текст для пользователя.
// Тексты ошибок API показываются как есть; сетевые сбои — общей фразой.
func apiErrorMessage(r *http.Request, err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return i18n.T(r.Context(), "error.api")
}

// isAPIStatus сообщает, что ошибка — ответ API с данным статусом.
func isAPIStatus(err error, status int) bool {
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
