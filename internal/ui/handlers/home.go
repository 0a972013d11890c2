package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// HomeHandler — публичная витрина и домашняя страница адгерента.
type HomeHandler struct {
	renderer *pages.Renderer
	logger   *slog.Logger
}

// NewHomeHandler создаёт новый HomeHandler.
func NewHomeHandler(renderer *pages.Renderer, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		renderer: renderer,
		logger:   logger.With(slog.String("component", "ui.home")),
	}
}

// HandleHome обрабатывает GET / — публичная витрина.
// Вошедший пользователь сразу попадает на свою домашнюю страницу.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r); sess != nil {
		http.Redirect(w, r, "/homeLogin", http.StatusFound)
		return
	}
	h.renderer.Render(r.Context(), w, "home.html", pages.HomeData{
		BaseData: baseData(r, nil),
	})
}

// HandleHomeLogin обрабатывает GET /homeLogin — домашняя страница
// вошедшего адгерента. Без сессии — на страницу входа.
func (h *HomeHandler) HandleHomeLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.renderer.Render(r.Context(), w, "home_login.html", pages.HomeData{
		BaseData: baseData(r, sess),
	})
}

// HandleUnauthorized обрабатывает GET /unauthorized — отказ в доступе.
func (h *HomeHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	h.renderer.Render(r.Context(), w, "unauthorized.html", pages.UnauthorizedData{
		BaseData: baseData(r, sessionFrom(r)),
	})
}

// HandleNotFound — страница 404 в общем оформлении.
func (h *HomeHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	h.renderer.Render(r.Context(), w, "error.html", pages.ErrorData{
		BaseData: baseData(r, sessionFrom(r)),
		Status:   http.StatusNotFound,
		Message:  i18n.T(r.Context(), "error.notfound"),
	})
}
