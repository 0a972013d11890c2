package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gregory-nguekam/solidarite-serenite/internal/service"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// SettingsHandler — страница настроек консоли. Доступна только
// супер-администратору.
type SettingsHandler struct {
	settings *service.ConsoleSettingsService
	renderer *pages.Renderer
	logger   *slog.Logger
}

// NewSettingsHandler создаёт новый SettingsHandler.
func NewSettingsHandler(settings *service.ConsoleSettingsService, renderer *pages.Renderer, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "ui.settings")),
	}
}

// HandleSettingsPage обрабатывает GET /app/settings.
func (h *SettingsHandler) HandleSettingsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	h.renderer.Render(ctx, w, "settings.html", pages.SettingsData{
		BaseData:    baseData(r, sess),
		PageSize:    h.settings.PageSize(ctx),
		DefaultLang: h.settings.DefaultLang(ctx),
	})
}

// HandleSettingsSave обрабатывает POST /app/settings.
// Обе настройки сохраняются в одной транзакции: либо применяются
// обе, либо ни одной.
func (h *SettingsHandler) HandleSettingsSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	pageSize := strings.TrimSpace(r.FormValue("pageSize"))
	defaultLang := strings.TrimSpace(r.FormValue("defaultLang"))

	data := pages.SettingsData{
		BaseData:    baseData(r, sess),
		DefaultLang: defaultLang,
	}
	if n, err := strconv.Atoi(pageSize); err == nil {
		data.PageSize = n
	}

	err := h.settings.SetAll(ctx, map[string]string{
		"console.page_size":    pageSize,
		"console.default_lang": defaultLang,
	}, sess.Email)
	if err != nil {
		if !errors.Is(err, service.ErrValidation) {
			h.logger.Error("Ошибка сохранения настроек", slog.String("error", err.Error()))
		}
		data.Alert = &pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "settings.error"),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderer.Render(ctx, w, "settings.html", data)
		return
	}

	h.logger.Info("Настройки консоли обновлены",
		slog.String("updated_by", sess.Email),
		slog.String("page_size", pageSize),
		slog.String("default_lang", defaultLang),
	)

	data.PageSize = h.settings.PageSize(ctx)
	data.DefaultLang = h.settings.DefaultLang(ctx)
	data.Alert = &pages.Alert{
		Variant: "success",
		Message: i18n.T(ctx, "settings.saved"),
	}
	h.renderer.Render(ctx, w, "settings.html", data)
}
