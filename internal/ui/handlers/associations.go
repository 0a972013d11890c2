// associations.go — членские структуры глазами адгерента.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// AssociationsHandler — список и карточка членов.
type AssociationsHandler struct {
	client   *apiclient.Client
	renderer *pages.Renderer
	logger   *slog.Logger
}

// NewAssociationsHandler создаёт новый AssociationsHandler.
func NewAssociationsHandler(client *apiclient.Client, renderer *pages.Renderer, logger *slog.Logger) *AssociationsHandler {
	return &AssociationsHandler{
		client:   client,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "ui.associations")),
	}
}

// HandleList обрабатывает GET /app/associations.
func (h *AssociationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	data := pages.AssociationsData{
		BaseData: baseData(r, sess),
	}

	membres, err := h.client.ListMembres(ctx, sess.Token)
	if err != nil {
		h.logger.Error("Ошибка загрузки членов", slog.String("error", err.Error()))
		data.Error = apiErrorMessage(r, err)
	} else {
		data.Membres = membres
	}

	h.renderer.Render(ctx, w, "associations.html", data)
}

// HandleDelete обрабатывает POST /app/associations/{id}/delete.
// Доступен только супер-администратору (маршрут за guard).
func (h *AssociationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)
	id := chi.URLParam(r, "id")

	if err := h.client.DeleteMembre(ctx, sess.Token, id); err != nil {
		h.logger.Error("Ошибка удаления члена",
			slog.String("membre_id", id),
			slog.String("error", err.Error()),
		)
		h.renderer.Render(ctx, w, "associations.html", pages.AssociationsData{
			BaseData: baseData(r, sess),
			Error:    apiErrorMessage(r, err),
		})
		return
	}

	h.logger.Info("Член удалён", slog.String("membre_id", id))
	http.Redirect(w, r, "/app/associations", http.StatusSeeOther)
}

// HandleDetail обрабатывает GET /app/associations/{id}.
func (h *AssociationsHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)
	id := chi.URLParam(r, "id")

	membres, err := h.client.ListMembres(ctx, sess.Token)
	if err != nil {
		h.logger.Error("Ошибка загрузки членов", slog.String("error", err.Error()))
		h.renderer.Render(ctx, w, "associations.html", pages.AssociationsData{
			BaseData: baseData(r, sess),
			Error:    apiErrorMessage(r, err),
		})
		return
	}

	for _, m := range membres {
		if m.ID == id {
			h.renderer.Render(ctx, w, "association_detail.html", pages.AssociationDetailData{
				BaseData: baseData(r, sess),
				Membre:   m,
			})
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	h.renderer.Render(ctx, w, "error.html", pages.ErrorData{
		BaseData: baseData(r, sess),
		Status:   http.StatusNotFound,
		Message:  i18n.T(ctx, "error.notfound"),
	})
}
