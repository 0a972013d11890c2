// admin_users.go — консоль управления адгерентами.
// Список живёт в viewstate между запросами: действия применяются
// оптимистично, ответ сервера подтверждает или откатывает правку.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/roles"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/viewstate"
)

// AdminUsersHandler — обработчики консоли адгерентов.
type AdminUsersHandler struct {
	client   *apiclient.Client
	store    *viewstate.Store
	renderer *pages.Renderer
	logger   *slog.Logger
}

// NewAdminUsersHandler создаёт новый AdminUsersHandler.
func NewAdminUsersHandler(
	client *apiclient.Client,
	store *viewstate.Store,
	renderer *pages.Renderer,
	logger *slog.Logger,
) *AdminUsersHandler {
	return &AdminUsersHandler{
		client:   client,
		store:    store,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "ui.admin_users")),
	}
}

// HandleUsersPage обрабатывает GET /app/admin/users.
// Адгеренты и справочник членов грузятся параллельно; отказ одного
// запроса не прячет результат другого — каждая ошибка показывается
// своим сообщением.
func (h *AdminUsersHandler) HandleUsersPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	var (
		wg         sync.WaitGroup
		users      []model.AdminUser
		membres    []model.MemberOption
		usersErr   error
		membresErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, usersErr = h.client.ListUsers(ctx, sess.Token)
	}()
	go func() {
		defer wg.Done()
		membres, membresErr = h.client.ListMembres(ctx, sess.Token)
	}()
	wg.Wait()

	// Фильтры можно передать в URL (например, переход «управлять»
	// из карточки члена).
	filter := filterFromRequest(r)
	data := pages.AdminUsersData{
		BaseData: baseData(r, sess),
		Roles:    roles.Assignable(),
		Query:    filter.Query,
		Role:     filter.Role,
		Membre:   filter.Membre,
	}
	if data.Role == "" {
		data.Role = viewstate.FilterAll
	}
	if data.Membre == "" {
		data.Membre = viewstate.FilterAll
	}

	key := sessionKey(sess)
	if usersErr != nil {
		h.logger.Error("Ошибка загрузки адгерентов", slog.String("error", usersErr.Error()))
		data.Alerts = append(data.Alerts, pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "admin.users.error.load"),
		})
	} else {
		list := viewstate.NewUserList(users)
		h.store.PutUserList(key, list)
		data.Rows = h.rows(list, filter)
	}

	if membresErr != nil {
		h.logger.Error("Ошибка загрузки членов", slog.String("error", membresErr.Error()))
		data.Alerts = append(data.Alerts, pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "admin.users.error.membres"),
		})
	} else {
		h.store.PutMemberOptions(key, membres)
		data.Membres = membres
	}

	h.renderer.Render(ctx, w, "admin_users.html", data)
}

// HandleUserRows обрабатывает GET /app/admin/users/rows —
// частичное обновление строк по фильтрам; refresh=1 перечитывает
// список с сервера.
func (h *AdminUsersHandler) HandleUserRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	var list *viewstate.UserList
	var err error
	if r.URL.Query().Get("refresh") == "1" {
		list, err = h.reloadList(ctx, sess)
	} else {
		list, err = h.list(ctx, sess)
	}
	if err != nil {
		h.renderer.RenderPartial(ctx, w, "alert.html", pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "admin.users.error.load"),
		})
		return
	}

	h.renderer.RenderPartial(ctx, w, "user_rows.html", pages.UserRowsData{
		Rows: h.rows(list, filterFromRequest(r)),
	})
}

// HandleSetValidated обрабатывает POST /app/admin/users/{id}/validate.
// Строка меняется сразу; отказ API возвращает список к прежнему
// состоянию с сообщением об ошибке.
func (h *AdminUsersHandler) HandleSetValidated(w http.ResponseWriter, r *http.Request) {
	valide := r.URL.Query().Get("valide") == "true"
	h.rowAction(w, r, func(u *model.AdminUser) {
		u.Valide = valide
	}, func(ctx context.Context, token, userID string) (model.UserPatch, error) {
		return h.client.SetValidated(ctx, token, userID, valide)
	})
}

// HandleSetActive обрабатывает POST /app/admin/users/{id}/active.
func (h *AdminUsersHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	actif := r.URL.Query().Get("actif") == "true"
	h.rowAction(w, r, func(u *model.AdminUser) {
		u.Actif = actif
	}, func(ctx context.Context, token, userID string) (model.UserPatch, error) {
		return h.client.SetActive(ctx, token, userID, actif)
	})
}

// rowAction — общий протокол оптимистичной правки строки:
// Begin → вызов API → Commit либо Rollback → перерисовка строк.
func (h *AdminUsersHandler) rowAction(
	w http.ResponseWriter,
	r *http.Request,
	patch func(*model.AdminUser),
	call func(ctx context.Context, token, userID string) (model.UserPatch, error),
) {
	ctx := r.Context()
	sess := sessionFrom(r)
	userID := chi.URLParam(r, "id")

	list, err := h.list(ctx, sess)
	if err != nil {
		h.renderer.RenderPartial(ctx, w, "alert.html", pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "admin.users.error.load"),
		})
		return
	}

	seq, ok := list.Begin(userID, patch)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	server, err := call(ctx, sess.Token, userID)
	if err != nil {
		h.logger.Warn("Правка отклонена сервером",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		list.Rollback(userID, seq, apiErrorMessage(r, err))
	} else {
		list.Commit(userID, seq, server)
	}

	h.renderer.RenderPartial(ctx, w, "user_rows.html", pages.UserRowsData{
		Rows: h.rows(list, filterFromRequest(r)),
	})
}

// HandleDrawer обрабатывает GET /app/admin/users/{id}/drawer.
func (h *AdminUsersHandler) HandleDrawer(w http.ResponseWriter, r *http.Request) {
	h.renderDrawer(w, r, false, pages.FormErrors{}, nil)
}

// HandleDrawerEdit обрабатывает GET /app/admin/users/{id}/drawer/edit.
func (h *AdminUsersHandler) HandleDrawerEdit(w http.ResponseWriter, r *http.Request) {
	h.renderDrawer(w, r, true, pages.FormErrors{}, nil)
}

// HandleDrawerClose обрабатывает GET /app/admin/users/{id}/drawer/close.
// Пустой ответ убирает карточку из DOM.
func (h *AdminUsersHandler) HandleDrawerClose(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleUpdate обрабатывает POST /app/admin/users/{id}/update.
// Профиль и роль сохраняются оптимистично; поля, подтверждённые
// сервером, вливаются в строку после ответа.
func (h *AdminUsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)
	userID := chi.URLParam(r, "id")

	v := newFormValidator(r)
	update := apiclient.UserUpdate{
		Nom:       v.required("nom"),
		Prenom:    v.optional("prenom"),
		Email:     v.email("email"),
		Telephone: v.telephone("telephone"),
		Adresse: model.Address{
			NumeroRue:  v.optional("numeroRue"),
			Rue:        v.optional("rue"),
			CodePostal: v.optional("codePostal"),
			Ville:      v.optional("ville"),
			Complement: v.optional("complement"),
		},
	}
	if update.Adresse.CodePostal != "" && !codePostalRe.MatchString(update.Adresse.CodePostal) {
		v.errors["codePostal"] = v.t("validation.codePostal")
	}
	newRole := v.optional("role")
	if newRole != "" && !roles.IsValid(newRole) {
		v.errors["role"] = v.t("validation.required")
	}

	if !v.ok() {
		h.renderDrawer(w, r, true, v.errors, nil)
		return
	}

	list, err := h.list(ctx, sess)
	if err != nil {
		h.renderer.RenderPartial(ctx, w, "alert.html", pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "admin.users.error.load"),
		})
		return
	}

	current, found := list.Get(userID)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	roleChanged := newRole != "" && newRole != current.Role

	seq, ok := list.Begin(userID, func(u *model.AdminUser) {
		u.Nom = update.Nom
		u.Prenom = update.Prenom
		u.Email = update.Email
		u.Telephone = update.Telephone
		u.Adresse = update.Adresse
		if roleChanged {
			u.Role = newRole
		}
	})
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	server, err := h.client.UpdateUser(ctx, sess.Token, userID, update)
	if err == nil && roleChanged {
		server, err = h.client.SetRole(ctx, sess.Token, userID, newRole)
	}
	if err != nil {
		h.logger.Warn("Сохранение профиля отклонено",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		list.Rollback(userID, seq, apiErrorMessage(r, err))
		h.renderDrawer(w, r, true, pages.FormErrors{}, &pages.Alert{
			Variant: "error",
			Message: i18n.Tf(ctx, "admin.users.error.update", apiErrorMessage(r, err)),
		})
		return
	}
	list.Commit(userID, seq, server)

	h.renderDrawer(w, r, false, pages.FormErrors{}, &pages.Alert{
		Variant: "success",
		Message: i18n.T(ctx, "drawer.saved"),
	})
}

// HandleMembre обрабатывает POST /app/admin/users/{id}/membre —
// привязка к члену (form membreId) или отвязка (?remove=).
func (h *AdminUsersHandler) HandleMembre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)
	userID := chi.URLParam(r, "id")

	list, err := h.list(ctx, sess)
	if err != nil {
		h.renderer.RenderPartial(ctx, w, "alert.html", pages.Alert{
			Variant: "error",
			Message: i18n.T(ctx, "admin.users.error.load"),
		})
		return
	}

	var (
		membreID *string
		replace  bool
		patch    func(*model.AdminUser)
	)
	if removeID := r.URL.Query().Get("remove"); removeID != "" {
		// Отвязка: сервер понимает только полную замену набора.
		replace = true
		patch = func(u *model.AdminUser) {
			kept := u.Membres[:0]
			for _, m := range u.Membres {
				if m.ID != removeID {
					kept = append(kept, m)
				}
			}
			u.Membres = kept
		}
		if current, ok := list.Get(userID); ok {
			for _, m := range current.Membres {
				if m.ID != removeID {
					id := m.ID
					membreID = &id
					break
				}
			}
		}
	} else {
		id := strings.TrimSpace(r.FormValue("membreId"))
		if id == "" {
			h.renderDrawer(w, r, false, pages.FormErrors{}, nil)
			return
		}
		membreID = &id
		patch = func(u *model.AdminUser) {
			for _, m := range u.Membres {
				if m.ID == id {
					return
				}
			}
			nom := id
			if opt, ok := h.membreOption(ctx, sess, id); ok {
				nom = opt.Nom
			}
			u.Membres = append(u.Membres, model.MembreRef{ID: id, Nom: nom})
		}
	}

	seq, ok := list.Begin(userID, patch)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	server, err := h.client.AssignMembre(ctx, sess.Token, userID, membreID, replace)
	if err != nil {
		h.logger.Warn("Изменение привязки отклонено",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		list.Rollback(userID, seq, apiErrorMessage(r, err))
		h.renderDrawer(w, r, false, pages.FormErrors{}, &pages.Alert{
			Variant: "error",
			Message: i18n.Tf(ctx, "admin.users.error.update", apiErrorMessage(r, err)),
		})
		return
	}
	list.Commit(userID, seq, server)

	h.renderDrawer(w, r, false, pages.FormErrors{}, nil)
}

// HandleDocumentUpload обрабатывает POST /app/admin/users/{id}/documents.
// Ответ сервера вливается в набор документов строки: сначала по id,
// затем по типу, иначе добавляется.
func (h *AdminUsersHandler) HandleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)
	userID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Некорректная форма", http.StatusBadRequest)
		return
	}

	docType := strings.ToUpper(strings.TrimSpace(r.FormValue("type")))
	file, header, err := r.FormFile("file")
	if err != nil || docType == "" {
		h.renderDrawer(w, r, false, pages.FormErrors{"file": i18n.T(ctx, "validation.file.missing")}, nil)
		return
	}
	defer file.Close()

	doc, err := h.client.UpsertDocument(ctx, sess.Token, userID, docType, apiclient.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		h.logger.Warn("Загрузка документа отклонена",
			slog.String("user_id", userID),
			slog.String("type", docType),
			slog.String("error", err.Error()),
		)
		h.renderDrawer(w, r, false, pages.FormErrors{}, &pages.Alert{
			Variant: "error",
			Message: i18n.Tf(ctx, "admin.users.error.update", apiErrorMessage(r, err)),
		})
		return
	}

	if list, err := h.list(ctx, sess); err == nil {
		if seq, ok := list.Begin(userID, func(u *model.AdminUser) {
			u.Documents = viewstate.MergeDocuments(u.Documents, doc)
		}); ok {
			// Сервер уже подтвердил документ, пустой патч снимает pending.
			list.Commit(userID, seq, model.UserPatch{})
		}
	}

	h.renderDrawer(w, r, false, pages.FormErrors{}, &pages.Alert{
		Variant: "success",
		Message: i18n.T(ctx, "drawer.saved"),
	})
}

// HandleDocumentRaw обрабатывает GET /app/admin/users/{id}/documents/{docID}/raw.
// Отдаёт декодированное содержимое документа с корректным MIME.
func (h *AdminUsersHandler) HandleDocumentRaw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)
	userID := chi.URLParam(r, "id")
	docID := chi.URLParam(r, "docID")

	user, err := h.user(ctx, sess, userID)
	if err != nil {
		http.Error(w, apiErrorMessage(r, err), http.StatusBadGateway)
		return
	}

	for _, doc := range user.Documents {
		if doc.ID != docID && doc.Type != docID {
			continue
		}
		preview, err := viewstate.ResolvePreview(doc)
		if err != nil {
			h.logger.Warn("Документ не читается",
				slog.String("user_id", userID),
				slog.String("doc_id", docID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Документ не читается", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", preview.MIME)
		if preview.Kind == viewstate.PreviewDownload {
			w.Header().Set("Content-Disposition", `attachment; filename="`+preview.Filename+`"`)
		} else {
			w.Header().Set("Content-Disposition", `inline; filename="`+preview.Filename+`"`)
		}
		_, _ = w.Write(preview.Data)
		return
	}

	http.NotFound(w, r)
}

// --- вспомогательные методы --- //

// list возвращает состояние списка сессии, при отсутствии — грузит
// его с сервера.
func (h *AdminUsersHandler) list(ctx context.Context, sess *session.Data) (*viewstate.UserList, error) {
	key := sessionKey(sess)
	if list, ok := h.store.UserList(key); ok {
		return list, nil
	}
	return h.reloadList(ctx, sess)
}

// reloadList перечитывает список с сервера и замещает состояние сессии.
func (h *AdminUsersHandler) reloadList(ctx context.Context, sess *session.Data) (*viewstate.UserList, error) {
	users, err := h.client.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	key := sessionKey(sess)
	if list, ok := h.store.UserList(key); ok {
		list.Replace(users)
		return list, nil
	}
	list := viewstate.NewUserList(users)
	h.store.PutUserList(key, list)
	return list, nil
}

// user возвращает строку из состояния, при отсутствии — запрашивает
// её у сервера.
func (h *AdminUsersHandler) user(ctx context.Context, sess *session.Data, userID string) (model.AdminUser, error) {
	if list, ok := h.store.UserList(sessionKey(sess)); ok {
		if u, found := list.Get(userID); found {
			return u, nil
		}
	}
	return h.client.GetUser(ctx, sess.Token, userID)
}

// membres возвращает справочник членов сессии, при отсутствии —
// грузит его с сервера.
func (h *AdminUsersHandler) membres(ctx context.Context, sess *session.Data) []model.MemberOption {
	key := sessionKey(sess)
	if options, ok := h.store.MemberOptions(key); ok {
		return options
	}
	options, err := h.client.ListMembres(ctx, sess.Token)
	if err != nil {
		h.logger.Warn("Справочник членов недоступен", slog.String("error", err.Error()))
		return nil
	}
	h.store.PutMemberOptions(key, options)
	return options
}

func (h *AdminUsersHandler) membreOption(ctx context.Context, sess *session.Data, id string) (model.MemberOption, bool) {
	for _, opt := range h.membres(ctx, sess) {
		if opt.ID == id {
			return opt, true
		}
	}
	return model.MemberOption{}, false
}

// rows собирает строки таблицы с флагами незавершённых правок.
func (h *AdminUsersHandler) rows(list *viewstate.UserList, filter viewstate.Filter) []pages.UserRow {
	users := filter.Apply(list.Users())
	rows := make([]pages.UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, pages.UserRow{
			User:    u,
			Pending: list.IsPending(u.ID),
			Error:   list.RowError(u.ID),
		})
	}
	return rows
}

// renderDrawer отрисовывает выдвижную карточку адгерента.
func (h *AdminUsersHandler) renderDrawer(w http.ResponseWriter, r *http.Request, editing bool, errs pages.FormErrors, alert *pages.Alert) {
	ctx := r.Context()
	sess := sessionFrom(r)
	userID := chi.URLParam(r, "id")

	user, err := h.user(ctx, sess, userID)
	if err != nil {
		h.renderer.RenderPartial(ctx, w, "alert.html", pages.Alert{
			Variant: "error",
			Message: apiErrorMessage(r, err),
		})
		return
	}

	docs := make([]pages.DrawerDocument, 0, len(user.Documents))
	for _, doc := range user.Documents {
		kind := viewstate.PreviewDownload
		if preview, err := viewstate.ResolvePreview(doc); err == nil {
			kind = preview.Kind
		}
		ref := doc.ID
		if ref == "" {
			ref = doc.Type
		}
		docs = append(docs, pages.DrawerDocument{
			Doc:         doc,
			PreviewKind: kind,
			RawURL:      "/app/admin/users/" + user.ID + "/documents/" + ref + "/raw",
		})
	}

	h.renderer.RenderPartial(ctx, w, "user_drawer.html", pages.UserDrawerData{
		User:      user,
		Documents: docs,
		Membres:   h.membres(ctx, sess),
		Roles:     roles.Assignable(),
		Editing:   editing,
		Errors:    errs,
		Alert:     alert,
	})
}

// filterFromRequest читает фильтры списка из параметров запроса.
func filterFromRequest(r *http.Request) viewstate.Filter {
	return viewstate.Filter{
		Query:  r.FormValue("q"),
		Role:   r.FormValue("role"),
		Membre: r.FormValue("membre"),
	}
}
