// register.go — инскрипция адгерентов и членов (ассоциаций, групп, семей).
package handlers

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// maxUploadBytes — предел размера multipart-формы инскрипции (20 MiB).
const maxUploadBytes = 20 << 20

// membreTypes — допустимые типы членов в порядке показа.
var membreTypes = []string{"ASSOCIATION", "GROUPE", "FAMILLE"}

// multipartFile — загруженный файл формы.
type multipartFile struct {
	file        multipart.File
	filename    string
	contentType string
}

func (f multipartFile) upload() apiclient.FileUpload {
	return apiclient.FileUpload{
		Filename:    f.filename,
		ContentType: f.contentType,
		Reader:      f.file,
	}
}

// RegisterHandler — обработчики форм инскрипции.
type RegisterHandler struct {
	client   *apiclient.Client
	sessions *session.Manager
	renderer *pages.Renderer
	// sessionTTL — срок сессии при автоматическом входе после инскрипции.
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewRegisterHandler создаёт новый RegisterHandler.
func NewRegisterHandler(
	client *apiclient.Client,
	sessions *session.Manager,
	renderer *pages.Renderer,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *RegisterHandler {
	return &RegisterHandler{
		client:     client,
		sessions:   sessions,
		renderer:   renderer,
		sessionTTL: sessionTTL,
		logger:     logger.With(slog.String("component", "ui.register")),
	}
}

// HandleRegisterPage обрабатывает GET /register.
func (h *RegisterHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(r.Context(), w, "register.html", pages.RegisterData{
		BaseData: baseData(r, sessionFrom(r)),
		Form:     map[string]string{},
		Errors:   pages.FormErrors{},
		Years:    adhesionYearsMin,
		Montant:  montantTotal(adhesionYearsMin),
	})
}

// HandleRegister обрабатывает POST /register.
// Валидация на сервере; при успехе досье с тремя документами уходит
// во внешний API одним multipart-запросом. Если API вернул токен —
// адгерент сразу входит в консоль.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Некорректная форма", http.StatusBadRequest)
		return
	}

	v := newFormValidator(r)

	reg := apiclient.AdherentRegistration{
		Nom:       v.required("nom"),
		Prenom:    v.required("prenom"),
		Email:     v.email("email"),
		Password:  v.password("password", "passwordConfirm"),
		Telephone: v.telephone("telephone"),
		Adresse: model.Address{
			NumeroRue:  v.optional("numeroRue"),
			Rue:        v.required("rue"),
			CodePostal: v.codePostal("codePostal"),
			Ville:      v.required("ville"),
			Complement: v.optional("complement"),
		},
	}
	reg.AdhesionYears = v.adhesionYears("adhesionYears")
	// В API уходит котизация за годы; вступительный взнос 100 €
	// участвует только в итоге на странице.
	reg.MontantTotal = montantCotisation(reg.AdhesionYears)

	// Реквизиты карты обязательны только при оплате картой;
	// дальше формы они в любом случае не уходят.
	method := v.paymentMethod("paymentMethod")
	if method == "card" {
		v.cardName("cardName")
		v.card("cardNumber")
		v.cardExpiry("cardExpiry")
		v.cvc("cardCVC")
	}

	identite, okIdentite := v.file("identite")
	justificatif, okJustificatif := v.file("justificatifDomicile")
	rib, okRIB := v.file("rib")

	if !v.ok() {
		h.renderForm(w, r, v, reg.AdhesionYears, http.StatusUnprocessableEntity, "")
		return
	}

	reg.Identite = identite.upload()
	reg.JustificatifDomicile = justificatif.upload()
	reg.RIB = rib.upload()
	defer func() {
		if okIdentite {
			identite.file.Close()
		}
		if okJustificatif {
			justificatif.file.Close()
		}
		if okRIB {
			rib.file.Close()
		}
	}()

	token, err := h.client.RegisterAdherent(ctx, reg)
	if err != nil {
		h.logger.Error("Ошибка инскрипции адгерента", slog.String("error", err.Error()))
		h.renderForm(w, r, v, reg.AdhesionYears, http.StatusBadGateway, apiErrorMessage(r, err))
		return
	}

	h.logger.Info("Адгерент зарегистрирован",
		slog.String("email", reg.Email),
		slog.String("payment_method", method),
		slog.Int("adhesion_years", reg.AdhesionYears),
		slog.Int("montant_total", reg.MontantTotal),
	)

	// API вернул токен — входим сразу.
	if token != "" {
		if user, err := h.client.Me(ctx, token); err == nil {
			sess := &session.Data{
				Token:       token,
				UserID:      user.ID,
				Email:       user.Email,
				DisplayName: user.DisplayName(),
				Role:        user.Role,
				ExpiresAt:   session.TokenExpiry(token, h.sessionTTL),
			}
			if err := h.sessions.SetCookie(w, sess); err == nil {
				http.Redirect(w, r, "/homeLogin", http.StatusSeeOther)
				return
			}
		}
	}

	h.renderer.Render(ctx, w, "register.html", pages.RegisterData{
		BaseData: baseData(r, nil),
		Success:  true,
	})
}

// renderForm перерисовывает форму с введёнными значениями и ошибками.
func (h *RegisterHandler) renderForm(w http.ResponseWriter, r *http.Request, v *formValidator, years, status int, apiError string) {
	form := map[string]string{}
	for _, field := range []string{
		"nom", "prenom", "email", "telephone",
		"numeroRue", "rue", "codePostal", "ville", "complement",
		"paymentMethod", "cardName",
	} {
		form[field] = r.FormValue(field)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	h.renderer.Render(r.Context(), w, "register.html", pages.RegisterData{
		BaseData: baseData(r, nil),
		Form:     form,
		Errors:   v.errors,
		Years:    years,
		Montant:  montantTotal(years),
		Error:    apiError,
	})
}

// HandleRegisterAssociationPage обрабатывает GET /registerAssociation.
func (h *RegisterHandler) HandleRegisterAssociationPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(r.Context(), w, "register_association.html", pages.RegisterAssociationData{
		BaseData: baseData(r, sessionFrom(r)),
		Form:     map[string]string{},
		Errors:   pages.FormErrors{},
		Types:    membreTypes,
	})
}

// HandleRegisterAssociation обрабатывает POST /registerAssociation.
func (h *RegisterHandler) HandleRegisterAssociation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Некорректная форма", http.StatusBadRequest)
		return
	}

	v := newFormValidator(r)

	membreType := v.required("type")
	if membreType != "" && !isMembreType(membreType) {
		v.errors["type"] = v.t("validation.required")
	}

	reg := apiclient.MembreRegistration{
		Type:          membreType,
		Nom:           v.required("nom"),
		Initiales:     v.optional("initiales"),
		Email:         v.email("email"),
		Telephone:     v.telephone("telephone"),
		CentreInteret: v.optional("centreInteret"),
		Adresse: model.Address{
			NumeroRue:  v.optional("numeroRue"),
			Rue:        v.required("rue"),
			CodePostal: v.codePostal("codePostal"),
			Ville:      v.required("ville"),
			Complement: v.optional("complement"),
		},
		DeleguePrincipal: v.required("deleguePrincipal"),
		DelegueAdjoint1:  v.optional("delegueAdjoint1"),
		DelegueAdjoint2:  v.optional("delegueAdjoint2"),
		DelegueAdjoint3:  v.optional("delegueAdjoint3"),
	}

	// SIRET обязателен для ассоциаций, остальные структуры его не имеют.
	if membreType == "ASSOCIATION" {
		if siret, ok := v.file("siret"); ok {
			reg.Siret = siret.upload()
			defer siret.file.Close()
		}
	} else if siret, ok := v.fileOptional("siret"); ok {
		reg.Siret = siret.upload()
		defer siret.file.Close()
	}
	if liste, ok := v.fileOptional("listeAdherents"); ok {
		reg.ListeAdherents = liste.upload()
		defer liste.file.Close()
	}

	if !v.ok() {
		h.renderAssociationForm(w, r, v, http.StatusUnprocessableEntity, "")
		return
	}

	if err := h.client.RegisterMembre(ctx, reg); err != nil {
		h.logger.Error("Ошибка инскрипции члена", slog.String("error", err.Error()))
		h.renderAssociationForm(w, r, v, http.StatusBadGateway, apiErrorMessage(r, err))
		return
	}

	h.logger.Info("Член зарегистрирован",
		slog.String("type", reg.Type),
		slog.String("nom", reg.Nom),
	)

	h.renderer.Render(ctx, w, "register_association.html", pages.RegisterAssociationData{
		BaseData: baseData(r, sessionFrom(r)),
		Types:    membreTypes,
		Success:  true,
	})
}

func (h *RegisterHandler) renderAssociationForm(w http.ResponseWriter, r *http.Request, v *formValidator, status int, apiError string) {
	form := map[string]string{}
	for _, field := range []string{
		"type", "nom", "initiales", "email", "telephone", "centreInteret",
		"numeroRue", "rue", "codePostal", "ville", "complement",
		"deleguePrincipal", "delegueAdjoint1", "delegueAdjoint2", "delegueAdjoint3",
	} {
		form[field] = r.FormValue(field)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	h.renderer.Render(r.Context(), w, "register_association.html", pages.RegisterAssociationData{
		BaseData: baseData(r, sessionFrom(r)),
		Form:     form,
		Errors:   v.errors,
		Types:    membreTypes,
		Error:    apiError,
	})
}

func isMembreType(t string) bool {
	for _, m := range membreTypes {
		if m == t {
			return true
		}
	}
	return false
}
