package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/viewstate"
)

// testUsersJSON — ответ GET /api/admin/users mock-сервера.
var testUsersJSON = `[
  {
    "id": "u1", "nom": "Dupont", "prenom": "Marie",
    "email": "marie@example.fr", "telephone": "0601020304",
    "role": "ADHERENT", "valide": false, "actif": true,
    "membres": [{"id": "m1", "nom": "Les Amis du Quartier", "type": "ASSOCIATION"}],
    "documents": [{"id": "d1", "type": "RIB", "nom": "rib.pdf",
      "fichierBase64": "` + testPDFBase64 + `", "statut": "EN_ATTENTE"}]
  },
  {
    "id": "u2", "nom": "Durand", "prenom": "Paul",
    "email": "paul@example.fr", "telephone": "0605060708",
    "role": "VISITOR", "valide": true, "actif": false
  }
]`

const testMembresJSON = `[
  {"id": "m1", "nom": "Les Amis du Quartier", "type": "ASSOCIATION"},
  {"id": "m2", "nom": "Famille Durand", "type": "FAMILLE"}
]`

var testPDFBase64 = base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 contenu"))

// newAdminTestRouter собирает handler с маршрутами консоли поверх
// mock-сервера API.
func newAdminTestRouter(t *testing.T, api http.HandlerFunc, sess *session.Data) (chi.Router, *viewstate.Store) {
	t.Helper()

	server := setupMockAPI(t, api)
	store := viewstate.NewStore(time.Minute)
	h := NewAdminUsersHandler(testClient(t, server.URL), store, testRenderer(t), testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, withSession(req, sess))
		})
	})
	r.Get("/app/admin/users", h.HandleUsersPage)
	r.Get("/app/admin/users/rows", h.HandleUserRows)
	r.Post("/app/admin/users/{id}/validate", h.HandleSetValidated)
	r.Post("/app/admin/users/{id}/active", h.HandleSetActive)
	r.Get("/app/admin/users/{id}/drawer", h.HandleDrawer)
	r.Get("/app/admin/users/{id}/drawer/edit", h.HandleDrawerEdit)
	r.Get("/app/admin/users/{id}/drawer/close", h.HandleDrawerClose)
	r.Post("/app/admin/users/{id}/update", h.HandleUpdate)
	r.Post("/app/admin/users/{id}/membre", h.HandleMembre)
	r.Post("/app/admin/users/{id}/documents", h.HandleDocumentUpload)
	r.Get("/app/admin/users/{id}/documents/{docID}/raw", h.HandleDocumentRaw)
	return r, store
}

// happyAPI отвечает списками и подтверждает правки без изменений.
func happyAPI(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
			w.Write([]byte(testUsersJSON))
		case r.Method == http.MethodGet && r.URL.Path == "/api/membres":
			w.Write([]byte(testMembresJSON))
		default:
			t.Errorf("Неожиданный запрос к API: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// TestAdminUsersPage проверяет загрузку страницы консоли.
func TestAdminUsersPage(t *testing.T) {
	router, _ := newAdminTestRouter(t, happyAPI(t), adminSession())

	req := httptest.NewRequest(http.MethodGet, "/app/admin/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Marie Dupont", "Paul Durand", "Famille Durand", `id="user-u1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("В ответе нет %q", want)
		}
	}
	if strings.Contains(body, "Impossible de charger") {
		t.Error("На успешной загрузке не должно быть сообщений об ошибке")
	}
}

// TestAdminUsersPagePartialFailure проверяет, что отказ одного из двух
// запросов не прячет результат другого.
func TestAdminUsersPagePartialFailure(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/users":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/membres":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(testMembresJSON))
		}
	}
	router, _ := newAdminTestRouter(t, api, adminSession())

	req := httptest.NewRequest(http.MethodGet, "/app/admin/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Impossible de charger la liste des adhérents.") {
		t.Error("Нет сообщения об ошибке загрузки адгерентов")
	}
	if !strings.Contains(body, "Famille Durand") {
		t.Error("Справочник членов должен быть показан несмотря на отказ списка")
	}
}

// TestAdminUsersRowsFilter проверяет фильтрацию строк.
func TestAdminUsersRowsFilter(t *testing.T) {
	router, _ := newAdminTestRouter(t, happyAPI(t), adminSession())

	// Первый запрос наполняет состояние сессии.
	req := httptest.NewRequest(http.MethodGet, "/app/admin/users", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	tests := []struct {
		name    string
		query   string
		want    []string
		notWant []string
	}{
		{
			name:    "подстрока по имени",
			query:   "q=marie",
			want:    []string{"Marie Dupont"},
			notWant: []string{"Paul Durand"},
		},
		{
			name:    "фильтр по роли",
			query:   "role=VISITOR",
			want:    []string{"Paul Durand"},
			notWant: []string{"Marie Dupont"},
		},
		{
			name:    "без членства",
			query:   "membre=" + url.QueryEscape(viewstate.FilterNoMembre),
			want:    []string{"Paul Durand"},
			notWant: []string{"Marie Dupont"},
		},
		{
			name:  "пустой фильтр — все строки",
			query: "",
			want:  []string{"Marie Dupont", "Paul Durand"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/admin/users/rows?"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("Статус = %d, ожидался 200", rec.Code)
			}
			body := rec.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("В ответе нет %q", want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(body, notWant) {
					t.Errorf("В ответе не должно быть %q", notWant)
				}
			}
		})
	}
}

// TestAdminUsersValidateCommit проверяет, что после подтверждения
// поля из ответа сервера вливаются в строку, а поля, которых в
// ответе нет (привязки, документы), сохраняются.
func TestAdminUsersValidateCommit(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
			w.Write([]byte(testUsersJSON))
		case r.Method == http.MethodGet && r.URL.Path == "/api/membres":
			w.Write([]byte(testMembresJSON))
		case r.Method == http.MethodPatch && r.URL.Path == "/api/admin/users/u1/validate":
			var payload map[string]bool
			json.NewDecoder(r.Body).Decode(&payload)
			if !payload["valide"] {
				t.Error("Ожидался valide=true в теле запроса")
			}
			// Сервер попутно поменял телефон: именно его версия
			// должна оказаться в строке.
			w.Write([]byte(`{"id": "u1", "nom": "Dupont", "prenom": "Marie",
				"email": "marie@example.fr", "telephone": "0699999999",
				"role": "ADHERENT", "valide": true, "actif": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
	router, store := newAdminTestRouter(t, api, adminSession())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/admin/users", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app/admin/users/u1/validate?valide=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "0699999999") {
		t.Error("Строка должна содержать версию сервера")
	}

	list, ok := store.UserList("admin-1")
	if !ok {
		t.Fatal("Нет состояния списка в хранилище")
	}
	u, _ := list.Get("u1")
	if !u.Valide {
		t.Error("Флаг valide должен быть подтверждён")
	}
	if u.Telephone != "0699999999" {
		t.Errorf("Telephone = %q, ожидалась версия сервера", u.Telephone)
	}
	// Ответ сервера не содержал membres и documents: досье строки
	// не должно пострадать.
	if len(u.Membres) != 1 {
		t.Errorf("Привязки стёрты ответом без membres: %+v", u.Membres)
	}
	if len(u.Documents) != 1 {
		t.Errorf("Документы стёрты ответом без documents: %+v", u.Documents)
	}
	if list.IsPending("u1") {
		t.Error("После подтверждения правка не должна числиться незавершённой")
	}
}

// TestAdminUsersValidateRollback проверяет откат при отказе API.
func TestAdminUsersValidateRollback(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
			w.Write([]byte(testUsersJSON))
		case r.Method == http.MethodGet && r.URL.Path == "/api/membres":
			w.Write([]byte(testMembresJSON))
		case r.Method == http.MethodPatch && r.URL.Path == "/api/admin/users/u1/validate":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message": "Accès refusé"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
	router, store := newAdminTestRouter(t, api, adminSession())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/admin/users", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app/admin/users/u1/validate?valide=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Accès refusé") {
		t.Error("В ответе должно быть сообщение об ошибке сервера")
	}

	list, _ := store.UserList("admin-1")
	u, _ := list.Get("u1")
	if u.Valide {
		t.Error("После отката флаг valide должен вернуться к исходному")
	}
	if list.RowError("u1") != "Accès refusé" {
		t.Errorf("RowError = %q, ожидался текст сервера", list.RowError("u1"))
	}
}

// TestAdminUsersDrawer проверяет выдвижную карточку адгерента.
func TestAdminUsersDrawer(t *testing.T) {
	router, _ := newAdminTestRouter(t, happyAPI(t), adminSession())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/admin/users", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/admin/users/u1/drawer", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"marie@example.fr", "/app/admin/users/u1/documents/d1/raw"} {
		if !strings.Contains(body, want) {
			t.Errorf("В карточке нет %q", want)
		}
	}
}

// TestAdminUsersDocumentRaw проверяет выдачу содержимого документа.
func TestAdminUsersDocumentRaw(t *testing.T) {
	router, _ := newAdminTestRouter(t, happyAPI(t), adminSession())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/admin/users", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/admin/users/u1/documents/d1/raw", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, ожидался application/pdf", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-1.4") {
		t.Error("Тело должно быть декодированным содержимым документа")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/admin/users/u1/documents/absent/raw", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Статус = %d, ожидался 404 для неизвестного документа", rec.Code)
	}
}

// TestAdminUsersUpdateValidation проверяет, что невалидная форма
// не уходит в API.
func TestAdminUsersUpdateValidation(t *testing.T) {
	router, _ := newAdminTestRouter(t, happyAPI(t), adminSession())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/admin/users", nil))

	form := url.Values{"nom": {""}, "email": {"pas-un-email"}}
	req := httptest.NewRequest(http.MethodPost, "/app/admin/users/u1/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "marie@example.fr") {
		t.Error("Карточка должна быть перерисована в режиме правки")
	}
}

// TestAdminUsersMembreAssign проверяет привязку к членской структуре.
func TestAdminUsersMembreAssign(t *testing.T) {
	api := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
			w.Write([]byte(testUsersJSON))
		case r.Method == http.MethodGet && r.URL.Path == "/api/membres":
			w.Write([]byte(testMembresJSON))
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/users/u2/assign-membre":
			var payload struct {
				MembreID *string `json:"membreId"`
				Replace  bool    `json:"replace"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload.MembreID == nil || *payload.MembreID != "m2" {
				t.Errorf("membreId = %v, ожидался m2", payload.MembreID)
			}
			w.Write([]byte(`{"id": "u2", "nom": "Durand", "prenom": "Paul",
				"email": "paul@example.fr", "role": "VISITOR", "valide": true, "actif": false,
				"membres": [{"id": "m2", "nom": "Famille Durand", "type": "FAMILLE"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
	router, store := newAdminTestRouter(t, api, adminSession())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app/admin/users", nil))

	form := url.Values{"membreId": {"m2"}}
	req := httptest.NewRequest(http.MethodPost, "/app/admin/users/u2/membre", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}

	list, _ := store.UserList("admin-1")
	u, _ := list.Get("u2")
	if len(u.Membres) != 1 || u.Membres[0].ID != "m2" {
		t.Errorf("Membres = %v, ожидалась привязка к m2", u.Membres)
	}
}
