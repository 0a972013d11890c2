package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/viewstate"
)

// newAuthHandler собирает AuthHandler поверх mock-сервера API.
func newAuthHandler(t *testing.T, api http.HandlerFunc) (*AuthHandler, *session.Manager) {
	t.Helper()
	server := setupMockAPI(t, api)
	sessions, err := session.NewManager("test-secret", false)
	if err != nil {
		t.Fatal(err)
	}
	h := NewAuthHandler(testClient(t, server.URL), sessions,
		viewstate.NewStore(time.Minute), testRenderer(t), time.Hour, testLogger())
	return h, sessions
}

func loginForm(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// TestLoginSuccess проверяет вход: токен от API, профиль через /api/me,
// сессия в cookie и redirect на /homeLogin.
func TestLoginSuccess(t *testing.T) {
	h, sessions := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			w.Write([]byte(`{"token": "jeton-test"}`))
		case "/api/me":
			if got := r.Header.Get("Authorization"); got != "Bearer jeton-test" {
				t.Errorf("Authorization = %q", got)
			}
			w.Write([]byte(`{"id": "u1", "nom": "Dupont", "prenom": "Marie",
				"email": "marie@example.fr", "role": "ADMIN_MEMBRE", "valide": true, "actif": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginForm("marie@example.fr", "motdepasse"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Статус = %d, ожидался 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/homeLogin" {
		t.Errorf("Location = %q, ожидался /homeLogin", loc)
	}

	resp := rec.Result()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	sess := sessions.FromRequest(req)
	if sess == nil {
		t.Fatal("Сессия не установлена в cookie")
	}
	if sess.Token != "jeton-test" {
		t.Errorf("Token = %q", sess.Token)
	}
	if sess.Role != "ADMIN_MEMBRE" {
		t.Errorf("Role = %q", sess.Role)
	}
	if sess.DisplayName != "Marie Dupont" {
		t.Errorf("DisplayName = %q", sess.DisplayName)
	}
}

// TestLoginBadCredentials проверяет текст ошибки для 401.
func TestLoginBadCredentials(t *testing.T) {
	h, _ := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "mauvais mot de passe"}`))
	})

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginForm("marie@example.fr", "faux"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Статус = %d, ожидался 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "E-mail ou mot de passe incorrect.") {
		t.Error("Нет сообщения о неверных учётных данных")
	}
	if !strings.Contains(body, "marie@example.fr") {
		t.Error("Введённый email должен остаться в форме")
	}
}

// TestLoginAPIDown проверяет текст ошибки при недоступном API.
func TestLoginAPIDown(t *testing.T) {
	h, _ := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginForm("marie@example.fr", "motdepasse"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Статус = %d, ожидался 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "momentanément indisponible") {
		t.Error("Нет сообщения о недоступности сервиса")
	}
}

// TestLoginEmptyFields проверяет, что пустая форма не уходит в API.
func TestLoginEmptyFields(t *testing.T) {
	h, _ := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API не должен вызываться для пустой формы")
	})

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginForm("", ""))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Статус = %d, ожидался 422", rec.Code)
	}
}

// TestLogout проверяет сброс cookie и состояния консоли.
func TestLogout(t *testing.T) {
	h, _ := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	sess := adminSession()
	h.store.PutUserList(sessionKey(sess), viewstate.NewUserList(nil))

	req := withSession(httptest.NewRequest(http.MethodPost, "/logout", nil), sess)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Статус = %d, ожидался 303", rec.Code)
	}
	if _, ok := h.store.UserList(sessionKey(sess)); ok {
		t.Error("Состояние консоли должно быть сброшено при выходе")
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Cookie сессии должна быть сброшена")
	}
}

// TestForgotPasswordHidesUnknownEmail проверяет, что 404 от API
// не выдаёт существование адреса.
func TestForgotPasswordHidesUnknownEmail(t *testing.T) {
	h, _ := newAuthHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/forgot-password" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "email inconnu"}`))
	})

	form := url.Values{"email": {"inconnu@example.fr"}}
	req := httptest.NewRequest(http.MethodPost, "/forgot-password", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleForgotPassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидался 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "email inconnu") {
		t.Error("Существование адреса не должно раскрываться")
	}
	if !strings.Contains(body, "Si un compte existe") {
		t.Error("Должно показываться нейтральное подтверждение")
	}
}
