package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/roles"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	uimiddleware "github.com/gregory-nguekam/solidarite-serenite/internal/ui/middleware"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var i18nOnce sync.Once

// initTestI18n загружает каталоги переводов один раз на весь пакет.
func initTestI18n(t *testing.T) {
	t.Helper()
	i18nOnce.Do(func() {
		bundle := i18n.Init(testLogger())
		if err := i18n.LoadFromEmbedFS(bundle, testLogger()); err != nil {
			t.Fatalf("Ошибка загрузки переводов: %v", err)
		}
	})
}

// testRenderer создаёт Renderer со встроенными шаблонами.
func testRenderer(t *testing.T) *pages.Renderer {
	t.Helper()
	initTestI18n(t)
	renderer, err := pages.NewRenderer(testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания renderer: %v", err)
	}
	return renderer
}

// setupMockAPI создаёт mock HTTP-сервер внешнего API.
func setupMockAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// testClient создаёт apiclient для mock-сервера.
func testClient(t *testing.T, baseURL string) *apiclient.Client {
	t.Helper()
	client, err := apiclient.New(baseURL, 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания клиента: %v", err)
	}
	return client
}

// adminSession — сессия администратора для тестовых запросов.
func adminSession() *session.Data {
	return &session.Data{
		Token:       "test-token",
		UserID:      "admin-1",
		Email:       "admin@solidarite-serenite.fr",
		DisplayName: "Alice Martin",
		Role:        roles.SuperAdmin,
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
}

// withSession кладёт сессию в контекст запроса, как это делает guard.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), uimiddleware.ContextKeySession, sess))
}
