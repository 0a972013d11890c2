// Пакет server — HTTP-сервер веб-консоли с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/config"
	"github.com/gregory-nguekam/solidarite-serenite/internal/database"
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/roles"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/handlers"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	uimiddleware "github.com/gregory-nguekam/solidarite-serenite/internal/ui/middleware"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/static"
)

// Deps — обработчики и инфраструктура, которые сервер связывает
// в дерево маршрутов.
type Deps struct {
	Home         *handlers.HomeHandler
	Auth         *handlers.AuthHandler
	Register     *handlers.RegisterHandler
	Associations *handlers.AssociationsHandler
	AdminUsers   *handlers.AdminUsersHandler
	Settings     *handlers.SettingsHandler

	Guard     *uimiddleware.Guard
	Readiness *database.ReadinessChecker
	APIClient *apiclient.Client
}

// Server — HTTP-сервер консоли.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// Доступ к зонам: /app/associations — от ADHERENT, /app/admin — от
// ADMIN_MEMBRE, /app/settings — только SUPER_ADMIN.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(uimiddleware.Metrics())
	router.Use(uimiddleware.RequestLogger(logger))
	router.Use(i18n.Middleware(cfg.DefaultLang))

	// Публичная зона: сессия в контексте, если есть, но не требуется.
	router.Group(func(r chi.Router) {
		r.Use(deps.Guard.Attach())

		r.Get("/", deps.Home.HandleHome)
		r.Get("/homeLogin", deps.Home.HandleHomeLogin)
		r.Get("/unauthorized", deps.Home.HandleUnauthorized)

		r.Get("/login", deps.Auth.HandleLoginPage)
		r.Post("/login", deps.Auth.HandleLogin)
		r.Post("/logout", deps.Auth.HandleLogout)
		r.Get("/forgot-password", deps.Auth.HandleForgotPasswordPage)
		r.Post("/forgot-password", deps.Auth.HandleForgotPassword)

		r.Get("/register", deps.Register.HandleRegisterPage)
		r.Post("/register", deps.Register.HandleRegister)
		r.Get("/registerAssociation", deps.Register.HandleRegisterAssociationPage)
		r.Post("/registerAssociation", deps.Register.HandleRegisterAssociation)

		r.Post("/set-language", handlers.HandleSetLanguage)

		r.NotFound(deps.Home.HandleNotFound)
	})

	// Зона адгерента: справочник членских структур.
	router.Group(func(r chi.Router) {
		r.Use(deps.Guard.RequireRole(roles.Adherent))

		r.Get("/app/associations", deps.Associations.HandleList)
		r.Get("/app/associations/{id}", deps.Associations.HandleDetail)
	})

	// Зона администратора: консоль управления адгерентами.
	router.Group(func(r chi.Router) {
		r.Use(deps.Guard.RequireRole(roles.AdminMembre))

		r.Get("/app/admin/users", deps.AdminUsers.HandleUsersPage)
		r.Get("/app/admin/users/rows", deps.AdminUsers.HandleUserRows)
		r.Post("/app/admin/users/{id}/validate", deps.AdminUsers.HandleSetValidated)
		r.Post("/app/admin/users/{id}/active", deps.AdminUsers.HandleSetActive)
		r.Get("/app/admin/users/{id}/drawer", deps.AdminUsers.HandleDrawer)
		r.Get("/app/admin/users/{id}/drawer/edit", deps.AdminUsers.HandleDrawerEdit)
		r.Get("/app/admin/users/{id}/drawer/close", deps.AdminUsers.HandleDrawerClose)
		r.Post("/app/admin/users/{id}/update", deps.AdminUsers.HandleUpdate)
		r.Post("/app/admin/users/{id}/membre", deps.AdminUsers.HandleMembre)
		r.Post("/app/admin/users/{id}/documents", deps.AdminUsers.HandleDocumentUpload)
		r.Get("/app/admin/users/{id}/documents/{docID}/raw", deps.AdminUsers.HandleDocumentRaw)
	})

	// Зона супер-администратора: настройки консоли.
	router.Group(func(r chi.Router) {
		r.Use(deps.Guard.RequireRole(roles.SuperAdmin))

		r.Get("/app/settings", deps.Settings.HandleSettingsPage)
		r.Post("/app/settings", deps.Settings.HandleSettingsSave)
		r.Post("/app/associations/{id}/delete", deps.Associations.HandleDelete)
	})

	// Служебные endpoints: статика, пробы, метрики.
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))
	router.Get("/health/live", handleLiveness)
	router.Get("/health/ready", handleReadiness(deps, logger))
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// healthResponse — тело ответа health-проб.
type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version"`
}

func writeHealth(w http.ResponseWriter, status int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck // health-проба
}

// handleLiveness обрабатывает GET /health/live.
// Процесс жив, если дошёл до этого handler.
func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{Status: "ok", Version: config.Version})
}

// handleReadiness обрабатывает GET /health/ready.
// Консоль готова, когда доступны PostgreSQL и внешний API.
func handleReadiness(deps Deps, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status, message := deps.Readiness.CheckReady(); status != "ok" {
			logger.Warn("PostgreSQL недоступна", slog.String("message", message))
			writeHealth(w, http.StatusServiceUnavailable, healthResponse{
				Status:  status,
				Message: message,
				Version: config.Version,
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := deps.APIClient.Ping(ctx); err != nil {
			logger.Warn("API ассоциации недоступен", slog.String("error", err.Error()))
			writeHealth(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "error",
				Message: "API ассоциации недоступен",
				Version: config.Version,
			})
			return
		}

		writeHealth(w, http.StatusOK, healthResponse{Status: "ok", Version: config.Version})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
