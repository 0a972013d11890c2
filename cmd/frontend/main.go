// Точка входа веб-консоли «Solidarité et Sérénité».
// Загружает конфигурацию, применяет миграции и подключается к
// PostgreSQL (локальные настройки консоли), создаёт клиент внешнего
// REST API ассоциации, собирает обработчики и запускает HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gregory-nguekam/solidarite-serenite/internal/apiclient"
	"github.com/gregory-nguekam/solidarite-serenite/internal/config"
	"github.com/gregory-nguekam/solidarite-serenite/internal/database"
	"github.com/gregory-nguekam/solidarite-serenite/internal/repository"
	"github.com/gregory-nguekam/solidarite-serenite/internal/server"
	"github.com/gregory-nguekam/solidarite-serenite/internal/service"
	"github.com/gregory-nguekam/solidarite-serenite/internal/session"
	uihandlers "github.com/gregory-nguekam/solidarite-serenite/internal/ui/handlers"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	uimiddleware "github.com/gregory-nguekam/solidarite-serenite/internal/ui/middleware"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/viewstate"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Консоль запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)

	if cfg.SessionSecret == "" {
		logger.Warn("SS_SESSION_SECRET не задан: сессии не переживут рестарт")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Клиент внешнего REST API ассоциации
	client, err := apiclient.New(cfg.APIURL, cfg.APITimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания API-клиента", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Сессии в шифрованной cookie; опциональная локальная
	// проверка подписи токена через JWKS API.
	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SecureCookies)
	if err != nil {
		logger.Error("Ошибка создания менеджера сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var verifier uimiddleware.TokenVerifier
	if cfg.APIJWKSURL != "" {
		v, err := session.NewVerifier(cfg.APIJWKSURL, logger)
		if err != nil {
			logger.Error("Ошибка создания verifier", slog.String("error", err.Error()))
			os.Exit(1)
		}
		verifier = v
		logger.Info("Локальная проверка токенов включена", slog.String("jwks_url", cfg.APIJWKSURL))
	}

	// 7. Переводы и шаблоны
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	renderer, err := pages.NewRenderer(logger)
	if err != nil {
		logger.Error("Ошибка загрузки шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Состояние консоли между запросами
	store := viewstate.NewStore(cfg.ViewStateTTL)

	// 9. Настройки консоли в PostgreSQL
	settingsRepo := repository.NewConsoleSettingsRepository(pool)
	txRunner := repository.NewTxRunner(pool)
	settingsSvc := service.NewConsoleSettingsService(settingsRepo, txRunner, cfg.PageSize, cfg.DefaultLang, logger)

	// 10. Обработчики
	guard := uimiddleware.NewGuard(sessions, verifier, logger)
	deps := server.Deps{
		Home:         uihandlers.NewHomeHandler(renderer, logger),
		Auth:         uihandlers.NewAuthHandler(client, sessions, store, renderer, cfg.SessionTTL, logger),
		Register:     uihandlers.NewRegisterHandler(client, sessions, renderer, cfg.SessionTTL, logger),
		Associations: uihandlers.NewAssociationsHandler(client, renderer, logger),
		AdminUsers:   uihandlers.NewAdminUsersHandler(client, store, renderer, logger),
		Settings:     uihandlers.NewSettingsHandler(settingsSvc, renderer, logger),
		Guard:        guard,
		Readiness:    database.NewReadinessChecker(pool),
		APIClient:    client,
	}

	// 11. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, deps)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Консоль остановлена")
}
