// Пакет config — загрузка и валидация конфигурации веб-консоли
// «Solidarité et Sérénité» из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации консоли.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- API ассоциации ---

	// Базовый URL REST API ассоциации (например, https://api.solidarite-serenite.fr)
	APIURL string
	// Таймаут запросов к API
	APITimeout time.Duration
	// URL JWKS endpoint API для локальной проверки токенов (опционально;
	// если пусто — подпись токена не проверяется на стороне консоли)
	APIJWKSURL string

	// --- Сессии ---

	// Секрет для шифрования cookie сессий (base64 или произвольная строка).
	// Если пусто — генерируется случайный ключ, сессии не переживают рестарт.
	SessionSecret string
	// Время жизни сессии при отсутствии exp в токене
	SessionTTL time.Duration
	// Ставить Secure flag на cookie (true за HTTPS-прокси)
	SecureCookies bool

	// --- PostgreSQL (локальные настройки консоли) ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Интерфейс ---

	// Язык интерфейса по умолчанию (fr, en)
	DefaultLang string
	// Размер страницы списка адгерентов по умолчанию
	PageSize int
	// Время жизни кэша состояния списка на сессию
	ViewStateTTL time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("SS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("SS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// SS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SS_LOG_LEVEL: %w", err)
	}

	// SS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("SS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- API ассоциации ---

	// SS_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("SS_API_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	// SS_API_TIMEOUT — таймаут запросов к API (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDuration("SS_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SS_API_TIMEOUT: %w", err)
	}

	// SS_API_JWKS_URL — опциональный
	cfg.APIJWKSURL = getEnvDefault("SS_API_JWKS_URL", "")

	// --- Сессии ---

	// SS_SESSION_SECRET — опциональный (без него сессии не переживают рестарт)
	cfg.SessionSecret = getEnvDefault("SS_SESSION_SECRET", "")

	// SS_SESSION_TTL — время жизни сессии (по умолчанию 12h)
	cfg.SessionTTL, err = getEnvDuration("SS_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("SS_SESSION_TTL: %w", err)
	}

	// SS_SECURE_COOKIES — Secure flag для cookie (по умолчанию false)
	cfg.SecureCookies = getEnvDefault("SS_SECURE_COOKIES", "false") == "true"

	// --- PostgreSQL ---

	// SS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("SS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// SS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("SS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SS_DB_PORT: %w", err)
	}

	// SS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("SS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// SS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("SS_DB_USER")
	if err != nil {
		return nil, err
	}

	// SS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("SS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// SS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("SS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Интерфейс ---

	// SS_DEFAULT_LANG — язык по умолчанию (по умолчанию fr)
	cfg.DefaultLang = getEnvDefault("SS_DEFAULT_LANG", "fr")
	if cfg.DefaultLang != "fr" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("SS_DEFAULT_LANG: недопустимое значение %q, допустимые: fr, en", cfg.DefaultLang)
	}

	// SS_PAGE_SIZE — размер страницы списка (по умолчанию 25)
	cfg.PageSize, err = getEnvInt("SS_PAGE_SIZE", 25)
	if err != nil {
		return nil, fmt.Errorf("SS_PAGE_SIZE: %w", err)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 500 {
		return nil, fmt.Errorf("SS_PAGE_SIZE: значение %d вне допустимого диапазона 1-500", cfg.PageSize)
	}

	// SS_VIEWSTATE_TTL — время жизни кэша состояния списка (по умолчанию 30m)
	cfg.ViewStateTTL, err = getEnvDuration("SS_VIEWSTATE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SS_VIEWSTATE_TTL: %w", err)
	}

	// --- Graceful shutdown ---

	// SS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("SS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
