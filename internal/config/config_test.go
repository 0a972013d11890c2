package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения и возвращает функцию для их очистки.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"SS_API_URL":     "https://api.solidarite-serenite.fr",
		"SS_DB_HOST":     "localhost",
		"SS_DB_NAME":     "serenite",
		"SS_DB_USER":     "serenite",
		"SS_DB_PASSWORD": "secret",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIURL != "https://api.solidarite-serenite.fr" {
		t.Errorf("APIURL = %q, ожидается https://api.solidarite-serenite.fr", cfg.APIURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout = %v, ожидается 30s", cfg.APITimeout)
	}
	if cfg.APIJWKSURL != "" {
		t.Errorf("APIJWKSURL = %q, ожидается пустая строка", cfg.APIJWKSURL)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 12h", cfg.SessionTTL)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, ожидается localhost", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DefaultLang != "fr" {
		t.Errorf("DefaultLang = %q, ожидается fr", cfg.DefaultLang)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d, ожидается 25", cfg.PageSize)
	}
	if cfg.ViewStateTTL != 30*time.Minute {
		t.Errorf("ViewStateTTL = %v, ожидается 30m", cfg.ViewStateTTL)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_PORT"] = "9090"
	envs["SS_LOG_LEVEL"] = "debug"
	envs["SS_LOG_FORMAT"] = "text"
	envs["SS_API_TIMEOUT"] = "10s"
	envs["SS_API_JWKS_URL"] = "https://api.solidarite-serenite.fr/.well-known/jwks.json"
	envs["SS_SESSION_SECRET"] = "тайна"
	envs["SS_SESSION_TTL"] = "1h"
	envs["SS_DB_PORT"] = "5433"
	envs["SS_DB_SSL_MODE"] = "require"
	envs["SS_DEFAULT_LANG"] = "en"
	envs["SS_PAGE_SIZE"] = "50"
	envs["SS_VIEWSTATE_TTL"] = "15m"
	envs["SS_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %v, ожидается 10s", cfg.APITimeout)
	}
	if cfg.APIJWKSURL == "" {
		t.Error("APIJWKSURL пустой, ожидается заданное значение")
	}
	if cfg.SessionSecret != "тайна" {
		t.Errorf("SessionSecret = %q, ожидается тайна", cfg.SessionSecret)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 1h", cfg.SessionTTL)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.DefaultLang != "en" {
		t.Errorf("DefaultLang = %q, ожидается en", cfg.DefaultLang)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, ожидается 50", cfg.PageSize)
	}
	if cfg.ViewStateTTL != 15*time.Minute {
		t.Errorf("ViewStateTTL = %v, ожидается 15m", cfg.ViewStateTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredVars := []string{
		"SS_API_URL", "SS_DB_HOST", "SS_DB_NAME", "SS_DB_USER", "SS_DB_PASSWORD",
	}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			delete(envs, missing)
			// Очищаем все переменные окружения
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"выше диапазона", "70000"},
		{"не число", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["SS_PORT"] = tt.value
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при SS_PORT=%q", tt.value)
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_LOG_LEVEL"] = "verbose"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при SS_LOG_LEVEL=verbose")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_LOG_FORMAT"] = "xml"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при SS_LOG_FORMAT=xml")
	}
}

func TestLoad_InvalidSSLMode(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_DB_SSL_MODE"] = "prefer"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при SS_DB_SSL_MODE=prefer")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_API_TIMEOUT"] = "abc"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при SS_API_TIMEOUT=abc")
	}
}

func TestLoad_InvalidDefaultLang(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_DEFAULT_LANG"] = "de"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при SS_DEFAULT_LANG=de")
	}
}

func TestLoad_InvalidPageSize(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"слишком маленький", "0"},
		{"слишком большой", "501"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["SS_PAGE_SIZE"] = tt.value
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при SS_PAGE_SIZE=%q", tt.value)
			}
		})
	}
}

func TestLoad_APIURLTrailingSlash(t *testing.T) {
	envs := minimalEnvs()
	envs["SS_API_URL"] = "https://api.solidarite-serenite.fr/"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.APIURL != "https://api.solidarite-serenite.fr" {
		t.Errorf("APIURL = %q, ожидается без trailing slash", cfg.APIURL)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "serenite",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=serenite user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}
