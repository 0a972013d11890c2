package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gregory-nguekam/solidarite-serenite/internal/config"
	"github.com/gregory-nguekam/solidarite-serenite/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("solidarite_test"),
		postgres.WithUsername("solidarite"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("SS_DB_HOST", host)
	os.Setenv("SS_DB_PORT", port.Port())
	os.Setenv("SS_DB_NAME", "solidarite_test")
	os.Setenv("SS_DB_USER", "solidarite")
	os.Setenv("SS_DB_PASSWORD", "test-password")
	os.Setenv("SS_DB_SSL_MODE", "disable")
	os.Setenv("SS_API_URL", "http://localhost:9090")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// --- Тесты ConsoleSettingsRepository ---

func TestConsoleSettingsCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewConsoleSettingsRepository(pool)

	// Миграция заполняет значения по умолчанию
	setting, err := repo.Get(ctx, "console.page_size")
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if setting.Value != "25" {
		t.Errorf("console.page_size = %q, ожидали %q", setting.Value, "25")
	}

	// Upsert поверх существующего ключа
	if err := repo.Set(ctx, "console.page_size", "50", "admin@solidarite.fr"); err != nil {
		t.Fatalf("Set() ошибка: %v", err)
	}
	setting, err = repo.Get(ctx, "console.page_size")
	if err != nil {
		t.Fatalf("Get() после Set() ошибка: %v", err)
	}
	if setting.Value != "50" {
		t.Errorf("значение после upsert = %q, ожидали %q", setting.Value, "50")
	}
	if setting.UpdatedBy != "admin@solidarite.fr" {
		t.Errorf("updated_by = %q", setting.UpdatedBy)
	}

	// Новый ключ
	if err := repo.Set(ctx, "console.default_lang", "en", "admin@solidarite.fr"); err != nil {
		t.Fatalf("Set() нового ключа ошибка: %v", err)
	}

	// List отсортирован по ключу
	settings, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(settings) < 2 {
		t.Fatalf("List() вернул %d настроек, ожидали минимум 2", len(settings))
	}
	for i := 1; i < len(settings); i++ {
		if settings[i-1].Key > settings[i].Key {
			t.Errorf("List() не отсортирован: %q > %q", settings[i-1].Key, settings[i].Key)
		}
	}

	// Delete
	if err := repo.Set(ctx, "console.default_lang", "fr", "admin@solidarite.fr"); err != nil {
		t.Fatalf("Set() ошибка: %v", err)
	}
	if err := repo.Delete(ctx, "console.default_lang"); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.Get(ctx, "console.default_lang"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() после Delete() = %v, ожидали ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "console.default_lang"); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() = %v, ожидали ErrNotFound", err)
	}
}

func TestConsoleSettingsGetMissing(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewConsoleSettingsRepository(pool)

	if _, err := repo.Get(ctx, "console.inconnu"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() несуществующего ключа = %v, ожидали ErrNotFound", err)
	}
}

// TestTxRunner проверяет, что репозиторий работает и внутри транзакции,
// и что ошибка внутри fn откатывает изменения.
func TestTxRunner(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	runner := NewTxRunner(pool)

	// Успешная транзакция
	err := runner.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := NewConsoleSettingsRepository(tx)
		return repo.Set(ctx, "console.page_size", "100", "tx-test")
	})
	if err != nil {
		t.Fatalf("RunInTx() ошибка: %v", err)
	}

	repo := NewConsoleSettingsRepository(pool)
	setting, err := repo.Get(ctx, "console.page_size")
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if setting.Value != "100" {
		t.Errorf("значение после транзакции = %q, ожидали %q", setting.Value, "100")
	}

	// Ошибка внутри fn откатывает изменения
	boom := errors.New("boom")
	err = runner.RunInTx(ctx, func(tx pgx.Tx) error {
		txRepo := NewConsoleSettingsRepository(tx)
		if err := txRepo.Set(ctx, "console.page_size", "999", "tx-test"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx() = %v, ожидали boom", err)
	}

	setting, err = repo.Get(ctx, "console.page_size")
	if err != nil {
		t.Fatalf("Get() после отката ошибка: %v", err)
	}
	if setting.Value != "100" {
		t.Errorf("значение после отката = %q, ожидали %q", setting.Value, "100")
	}
}
