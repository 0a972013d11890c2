// console_settings.go — сервис параметров консоли.
// Типизированные геттеры с значениями по умолчанию из конфигурации
// и сохранение нескольких параметров одной транзакцией.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/gregory-nguekam/solidarite-serenite/internal/repository"
)

// Допустимые ключи настроек (dot-notation).
// Используется для валидации при Set.
var validSettingKeys = map[string]string{
	"console.page_size":    "Размер страницы списка адгерентов (1-500)",
	"console.default_lang": "Язык консоли по умолчанию (fr/en)",
}

// ConsoleSettingsService — сервис для работы с параметрами консоли.
type ConsoleSettingsService struct {
	repo   repository.ConsoleSettingsRepository
	tx     *repository.TxRunner
	logger *slog.Logger

	// Значения по умолчанию из конфигурации, когда записи в БД нет.
	defaultPageSize int
	defaultLang     string
}

// NewConsoleSettingsService создаёт сервис параметров консоли.
func NewConsoleSettingsService(
	repo repository.ConsoleSettingsRepository,
	tx *repository.TxRunner,
	defaultPageSize int,
	defaultLang string,
	logger *slog.Logger,
) *ConsoleSettingsService {
	return &ConsoleSettingsService{
		repo:            repo,
		tx:              tx,
		logger:          logger.With(slog.String("service", "console_settings")),
		defaultPageSize: defaultPageSize,
		defaultLang:     defaultLang,
	}
}

// Get возвращает значение настройки по ключу.
// Возвращает ErrNotFound если настройка не существует.
func (s *ConsoleSettingsService) Get(ctx context.Context, key string) (*repository.ConsoleSetting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения настройки %q: %w", key, err)
	}
	return setting, nil
}

// Set устанавливает значение настройки. Валидирует ключ и значение.
// updatedBy — email администратора, выполняющего изменение.
func (s *ConsoleSettingsService) Set(ctx context.Context, key, value, updatedBy string) error {
	if _, ok := validSettingKeys[key]; !ok {
		return fmt.Errorf("%w: недопустимый ключ настройки %q", ErrValidation, key)
	}
	if err := validateValue(key, value); err != nil {
		return err
	}

	if err := s.repo.Set(ctx, key, value, updatedBy); err != nil {
		return fmt.Errorf("ошибка сохранения настройки %q: %w", key, err)
	}

	s.logger.Info("Настройка обновлена",
		slog.String("key", key),
		slog.String("updated_by", updatedBy),
	)
	return nil
}

// SetAll сохраняет несколько настроек одной транзакцией:
// либо применяются все, либо ни одной.
func (s *ConsoleSettingsService) SetAll(ctx context.Context, values map[string]string, updatedBy string) error {
	for key, value := range values {
		if _, ok := validSettingKeys[key]; !ok {
			return fmt.Errorf("%w: недопустимый ключ настройки %q", ErrValidation, key)
		}
		if err := validateValue(key, value); err != nil {
			return err
		}
	}

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		txRepo := repository.NewConsoleSettingsRepository(tx)
		for key, value := range values {
			if err := txRepo.Set(ctx, key, value, updatedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения настроек: %w", err)
	}

	s.logger.Info("Настройки консоли обновлены",
		slog.Int("count", len(values)),
		slog.String("updated_by", updatedBy),
	)
	return nil
}

// List возвращает все настройки.
func (s *ConsoleSettingsService) List(ctx context.Context) ([]repository.ConsoleSetting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка настроек: %w", err)
	}
	return settings, nil
}

// --- Типизированные геттеры --- //

// PageSize возвращает размер страницы списка адгерентов.
// При отсутствии или порче записи — значение из конфигурации.
func (s *ConsoleSettingsService) PageSize(ctx context.Context) int {
	setting, err := s.repo.Get(ctx, "console.page_size")
	if err != nil {
		return s.defaultPageSize
	}
	n, err := strconv.Atoi(setting.Value)
	if err != nil || n < 1 || n > 500 {
		return s.defaultPageSize
	}
	return n
}

// DefaultLang возвращает язык консоли по умолчанию.
func (s *ConsoleSettingsService) DefaultLang(ctx context.Context) string {
	setting, err := s.repo.Get(ctx, "console.default_lang")
	if err != nil {
		return s.defaultLang
	}
	if setting.Value != "fr" && setting.Value != "en" {
		return s.defaultLang
	}
	return setting.Value
}

// --- Валидация значений --- //

func validateValue(key, value string) error {
	switch key {
	case "console.page_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 500 {
			return fmt.Errorf("%w: %s должен быть числом от 1 до 500", ErrValidation, key)
		}
	case "console.default_lang":
		if value != "fr" && value != "en" {
			return fmt.Errorf("%w: %s должен быть fr или en", ErrValidation, key)
		}
	}
	return nil
}
