package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ConsoleSetting — запись из таблицы console_settings.
type ConsoleSetting struct {
	// Ключ настройки (dot-notation, например "console.page_size")
	Key string
	// Значение настройки (строковое представление)
	Value string
	// Время последнего обновления
	UpdatedAt time.Time
	// Кто обновил настройку (email администратора)
	UpdatedBy string
}

// ConsoleSettingsRepository — интерфейс для таблицы console_settings.
type ConsoleSettingsRepository interface {
	// Get возвращает настройку по ключу. Если не найдена — ErrNotFound.
	Get(ctx context.Context, key string) (*ConsoleSetting, error)
	// Set создаёт или обновляет настройку (upsert).
	Set(ctx context.Context, key, value, updatedBy string) error
	// List возвращает все настройки.
	List(ctx context.Context) ([]ConsoleSetting, error)
	// Delete удаляет настройку по ключу.
	Delete(ctx context.Context, key string) error
}

type consoleSettingsRepo struct {
	db DBTX
}

// NewConsoleSettingsRepository создаёт репозиторий настроек консоли.
func NewConsoleSettingsRepository(db DBTX) ConsoleSettingsRepository {
	return &consoleSettingsRepo{db: db}
}

// Get возвращает настройку по ключу.
func (r *consoleSettingsRepo) Get(ctx context.Context, key string) (*ConsoleSetting, error) {
	query := `
		SELECT key, value, updated_at, updated_by
		FROM console_settings
		WHERE key = $1`

	s := &ConsoleSetting{}
	err := r.db.QueryRow(ctx, query, key).Scan(
		&s.Key, &s.Value, &s.UpdatedAt, &s.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения console_settings[%s]: %w", key, err)
	}
	return s, nil
}

// Set создаёт или обновляет настройку (INSERT ... ON CONFLICT DO UPDATE).
func (r *consoleSettingsRepo) Set(ctx context.Context, key, value, updatedBy string) error {
	query := `
		INSERT INTO console_settings (key, value, updated_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, key, value, updatedBy)
	if err != nil {
		return fmt.Errorf("ошибка сохранения console_settings[%s]: %w", key, err)
	}
	return nil
}

// List возвращает все настройки, отсортированные по ключу.
func (r *consoleSettingsRepo) List(ctx context.Context) ([]ConsoleSetting, error) {
	query := `
		SELECT key, value, updated_at, updated_by
		FROM console_settings
		ORDER BY key`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка console_settings: %w", err)
	}
	defer rows.Close()

	var settings []ConsoleSetting
	for rows.Next() {
		var s ConsoleSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt, &s.UpdatedBy); err != nil {
			return nil, fmt.Errorf("ошибка сканирования console_settings: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Delete удаляет настройку по ключу.
func (r *consoleSettingsRepo) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM console_settings WHERE key = $1`
	tag, err := r.db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления console_settings[%s]: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
