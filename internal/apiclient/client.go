// Пакет apiclient — HTTP-клиент к REST API ассоциации «Solidarité et Sérénité».
// Все операции консоли против бизнес-данных проходят через этот клиент:
// аутентификация, регистрация, администрирование адгерентов и структур.
// Единый контракт ответов: непустой JSON {message} при ошибке,
// списки — голый массив либо обёртка items/data/results.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// APIError — нормализованная ошибка API.
// Message уже приведён: JSON message → текст статуса → "HTTP <code>".
type APIError struct {
	// Status — HTTP-статус ответа
	Status int
	// Message — человекочитаемое сообщение
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client — HTTP-клиент к API ассоциации.
type Client struct {
	baseURL    string // Базовый URL API (без trailing slash)
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент к API ассоциации.
// baseURL — базовый URL (например, https://api.solidarite-serenite.fr).
// Пустой baseURL — ошибка конфигурации: падаем сразу, а не на первом запросе.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("базовый URL API не задан")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "api_client")),
	}, nil
}

// BaseURL возвращает базовый URL API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- HTTP helpers ---

// do выполняет запрос с JSON-телом.
// token — bearer-токен; пустая строка для публичных endpoint'ов.
func (c *Client) do(req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос к API %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// newJSONRequest создаёт запрос с JSON-телом (body может быть nil).
func (c *Client) newJSONRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// decodeResponse проверяет статус и декодирует JSON ответ в target.
// target == nil — тело ответа игнорируется.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа API: %w", err)
		}
	}

	return nil
}

// readAPIError приводит не-2xx ответ к APIError.
// Приоритет сообщения: JSON поле message → текст HTTP-статуса → "HTTP <код>".
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		return &APIError{Status: resp.StatusCode, Message: payload.Message}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return &APIError{Status: resp.StatusCode, Message: text}
	}

	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
}

// unwrapList извлекает элементы из ответа-списка.
// Поддерживаемые формы: голый массив, объект с массивом под ключом
// items, data или results (в этом порядке приоритета).
// Любая другая форма — пустой список, не ошибка.
func unwrapList[T any](raw json.RawMessage) []T {
	var direct []T
	if err := json.Unmarshal(raw, &direct); err == nil {
		if direct == nil {
			return []T{}
		}
		return direct
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return []T{}
	}

	for _, key := range []string{"items", "data", "results"} {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		var list []T
		if err := json.Unmarshal(inner, &list); err == nil && list != nil {
			return list
		}
	}

	return []T{}
}

// decodeListResponse проверяет статус и извлекает список через unwrapList.
func decodeListResponse[T any](resp *http.Response) ([]T, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("чтение ответа API: %w", err)
	}

	return unwrapList[T](raw), nil
}
