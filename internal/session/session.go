// Пакет session — сессии браузера веб-консоли.
// Данные сессии шифруются AES-256-GCM и живут только в cookie;
// на сервере ничего не хранится. Повреждённый или нечитаемый cookie
// трактуется как отсутствие сессии, никогда как ошибка страницы.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Имя cookie для зашифрованной сессии.
const CookieName = "ss_session"

// Максимальный возраст cookie сессии (24 часа).
const CookieMaxAge = 24 * 60 * 60

// Data — данные сессии, хранящиеся в зашифрованном cookie.
type Data struct {
	// Token — bearer-токен API ассоциации.
	Token string `json:"token"`
	// UserID — идентификатор пользователя.
	UserID string `json:"user_id"`
	// Email — адрес электронной почты.
	Email string `json:"email"`
	// DisplayName — имя для шапки интерфейса.
	DisplayName string `json:"display_name"`
	// Role — роль (VISITOR, ADHERENT, ADMIN_MEMBRE, SUPER_ADMIN).
	Role string `json:"role"`
	// ExpiresAt — время истечения токена (Unix timestamp).
	ExpiresAt int64 `json:"expires_at"`
}

// IsExpired проверяет, истёк ли токен.
// Возвращает true если до истечения менее 30 секунд.
func (d *Data) IsExpired() bool {
	return time.Now().Unix() >= d.ExpiresAt-30
}

// Manager — менеджер сессий консоли.
// Шифрует/дешифрует Data в HTTP cookie через AES-256-GCM.
type Manager struct {
	// gcm — AEAD cipher для шифрования/дешифрования.
	gcm cipher.AEAD
	// secure — использовать Secure flag для cookie (true для HTTPS).
	secure bool
}

// NewManager создаёт менеджер сессий.
// key — секрет: base64 от 32 байт либо произвольная строка (хешируется
// SHA-256). Пустой key — случайный ключ, сессии не переживают рестарт.
func NewManager(key string, secure bool) (*Manager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			// Не base64 — хешируем строку до 32 байт
			keyBytes = sha256Key(key)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Manager{
		gcm:    gcm,
		secure: secure,
	}, nil
}

// Encrypt шифрует Data и возвращает base64-строку.
func (m *Manager) Encrypt(data *Data) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	// Уникальный nonce на каждое шифрование
	nonce := make([]byte, m.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := m.gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в Data.
func (m *Manager) Decrypt(encrypted string) (*Data, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := m.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := m.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data Data
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}

	return &data, nil
}

// SetCookie устанавливает зашифрованный session cookie в ответ.
func (m *Manager) SetCookie(w http.ResponseWriter, data *Data) error {
	encrypted, err := m.Encrypt(data)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FromRequest извлекает и дешифрует Data из cookie запроса.
// Отсутствие cookie и любой сбой дешифрования — nil без ошибки:
// браузер с битым cookie просто анонимен.
func (m *Manager) FromRequest(r *http.Request) *Data {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	data, err := m.Decrypt(cookie.Value)
	if err != nil {
		return nil
	}
	return data
}

// ClearCookie удаляет session cookie из ответа (logout).
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sha256Key хеширует строковый ключ в 32 байта через SHA-256.
func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
