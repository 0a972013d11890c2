// auth.go — аутентификация и регистрация.
// Операции: Login (POST /api/auth/login), Me (GET /api/me),
// RegisterAdherent (POST /api/adherent/register, multipart),
// RegisterMembre (POST /api/membre/register, multipart),
// RequestPasswordReset (POST /api/auth/forgot-password),
// Ping (GET /api/health).
package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// FileUpload — файл для multipart-отправки.
type FileUpload struct {
	// Filename — имя файла
	Filename string
	// ContentType — MIME-тип (пустой — application/octet-stream)
	ContentType string
	// Reader — содержимое
	Reader io.Reader
}

// loginResponse — ответ на логин; поле токена исторически гуляло.
type loginResponse struct {
	Token       string `json:"token,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	JWT         string `json:"jwt,omitempty"`
}

// bearer возвращает токен из любого из трёх полей,
// приоритет: token → accessToken → jwt.
func (r loginResponse) bearer() string {
	return firstNonEmpty(r.Token, r.AccessToken, r.JWT)
}

// Login выполняет вход по email и паролю.
// Возвращает bearer-токен. Пустой токен в 2xx-ответе — ошибка API.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.do(req, "")
	if err != nil {
		return "", err
	}

	var login loginResponse
	if err := decodeResponse(resp, &login); err != nil {
		return "", fmt.Errorf("Login: %w", err)
	}

	token := login.bearer()
	if token == "" {
		return "", fmt.Errorf("Login: API не вернул токен")
	}

	return token, nil
}

// Me возвращает профиль владельца токена.
func (c *Client) Me(ctx context.Context, token string) (model.AdminUser, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/me", nil)
	if err != nil {
		return model.AdminUser{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.AdminUser{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.AdminUser{}, fmt.Errorf("Me: %w", err)
	}

	return wire.Normalize(), nil
}

// RequestPasswordReset запрашивает письмо для сброса пароля.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": email,
	})
	if err != nil {
		return err
	}

	resp, err := c.do(req, "")
	if err != nil {
		return err
	}

	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("RequestPasswordReset: %w", err)
	}
	return nil
}

// AdherentRegistration — данные регистрации адгерента.
type AdherentRegistration struct {
	Nom       string
	Prenom    string
	Email     string
	Password  string
	Telephone string
	Adresse   model.Address
	// AdhesionYears — число лет взноса (1-5)
	AdhesionYears int
	// MontantTotal — котизация в евро за выбранные годы
	MontantTotal int
	// Identite, JustificatifDomicile, RIB — обязательные документы досье
	Identite             FileUpload
	JustificatifDomicile FileUpload
	RIB                  FileUpload
}

// RegisterAdherent регистрирует адгерента (multipart form-data).
// Адресные поля уходят с точечными ключами (adresse.rue и т.д.).
// Если API возвращает токен — регистрация завершается автоматическим входом.
func (c *Client) RegisterAdherent(ctx context.Context, reg AdherentRegistration) (string, error) {
	fields := map[string]string{
		"nom":                reg.Nom,
		"prenom":             reg.Prenom,
		"email":              reg.Email,
		"password":           reg.Password,
		"telephone":          reg.Telephone,
		"adresse.numeroRue":  reg.Adresse.NumeroRue,
		"adresse.rue":        reg.Adresse.Rue,
		"adresse.codePostal": reg.Adresse.CodePostal,
		"adresse.ville":      reg.Adresse.Ville,
		"adresse.complement": reg.Adresse.Complement,
		"adhesionYears":      strconv.Itoa(reg.AdhesionYears),
		"montantTotal":       strconv.Itoa(reg.MontantTotal),
	}
	files := map[string]FileUpload{
		"identite":             reg.Identite,
		"justificatifDomicile": reg.JustificatifDomicile,
		"rib":                  reg.RIB,
	}

	resp, err := c.postMultipart(ctx, "/api/adherent/register", "", fields, files)
	if err != nil {
		return "", err
	}

	var login loginResponse
	if err := decodeResponse(resp, &login); err != nil {
		return "", fmt.Errorf("RegisterAdherent: %w", err)
	}

	return login.bearer(), nil
}

// MembreRegistration — данные регистрации членской структуры
// (ассоциация, группа или семья).
type MembreRegistration struct {
	// Type — ASSOCIATION, GROUPE или FAMILLE
	Type             string
	Nom              string
	Initiales        string
	Email            string
	Telephone        string
	Adresse          model.Address
	CentreInteret    string
	DeleguePrincipal string
	DelegueAdjoint1  string
	DelegueAdjoint2  string
	DelegueAdjoint3  string
	// Siret — выписка SIRET (для ассоциаций)
	Siret FileUpload
	// ListeAdherents — список адгерентов структуры
	ListeAdherents FileUpload
}

// RegisterMembre регистрирует членскую структуру (multipart form-data).
func (c *Client) RegisterMembre(ctx context.Context, reg MembreRegistration) error {
	fields := map[string]string{
		"type":               reg.Type,
		"nom":                reg.Nom,
		"initiales":          reg.Initiales,
		"email":              reg.Email,
		"telephone":          reg.Telephone,
		"adresse.numeroRue":  reg.Adresse.NumeroRue,
		"adresse.rue":        reg.Adresse.Rue,
		"adresse.codePostal": reg.Adresse.CodePostal,
		"adresse.ville":      reg.Adresse.Ville,
		"adresse.complement": reg.Adresse.Complement,
		"centreInteret":      reg.CentreInteret,
		"deleguePrincipal":   reg.DeleguePrincipal,
		"delegueAdjoint1":    reg.DelegueAdjoint1,
		"delegueAdjoint2":    reg.DelegueAdjoint2,
		"delegueAdjoint3":    reg.DelegueAdjoint3,
	}
	files := map[string]FileUpload{
		"siret":          reg.Siret,
		"listeAdherents": reg.ListeAdherents,
	}

	resp, err := c.postMultipart(ctx, "/api/membre/register", "", fields, files)
	if err != nil {
		return err
	}

	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("RegisterMembre: %w", err)
	}
	return nil
}

// Ping проверяет доступность API (для readiness-пробы).
// Любой ответ сервера, включая 404, считается признаком доступности.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req, "")
	if err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	resp.Body.Close()
	return nil
}

// postMultipart собирает и отправляет multipart form-data запрос.
// Файлы с nil Reader пропускаются.
func (c *Client) postMultipart(ctx context.Context, path, token string, fields map[string]string, files map[string]FileUpload) (*http.Response, error) {
	return c.sendMultipart(ctx, http.MethodPost, path, token, fields, files)
}

func (c *Client) sendMultipart(ctx context.Context, method, path, token string, fields map[string]string, files map[string]FileUpload) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, files)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, pr)
	if err != nil {
		return nil, fmt.Errorf("создание multipart-запроса: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, token)
}

// writeMultipart пишет поля и файлы в multipart writer.
func writeMultipart(mw *multipart.Writer, fields map[string]string, files map[string]FileUpload) error {
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("поле %s: %w", name, err)
		}
	}

	for name, file := range files {
		if file.Reader == nil {
			continue
		}
		part, err := createFilePart(mw, name, file)
		if err != nil {
			return fmt.Errorf("файл %s: %w", name, err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return fmt.Errorf("копирование файла %s: %w", name, err)
		}
	}

	return nil
}

// createFilePart создаёт часть multipart с корректным Content-Type файла.
func createFilePart(mw *multipart.Writer, fieldName string, file FileUpload) (io.Writer, error) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name=%s; filename=%s`,
			strconv.Quote(fieldName), strconv.Quote(file.Filename)),
	}
	header["Content-Type"] = []string{contentType}

	return mw.CreatePart(header)
}
