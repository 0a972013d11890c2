// admin.go — административные операции над адгерентами и структурами.
// Операции: ListUsers, GetUser, SetValidated, UpdateUser, SetActive,
// SetRole, AssignMembre, ListMembres, UpsertDocument.
// Все запросы требуют bearer-токен администратора.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// ListUsers возвращает всех адгерентов.
// GET /api/admin/users.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.AdminUser, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/admin/users", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return nil, err
	}

	wire, err := decodeListResponse[wireUser](resp)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}

	return normalizeUsers(wire), nil
}

// GetUser возвращает адгерента по идентификатору.
// GET /api/admin/users/{id}.
func (c *Client) GetUser(ctx context.Context, token, userID string) (model.AdminUser, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/admin/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return model.AdminUser{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.AdminUser{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.AdminUser{}, fmt.Errorf("GetUser: %w", err)
	}

	return wire.Normalize(), nil
}

// SetValidated отмечает досье проверенным или снимает отметку.
// PATCH /api/admin/users/{id}/validate.
// Возвращает только поля, подтверждённые сервером: ответ может быть
// частичным, остальное досье строки не трогается.
func (c *Client) SetValidated(ctx context.Context, token, userID string, valide bool) (model.UserPatch, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPatch,
		"/api/admin/users/"+url.PathEscape(userID)+"/validate",
		map[string]bool{"valide": valide})
	if err != nil {
		return model.UserPatch{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.UserPatch{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.UserPatch{}, fmt.Errorf("SetValidated: %w", err)
	}

	return wire.NormalizePatch(), nil
}

// UserUpdate — изменяемые поля профиля и адреса.
type UserUpdate struct {
	Nom       string
	Prenom    string
	Email     string
	Telephone string
	Adresse   model.Address
}

// UpdateUser сохраняет профиль и адрес адгерента.
// PATCH /api/admin/users/{id}. Адрес уходит в camelCase.
func (c *Client) UpdateUser(ctx context.Context, token, userID string, update UserUpdate) (model.UserPatch, error) {
	payload := map[string]any{
		"nom":       update.Nom,
		"prenom":    update.Prenom,
		"email":     update.Email,
		"telephone": update.Telephone,
		"adresse":   addressPayload(update.Adresse),
	}

	req, err := c.newJSONRequest(ctx, http.MethodPatch,
		"/api/admin/users/"+url.PathEscape(userID), payload)
	if err != nil {
		return model.UserPatch{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.UserPatch{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.UserPatch{}, fmt.Errorf("UpdateUser: %w", err)
	}

	return wire.NormalizePatch(), nil
}

// SetActive включает или отключает аккаунт.
// PATCH /api/admin/users/{id}/active.
func (c *Client) SetActive(ctx context.Context, token, userID string, actif bool) (model.UserPatch, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPatch,
		"/api/admin/users/"+url.PathEscape(userID)+"/active",
		map[string]bool{"actif": actif})
	if err != nil {
		return model.UserPatch{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.UserPatch{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.UserPatch{}, fmt.Errorf("SetActive: %w", err)
	}

	return wire.NormalizePatch(), nil
}

// SetRole назначает роль пользователю.
// PATCH /api/admin/users/{id}/role.
func (c *Client) SetRole(ctx context.Context, token, userID, role string) (model.UserPatch, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPatch,
		"/api/admin/users/"+url.PathEscape(userID)+"/role",
		map[string]string{"role": role})
	if err != nil {
		return model.UserPatch{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.UserPatch{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.UserPatch{}, fmt.Errorf("SetRole: %w", err)
	}

	return wire.NormalizePatch(), nil
}

// AssignMembre привязывает адгерента к членской структуре.
// POST /api/admin/users/{id}/assign-membre.
// membreID == nil — отвязка; replace — заменить существующие привязки.
func (c *Client) AssignMembre(ctx context.Context, token, userID string, membreID *string, replace bool) (model.UserPatch, error) {
	payload := map[string]any{
		"membreId": membreID,
		"replace":  replace,
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost,
		"/api/admin/users/"+url.PathEscape(userID)+"/assign-membre", payload)
	if err != nil {
		return model.UserPatch{}, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return model.UserPatch{}, err
	}

	var wire wireUser
	if err := decodeResponse(resp, &wire); err != nil {
		return model.UserPatch{}, fmt.Errorf("AssignMembre: %w", err)
	}

	return wire.NormalizePatch(), nil
}

// ListMembres возвращает справочник членских структур.
// GET /api/membres.
func (c *Client) ListMembres(ctx context.Context, token string) ([]model.MemberOption, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/api/membres", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return nil, err
	}

	wire, err := decodeListResponse[wireMembre](resp)
	if err != nil {
		return nil, fmt.Errorf("ListMembres: %w", err)
	}

	options := make([]model.MemberOption, 0, len(wire))
	for _, w := range wire {
		options = append(options, w.NormalizeOption())
	}
	return options, nil
}

// DeleteMembre удаляет членскую структуру.
// DELETE /api/membres/{id}.
func (c *Client) DeleteMembre(ctx context.Context, token, membreID string) error {
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/api/membres/"+url.PathEscape(membreID), nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req, token)
	if err != nil {
		return err
	}

	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteMembre: %w", err)
	}
	return nil
}

// UpsertDocument заменяет документ досье указанного типа.
// PATCH /api/admin/users/{id}/documents/{type}, multipart с полем file.
// Возвращает документ в том виде, в каком его сохранил сервер.
func (c *Client) UpsertDocument(ctx context.Context, token, userID, docType string, file FileUpload) (model.Document, error) {
	path := "/api/admin/users/" + url.PathEscape(userID) + "/documents/" + url.PathEscape(docType)

	resp, err := c.sendMultipart(ctx, http.MethodPatch, path, token,
		nil, map[string]FileUpload{"file": file})
	if err != nil {
		return model.Document{}, err
	}

	var wire wireDocument
	if err := decodeResponse(resp, &wire); err != nil {
		return model.Document{}, fmt.Errorf("UpsertDocument: %w", err)
	}

	doc := wire.Normalize()
	if doc.Type == "" {
		doc.Type = docType
	}
	return doc, nil
}
