package viewstate

import (
	"strings"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// Сигнальные значения фильтров списка.
const (
	// FilterAll — фильтр не применяется.
	FilterAll = "ALL"
	// FilterNoMembre — только адгеренты без привязки к члену.
	FilterNoMembre = "NONE"
)

// Filter — критерии отбора строк списка. Пустая строка и "ALL"
// означают отсутствие ограничения.
type Filter struct {
	// Query — подстрока без учёта регистра: имя, email, телефон,
	// роль, названия привязанных членов.
	Query string
	// Role — точное совпадение роли.
	Role string
	// Membre — id привязанного члена либо FilterNoMembre.
	Membre string
}

// IsZero сообщает, что фильтр ничего не ограничивает.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" &&
		(f.Role == "" || f.Role == FilterAll) &&
		(f.Membre == "" || f.Membre == FilterAll)
}

// Apply возвращает строки, удовлетворяющие всем критериям сразу.
// Исходный срез не меняется.
func (f Filter) Apply(users []model.AdminUser) []model.AdminUser {
	out := make([]model.AdminUser, 0, len(users))
	for _, u := range users {
		if f.matches(u) {
			out = append(out, u)
		}
	}
	return out
}

func (f Filter) matches(u model.AdminUser) bool {
	if f.Role != "" && f.Role != FilterAll && u.Role != f.Role {
		return false
	}

	switch f.Membre {
	case "", FilterAll:
	case FilterNoMembre:
		if len(u.Membres) > 0 {
			return false
		}
	default:
		if !hasMembre(u, f.Membre) {
			return false
		}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	for _, field := range searchFields(u) {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func hasMembre(u model.AdminUser, membreID string) bool {
	for _, m := range u.Membres {
		if m.ID == membreID {
			return true
		}
	}
	return false
}

func searchFields(u model.AdminUser) []string {
	fields := []string{u.DisplayName(), u.Email, u.Telephone, u.Role}
	for _, m := range u.Membres {
		fields = append(fields, m.Nom)
	}
	return fields
}
