// models.go — wire-структуры API и адаптеры к каноническим моделям.
// API исторически отдаёт одни и те же данные в нескольких вариантах
// именования (nom/prenom, firstName/lastName, name; адрес в camelCase
// и snake_case). Адаптеры Normalize приводят всё к internal/domain/model,
// чтобы обработчики никогда не видели сырые варианты.
package apiclient

import (
	"strings"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// wireAddress — адрес в любом из двух вариантов именования.
type wireAddress struct {
	NumeroRue  string `json:"numeroRue,omitempty"`
	NumeroRueS string `json:"numero_rue,omitempty"`
	Rue        string `json:"rue,omitempty"`
	CodePostal string `json:"codePostal,omitempty"`
	CodePostS  string `json:"code_postal,omitempty"`
	Ville      string `json:"ville,omitempty"`
	Complement string `json:"complement,omitempty"`
	ComplementS string `json:"complement_adresse,omitempty"`
}

// Normalize приводит адрес к канонической форме.
// При дублировании вариантов camelCase имеет приоритет.
func (w wireAddress) Normalize() model.Address {
	return model.Address{
		NumeroRue:  firstNonEmpty(w.NumeroRue, w.NumeroRueS),
		Rue:        w.Rue,
		CodePostal: firstNonEmpty(w.CodePostal, w.CodePostS),
		Ville:      w.Ville,
		Complement: firstNonEmpty(w.Complement, w.ComplementS),
	}
}

// addressPayload сериализует адрес для отправки в API (только camelCase).
func addressPayload(a model.Address) map[string]string {
	return map[string]string{
		"numeroRue":  a.NumeroRue,
		"rue":        a.Rue,
		"codePostal": a.CodePostal,
		"ville":      a.Ville,
		"complement": a.Complement,
	}
}

// wireMembre — членская структура в ответах API.
type wireMembre struct {
	ID               string `json:"id"`
	Nom              string `json:"nom,omitempty"`
	Name             string `json:"name,omitempty"`
	Type             string `json:"type,omitempty"`
	Email            string `json:"email,omitempty"`
	Telephone        string `json:"telephone,omitempty"`
	Initiales        string `json:"initiales,omitempty"`
	CentreInteret    string `json:"centreInteret,omitempty"`
	DeleguePrincipal string `json:"deleguePrincipal,omitempty"`
	NbAdherents      int    `json:"nbAdherents,omitempty"`
}

// NormalizeRef приводит структуру к ссылке для записи адгерента.
func (w wireMembre) NormalizeRef() model.MembreRef {
	return model.MembreRef{
		ID:   w.ID,
		Nom:  firstNonEmpty(w.Nom, w.Name),
		Type: w.Type,
	}
}

// NormalizeOption приводит структуру к элементу справочника.
func (w wireMembre) NormalizeOption() model.MemberOption {
	return model.MemberOption{
		ID:               w.ID,
		Nom:              firstNonEmpty(w.Nom, w.Name),
		Type:             w.Type,
		Email:            w.Email,
		Telephone:        w.Telephone,
		Initiales:        w.Initiales,
		CentreInteret:    w.CentreInteret,
		DeleguePrincipal: w.DeleguePrincipal,
		NbAdherents:      w.NbAdherents,
	}
}

// wireDocument — документ досье в ответах API.
type wireDocument struct {
	ID            string `json:"id,omitempty"`
	Type          string `json:"type,omitempty"`
	Nom           string `json:"nom,omitempty"`
	Name          string `json:"name,omitempty"`
	FichierBase64 string `json:"fichierBase64,omitempty"`
	Statut        string `json:"statut,omitempty"`
}

// Normalize приводит документ к канонической форме.
func (w wireDocument) Normalize() model.Document {
	return model.Document{
		ID:            w.ID,
		Type:          strings.ToUpper(strings.TrimSpace(w.Type)),
		Nom:           firstNonEmpty(w.Nom, w.Name),
		FichierBase64: w.FichierBase64,
		Statut:        w.Statut,
	}
}

// wireUser — запись пользователя в любом историческом варианте.
type wireUser struct {
	ID        string `json:"id"`
	Nom       string `json:"nom,omitempty"`
	Prenom    string `json:"prenom,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	Role      string `json:"role,omitempty"`
	Valide    *bool  `json:"valide,omitempty"`
	Actif     *bool  `json:"actif,omitempty"`
	Active    *bool  `json:"active,omitempty"`

	Adresse *wireAddress `json:"adresse,omitempty"`

	Membres   []wireMembre   `json:"membres,omitempty"`
	Membre    *wireMembre    `json:"membre,omitempty"`
	Documents []wireDocument `json:"documents,omitempty"`
}

// Normalize приводит запись пользователя к канонической форме.
// Правила имени: nom/prenom → firstName/lastName → разбор поля name.
// Отсутствующий флаг актив трактуется как активный.
func (w wireUser) Normalize() model.AdminUser {
	u := model.AdminUser{
		ID:        w.ID,
		Email:     w.Email,
		Telephone: w.Telephone,
		Role:      w.Role,
		Actif:     true,
	}
	if w.Valide != nil {
		u.Valide = *w.Valide
	}

	u.Nom = firstNonEmpty(w.Nom, w.LastName)
	u.Prenom = firstNonEmpty(w.Prenom, w.FirstName)
	if u.Nom == "" && u.Prenom == "" && strings.TrimSpace(w.Name) != "" {
		prenom, nom, _ := strings.Cut(strings.TrimSpace(w.Name), " ")
		u.Prenom = prenom
		u.Nom = strings.TrimSpace(nom)
	}

	if w.Actif != nil {
		u.Actif = *w.Actif
	} else if w.Active != nil {
		u.Actif = *w.Active
	}

	if w.Adresse != nil {
		u.Adresse = w.Adresse.Normalize()
	}

	for _, m := range w.Membres {
		u.Membres = append(u.Membres, m.NormalizeRef())
	}
	if len(u.Membres) == 0 && w.Membre != nil {
		u.Membres = append(u.Membres, w.Membre.NormalizeRef())
	}

	for _, d := range w.Documents {
		u.Documents = append(u.Documents, d.Normalize())
	}

	return u
}

// NormalizePatch приводит ответ изменяющей операции к частичной
// записи: в патч входят только поля, которые сервер действительно
// вернул, — ответ вроде {id, valide} не стирает остальное досье.
func (w wireUser) NormalizePatch() model.UserPatch {
	p := model.UserPatch{}

	if nom := firstNonEmpty(w.Nom, w.LastName); nom != "" {
		p.Nom = &nom
	}
	if prenom := firstNonEmpty(w.Prenom, w.FirstName); prenom != "" {
		p.Prenom = &prenom
	}
	if p.Nom == nil && p.Prenom == nil && strings.TrimSpace(w.Name) != "" {
		prenom, nom, _ := strings.Cut(strings.TrimSpace(w.Name), " ")
		nom = strings.TrimSpace(nom)
		p.Prenom = &prenom
		p.Nom = &nom
	}
	if w.Email != "" {
		p.Email = &w.Email
	}
	if w.Telephone != "" {
		p.Telephone = &w.Telephone
	}
	if w.Role != "" {
		p.Role = &w.Role
	}

	p.Valide = w.Valide
	if w.Actif != nil {
		p.Actif = w.Actif
	} else if w.Active != nil {
		p.Actif = w.Active
	}

	if w.Adresse != nil {
		a := w.Adresse.Normalize()
		p.Adresse = &a
	}

	if w.Membres != nil {
		refs := make([]model.MembreRef, 0, len(w.Membres))
		for _, m := range w.Membres {
			refs = append(refs, m.NormalizeRef())
		}
		p.Membres = &refs
	} else if w.Membre != nil {
		refs := []model.MembreRef{w.Membre.NormalizeRef()}
		p.Membres = &refs
	}

	if w.Documents != nil {
		docs := make([]model.Document, 0, len(w.Documents))
		for _, d := range w.Documents {
			docs = append(docs, d.Normalize())
		}
		p.Documents = &docs
	}

	return p
}

// normalizeUsers применяет Normalize к каждому элементу списка.
func normalizeUsers(wire []wireUser) []model.AdminUser {
	users := make([]model.AdminUser, 0, len(wire))
	for _, w := range wire {
		users = append(users, w.Normalize())
	}
	return users
}

// firstNonEmpty возвращает первый непустой аргумент.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
