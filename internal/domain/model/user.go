// Пакет model — доменные модели консоли «Solidarité et Sérénité».
// Все записи приходят из REST API ассоциации; консоль ничего
// из них не хранит локально.
package model

import "strings"

// Address — почтовый адрес адгерента.
type Address struct {
	// NumeroRue — номер дома
	NumeroRue string
	// Rue — улица
	Rue string
	// CodePostal — почтовый индекс
	CodePostal string
	// Ville — город
	Ville string
	// Complement — дополнение адреса (этаж, корпус)
	Complement string
}

// IsZero сообщает, что ни одно поле адреса не заполнено.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MembreRef — членская структура (ассоциация, группа или семья),
// к которой привязан адгерент.
type MembreRef struct {
	// ID — идентификатор структуры
	ID string
	// Nom — название
	Nom string
	// Type — ASSOCIATION, GROUPE или FAMILLE
	Type string
}

// Document — загруженный адгерентом документ.
type Document struct {
	// ID — идентификатор документа
	ID string
	// Type — IDENTITE, JUSTIFICATIF_DOMICILE, RIB или иной
	Type string
	// Nom — имя файла
	Nom string
	// FichierBase64 — содержимое: data:-URL либо чистый base64
	FichierBase64 string
	// Statut — статус проверки (EN_ATTENTE, VALIDE, REFUSE)
	Statut string
}

// Известные типы документов досье адгерента.
const (
	DocIdentite             = "IDENTITE"
	DocJustificatifDomicile = "JUSTIFICATIF_DOMICILE"
	DocRIB                  = "RIB"
)

// KnownDocTypes — типы документов, под которые в досье отведены
// фиксированные слоты, в порядке отображения.
var KnownDocTypes = []string{DocIdentite, DocJustificatifDomicile, DocRIB}

// AdminUser — запись адгерента в административной консоли.
// Каноническая форма: все варианты именования полей API уже
// приведены адаптерами apiclient.
type AdminUser struct {
	// ID — идентификатор пользователя
	ID string
	// Nom — фамилия
	Nom string
	// Prenom — имя
	Prenom string
	// Email — адрес электронной почты
	Email string
	// Telephone — телефон
	Telephone string
	// Role — роль (VISITOR, ADHERENT, ADMIN_MEMBRE, SUPER_ADMIN)
	Role string
	// Valide — досье проверено администратором
	Valide bool
	// Actif — аккаунт активен
	Actif bool
	// Adresse — почтовый адрес
	Adresse Address
	// Membres — привязанные членские структуры
	Membres []MembreRef
	// Documents — документы досье
	Documents []Document
}

// DisplayName возвращает имя для отображения.
// Цепочка запасных вариантов: "Prenom Nom" → Email → "Utilisateur".
func (u AdminUser) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(u.Prenom) + " " + strings.TrimSpace(u.Nom))
	if full != "" {
		return full
	}
	if u.Email != "" {
		return u.Email
	}
	return "Utilisateur"
}

// MembreLabels возвращает названия привязанных структур.
func (u AdminUser) MembreLabels() []string {
	labels := make([]string, 0, len(u.Membres))
	for _, m := range u.Membres {
		if m.Nom != "" {
			labels = append(labels, m.Nom)
		}
	}
	return labels
}

// UserPatch — частичная запись пользователя из ответа API.
// nil-поле сервер не вернул: прежнее значение строки сохраняется.
type UserPatch struct {
	Nom       *string
	Prenom    *string
	Email     *string
	Telephone *string
	Role      *string
	Valide    *bool
	Actif     *bool
	Adresse   *Address
	Membres   *[]MembreRef
	Documents *[]Document
}

// Apply накладывает возвращённые сервером поля на запись.
func (p UserPatch) Apply(u *AdminUser) {
	if p.Nom != nil {
		u.Nom = *p.Nom
	}
	if p.Prenom != nil {
		u.Prenom = *p.Prenom
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Telephone != nil {
		u.Telephone = *p.Telephone
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Valide != nil {
		u.Valide = *p.Valide
	}
	if p.Actif != nil {
		u.Actif = *p.Actif
	}
	if p.Adresse != nil {
		u.Adresse = *p.Adresse
	}
	if p.Membres != nil {
		u.Membres = append([]MembreRef(nil), (*p.Membres)...)
	}
	if p.Documents != nil {
		u.Documents = append([]Document(nil), (*p.Documents)...)
	}
}

// MemberOption — элемент справочника членских структур
// для фильтра и формы привязки.
type MemberOption struct {
	// ID — идентификатор структуры
	ID string
	// Nom — название
	Nom string
	// Type — ASSOCIATION, GROUPE или FAMILLE
	Type string
	// Email — контактный адрес
	Email string
	// Telephone — контактный телефон
	Telephone string
	// Initiales — сокращённое обозначение
	Initiales string
	// CentreInteret — сфера деятельности
	CentreInteret string
	// DeleguePrincipal — главный делегат
	DeleguePrincipal string
	// NbAdherents — число привязанных адгерентов
	NbAdherents int
}
