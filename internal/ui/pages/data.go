package pages

import (
	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// BaseData — общие данные макета: кто вошёл и что показывать в меню.
type BaseData struct {
	Title       string
	Lang        string
	LoggedIn    bool
	DisplayName string
	Role        string
	// ShowAdmin — пункт меню «Администрация» (роль ADMIN_MEMBRE и выше).
	ShowAdmin bool
	// ShowSettings — пункт меню «Параметры» (только SUPER_ADMIN).
	ShowSettings bool
}

// HomeData — публичная витрина и личный кабинет после входа.
type HomeData struct {
	BaseData
}

// LoginData — страница входа.
type LoginData struct {
	BaseData
	Email string
	Error string
}

// ForgotPasswordData — страница восстановления пароля.
type ForgotPasswordData struct {
	BaseData
	Email string
	Sent  bool
	Error string
}

// FormErrors — ошибки валидации по имени поля.
type FormErrors map[string]string

// Has сообщает, есть ли ошибка по полю (для шаблонов).
func (e FormErrors) Has(field string) bool { return e[field] != "" }

// Get возвращает текст ошибки поля.
func (e FormErrors) Get(field string) string { return e[field] }

// RegisterData — форма инскрипции адгерента.
type RegisterData struct {
	BaseData
	Form    map[string]string
	Errors  FormErrors
	Years   int
	Montant int
	Error   string
	Success bool
}

// RegisterAssociationData — форма инскрипции члена
// (ассоциация, группа или семья).
type RegisterAssociationData struct {
	BaseData
	Form    map[string]string
	Errors  FormErrors
	Types   []string
	Error   string
	Success bool
}

// UnauthorizedData — страница отказа в доступе.
type UnauthorizedData struct {
	BaseData
}

// AssociationsData — список членов адгерента.
type AssociationsData struct {
	BaseData
	Membres []model.MemberOption
	Error   string
}

// AssociationDetailData — карточка члена.
type AssociationDetailData struct {
	BaseData
	Membre model.MemberOption
}

// UserRow — строка таблицы адгерентов со служебными флагами рендера.
type UserRow struct {
	User model.AdminUser
	// Pending — по строке идёт незавершённая правка.
	Pending bool
	// Error — сообщение последней отклонённой правки.
	Error string
}

// AdminUsersData — консоль управления адгерентами.
type AdminUsersData struct {
	BaseData
	Rows    []UserRow
	Membres []model.MemberOption
	Roles   []string
	Query   string
	Role    string
	Membre  string
	// Alerts — ошибки загрузки (списки пользователей и членов
	// показываются независимо: отказ одного не прячет другой).
	Alerts []Alert
}

// Alert — сообщение пользователю (variant: success | error).
type Alert struct {
	Variant string
	Message string
}

// UserRowsData — фрагмент строк таблицы (частичное обновление).
type UserRowsData struct {
	Rows    []UserRow
	Membres []model.MemberOption
	Roles   []string
}

// DrawerDocument — документ в выдвижной карточке.
type DrawerDocument struct {
	Doc model.Document
	// PreviewKind — image, pdf или download.
	PreviewKind string
	// RawURL — адрес отдачи содержимого документа.
	RawURL string
}

// UserDrawerData — выдвижная карточка адгерента.
type UserDrawerData struct {
	User      model.AdminUser
	Documents []DrawerDocument
	Membres   []model.MemberOption
	Roles     []string
	// Editing — карточка в режиме правки.
	Editing bool
	Errors  FormErrors
	Alert   *Alert
}

// SettingsData — параметры консоли (только SUPER_ADMIN).
type SettingsData struct {
	BaseData
	PageSize    int
	DefaultLang string
	Alert       *Alert
}

// ErrorData — страница ошибки.
type ErrorData struct {
	BaseData
	Status  int
	Message string
}
