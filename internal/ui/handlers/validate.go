// validate.go — серверная валидация форм инскрипции.
// Реквизиты карты проверяются только при оплате картой и наружу
// не уходят: внешнему API передаются годы взноса и котизация.
package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/pages"
)

// Тариф взноса: по 10 € за год плюс вступительный взнос 100 €.
// Вступительный взнос показывается в итоге на странице, но в API
// уходит только котизация за годы.
const (
	cotisationParAn  = 10
	droitEntree      = 100
	adhesionYearsMin = 1
	adhesionYearsMax = 5
)

// paymentMethods — допустимые способы оплаты взноса.
var paymentMethods = []string{"card", "paypal", "transfer"}

var (
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	telephoneRe  = regexp.MustCompile(`^\+?[0-9][0-9 .\-]{8,14}$`)
	codePostalRe = regexp.MustCompile(`^[0-9]{5}$`)
	cardExpiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvcRe        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// montantTotal считает сумму к оплате за years лет для показа на
// странице: котизация плюс вступительный взнос.
func montantTotal(years int) int {
	return years*cotisationParAn + droitEntree
}

// montantCotisation считает котизацию за years лет — ровно то,
// что уходит в API полем montantTotal.
func montantCotisation(years int) int {
	return years * cotisationParAn
}

// formValidator копит ошибки валидации по полям формы.
type formValidator struct {
	r      *http.Request
	errors pages.FormErrors
}

func newFormValidator(r *http.Request) *formValidator {
	return &formValidator{r: r, errors: pages.FormErrors{}}
}

func (v *formValidator) t(key string) string {
	return i18n.T(v.r.Context(), key)
}

// required проверяет непустоту поля и возвращает его значение.
func (v *formValidator) required(field string) string {
	value := strings.TrimSpace(v.r.FormValue(field))
	if value == "" {
		v.errors[field] = v.t("validation.required")
	}
	return value
}

func (v *formValidator) optional(field string) string {
	return strings.TrimSpace(v.r.FormValue(field))
}

func (v *formValidator) email(field string) string {
	value := v.required(field)
	if value != "" && !emailRe.MatchString(value) {
		v.errors[field] = v.t("validation.email")
	}
	return value
}

func (v *formValidator) telephone(field string) string {
	value := v.optional(field)
	if value != "" && !telephoneRe.MatchString(value) {
		v.errors[field] = v.t("validation.telephone")
	}
	return value
}

func (v *formValidator) codePostal(field string) string {
	value := v.required(field)
	if value != "" && !codePostalRe.MatchString(value) {
		v.errors[field] = v.t("validation.codePostal")
	}
	return value
}

// password проверяет пароль и его подтверждение.
func (v *formValidator) password(field, confirmField string) string {
	value := v.r.FormValue(field)
	if len(value) < 8 {
		v.errors[field] = v.t("validation.password.short")
		return ""
	}
	if value != v.r.FormValue(confirmField) {
		v.errors[confirmField] = v.t("validation.password.mismatch")
		return ""
	}
	return value
}

// paymentMethod проверяет способ оплаты и возвращает его.
func (v *formValidator) paymentMethod(field string) string {
	value := v.required(field)
	if value == "" {
		return ""
	}
	for _, m := range paymentMethods {
		if m == value {
			return value
		}
	}
	v.errors[field] = v.t("validation.payment")
	return ""
}

// adhesionYears проверяет число лет взноса (1-5). Пустое поле — 1 год.
func (v *formValidator) adhesionYears(field string) int {
	raw := strings.TrimSpace(v.r.FormValue(field))
	if raw == "" {
		return adhesionYearsMin
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < adhesionYearsMin || n > adhesionYearsMax {
		v.errors[field] = v.t("validation.years")
		return adhesionYearsMin
	}
	return n
}

// cardName проверяет имя держателя карты.
func (v *formValidator) cardName(field string) {
	value := v.required(field)
	if value != "" && len([]rune(value)) < 2 {
		v.errors[field] = v.t("validation.cardName")
	}
}

// card проверяет номер карты: 13-19 цифр и контрольная сумма Луна.
func (v *formValidator) card(field string) {
	value := strings.ReplaceAll(v.required(field), " ", "")
	if v.errors[field] != "" {
		return
	}
	if len(value) < 13 || len(value) > 19 || !luhnValid(value) {
		v.errors[field] = v.t("validation.card")
	}
}

func (v *formValidator) cardExpiry(field string) {
	value := v.required(field)
	if value != "" && !cardExpiryRe.MatchString(value) {
		v.errors[field] = v.t("validation.expiry")
	}
}

func (v *formValidator) cvc(field string) {
	value := v.required(field)
	if value != "" && !cvcRe.MatchString(value) {
		v.errors[field] = v.t("validation.cvc")
	}
}

// file проверяет, что файл приложен, и возвращает его.
// Форма должна быть разобрана через ParseMultipartForm заранее.
func (v *formValidator) file(field string) (multipartFile, bool) {
	f, header, err := v.r.FormFile(field)
	if err != nil {
		v.errors[field] = v.t("validation.file.missing")
		return multipartFile{}, false
	}
	return multipartFile{file: f, filename: header.Filename, contentType: header.Header.Get("Content-Type")}, true
}

// fileOptional возвращает файл, если он приложен.
func (v *formValidator) fileOptional(field string) (multipartFile, bool) {
	f, header, err := v.r.FormFile(field)
	if err != nil {
		return multipartFile{}, false
	}
	return multipartFile{file: f, filename: header.Filename, contentType: header.Header.Get("Content-Type")}, true
}

func (v *formValidator) ok() bool {
	return len(v.errors) == 0
}

// luhnValid проверяет контрольную сумму номера карты.
func luhnValid(s string) bool {
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
