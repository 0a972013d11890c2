// Пакет roles — модель ролей пользователей ассоциации.
// Роли образуют строгую иерархию; сравнение идёт по весу,
// неизвестная роль приравнивается к посетителю.
package roles

// Роли в порядке возрастания привилегий.
const (
	Visitor     = "VISITOR"
	Adherent    = "ADHERENT"
	AdminMembre = "ADMIN_MEMBRE"
	SuperAdmin  = "SUPER_ADMIN"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	Visitor:     0,
	Adherent:    1,
	AdminMembre: 2,
	SuperAdmin:  3,
}

// Rank возвращает вес роли. Неизвестная роль весит как Visitor.
func Rank(role string) int {
	return roleWeight[role]
}

// HasAtLeast сообщает, достаточно ли фактической роли actual
// для требования required.
func HasAtLeast(actual, required string) bool {
	return Rank(actual) >= Rank(required)
}

// Max возвращает роль с максимальными привилегиями из двух.
func Max(a, b string) string {
	if Rank(a) >= Rank(b) {
		return a
	}
	return b
}

// IsValid проверяет, является ли строка допустимой ролью.
func IsValid(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// Assignable возвращает роли, которые администратор может назначить
// пользователю, в порядке возрастания привилегий.
func Assignable() []string {
	return []string{Visitor, Adherent, AdminMembre, SuperAdmin}
}
