// Пакет viewstate — состояние списка адгерентов между запросами.
// Оптимистичные изменения: правка видна сразу, подтверждение сервера
// вливается поверх, отказ откатывает весь список к снимку до правки.
// Просроченные завершения (строка успела измениться ещё раз)
// отбрасываются по номеру последовательности.
package viewstate

import (
	"sync"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// pendingChange — незавершённая правка строки.
type pendingChange struct {
	// seq — номер последовательности правки.
	seq uint64
	// snapshot — полный снимок списка до правки.
	snapshot []model.AdminUser
}

// UserList — список адгерентов с протоколом оптимистичных правок.
// Безопасен для конкурентного использования.
type UserList struct {
	mu sync.Mutex

	users []model.AdminUser
	// pending — незавершённые правки по id строки.
	pending map[string]*pendingChange
	// lastSeq — последний выданный номер последовательности по id строки.
	lastSeq map[string]uint64
	// rowErrors — сообщения об ошибках по id строки.
	rowErrors map[string]string
	// nextSeq — счётчик номеров последовательности.
	nextSeq uint64
}

// NewUserList создаёт список с начальными данными сервера.
func NewUserList(users []model.AdminUser) *UserList {
	return &UserList{
		users:     cloneUsers(users),
		pending:   make(map[string]*pendingChange),
		lastSeq:   make(map[string]uint64),
		rowErrors: make(map[string]string),
	}
}

// Users возвращает копию текущего списка.
func (l *UserList) Users() []model.AdminUser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneUsers(l.users)
}

// Get возвращает строку по id.
func (l *UserList) Get(id string) (model.AdminUser, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.AdminUser{}, false
}

// Replace заменяет весь список свежими данными сервера.
// Все незавершённые правки, ошибки и выданные номера
// последовательности сбрасываются: завершение, начатое до
// обновления, уже просрочено и не должно трогать свежие данные.
func (l *UserList) Replace(users []model.AdminUser) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = cloneUsers(users)
	l.pending = make(map[string]*pendingChange)
	l.lastSeq = make(map[string]uint64)
	l.rowErrors = make(map[string]string)
}

// IsPending сообщает, есть ли по строке незавершённая правка.
func (l *UserList) IsPending(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[id]
	return ok
}

// RowError возвращает сообщение об ошибке строки (пустое — ошибки нет).
func (l *UserList) RowError(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rowErrors[id]
}

// ClearRowError снимает сообщение об ошибке строки.
func (l *UserList) ClearRowError(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rowErrors, id)
}

// Begin начинает оптимистичную правку строки id.
// Снимается полный снимок списка, patch применяется к строке локально,
// строка помечается pending. Возвращает номер последовательности правки
// и false, если строки нет в списке.
func (l *UserList) Begin(id string, patch func(*model.AdminUser)) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return 0, false
	}

	snapshot := cloneUsers(l.users)

	l.nextSeq++
	seq := l.nextSeq
	l.pending[id] = &pendingChange{seq: seq, snapshot: snapshot}
	l.lastSeq[id] = seq
	delete(l.rowErrors, id)

	patch(&l.users[idx])

	return seq, true
}

// Commit завершает правку успехом: поля, которые сервер вернул,
// накладываются на строку, остальные сохраняют прежние значения
// (частичный ответ вроде {id, valide} не стирает досье).
// Просроченный seq отбрасывается — состояние не меняется.
func (l *UserList) Commit(id string, seq uint64, server model.UserPatch) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastSeq[id] != seq {
		return false
	}

	delete(l.pending, id)
	delete(l.rowErrors, id)

	if idx := l.indexOf(id); idx >= 0 {
		server.Apply(&l.users[idx])
	}
	return true
}

// Rollback завершает правку отказом: список целиком возвращается
// к снимку до правки, строке назначается сообщение об ошибке.
// Просроченный seq отбрасывается — состояние не меняется.
func (l *UserList) Rollback(id string, seq uint64, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	change, ok := l.pending[id]
	if !ok || change.seq != seq || l.lastSeq[id] != seq {
		return false
	}

	l.users = change.snapshot
	delete(l.pending, id)
	l.rowErrors[id] = msg
	return true
}

// indexOf возвращает позицию строки по id, -1 если её нет.
// Вызывается под мьютексом.
func (l *UserList) indexOf(id string) int {
	for i, u := range l.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// cloneUsers делает глубокую копию списка: строки содержат срезы
// (привязки, документы), которые нельзя делить между снимками.
func cloneUsers(users []model.AdminUser) []model.AdminUser {
	out := make([]model.AdminUser, len(users))
	for i, u := range users {
		out[i] = cloneUser(u)
	}
	return out
}

func cloneUser(u model.AdminUser) model.AdminUser {
	c := u
	if u.Membres != nil {
		c.Membres = append([]model.MembreRef(nil), u.Membres...)
	}
	if u.Documents != nil {
		c.Documents = append([]model.Document(nil), u.Documents...)
	}
	return c
}
