package viewstate

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/gregory-nguekam/solidarite-serenite/internal/domain/model"
)

// Store хранит состояние консоли между запросами одной сессии.
// Записи живут ограниченное время: брошенная консоль освобождает
// память сама, без явной очистки при выходе.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStore создаёт хранилище с заданным временем жизни записей.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: gocache.New(ttl, ttl),
		ttl:   ttl,
	}
}

// UserList возвращает список адгерентов сессии, если он ещё жив.
// Обращение продлевает жизнь записи.
func (s *Store) UserList(sessionID string) (*UserList, bool) {
	v, ok := s.cache.Get(userListKey(sessionID))
	if !ok {
		return nil, false
	}
	list, ok := v.(*UserList)
	if ok {
		s.cache.Set(userListKey(sessionID), list, s.ttl)
	}
	return list, ok
}

// PutUserList сохраняет список адгерентов сессии.
func (s *Store) PutUserList(sessionID string, list *UserList) {
	s.cache.Set(userListKey(sessionID), list, s.ttl)
}

// MemberOptions возвращает справочник членов для выпадающих списков.
func (s *Store) MemberOptions(sessionID string) ([]model.MemberOption, bool) {
	v, ok := s.cache.Get(membreKey(sessionID))
	if !ok {
		return nil, false
	}
	options, ok := v.([]model.MemberOption)
	return options, ok
}

// PutMemberOptions сохраняет справочник членов сессии.
func (s *Store) PutMemberOptions(sessionID string, options []model.MemberOption) {
	s.cache.Set(membreKey(sessionID), options, s.ttl)
}

// Drop удаляет всё состояние сессии (выход из консоли).
func (s *Store) Drop(sessionID string) {
	s.cache.Delete(userListKey(sessionID))
	s.cache.Delete(membreKey(sessionID))
}

func userListKey(sessionID string) string { return "users:" + sessionID }
func membreKey(sessionID string) string   { return "membres:" + sessionID }
