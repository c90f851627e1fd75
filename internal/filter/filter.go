// Package filter содержит сессию нечеткого поиска по каталогу треков
package filter

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/hazadus/go-strum/internal/index"
)

// Match представляет один трек, подходящий под текущий запрос
type Match struct {
	Entry *index.TrackEntry
	Score int
}

// Session хранит текущий запрос и ранжированный список подходящих треков.
// Список всегда выводится заново из пары (каталог, запрос): при каждом
// изменении запроса весь каталог оценивается с нуля, никакого накопленного
// состояния от предыдущих запросов не остается.
type Session struct {
	ix     *index.Index
	texts  []string // Тексты для сопоставления, в порядке обнаружения
	query  string
	ranked []Match
	cursor int
}

// NewSession создает сессию поиска по каталогу с пустым запросом
func NewSession(ix *index.Index) *Session {
	texts := make([]string, ix.Len())
	for i, e := range ix.Entries() {
		texts[i] = e.Rel
	}

	s := &Session{
		ix:    ix,
		texts: texts,
	}
	s.SetQuery("")
	return s
}

// SetQuery обновляет запрос и пересчитывает ранжированный список.
// Пустой запрос соответствует всем трекам с нейтральной оценкой.
// Равные оценки упорядочиваются по порядку обнаружения.
func (s *Session) SetQuery(text string) {
	s.query = text

	if text == "" {
		s.ranked = make([]Match, s.ix.Len())
		for i := 0; i < s.ix.Len(); i++ {
			s.ranked[i] = Match{Entry: s.ix.At(i), Score: 0}
		}
		s.clampCursor()
		return
	}

	found := fuzzy.Find(text, s.texts)

	// Переупорядочиваем по убыванию оценки, при равенстве — по порядку обнаружения
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Score != found[j].Score {
			return found[i].Score > found[j].Score
		}
		return found[i].Index < found[j].Index
	})

	s.ranked = make([]Match, len(found))
	for i, m := range found {
		s.ranked[i] = Match{Entry: s.ix.At(m.Index), Score: m.Score}
	}
	s.clampCursor()
}

// Query возвращает текущий запрос
func (s *Session) Query() string {
	return s.query
}

// Len возвращает количество подходящих треков
func (s *Session) Len() int {
	return len(s.ranked)
}

// Total возвращает общее количество треков в каталоге
func (s *Session) Total() int {
	return s.ix.Len()
}

// Matches возвращает текущий ранжированный список
func (s *Session) Matches() []Match {
	return s.ranked
}

// Cursor возвращает позицию выбранного трека в ранжированном списке
func (s *Session) Cursor() int {
	return s.cursor
}

// Current возвращает выбранный трек или nil, если список пуст
func (s *Session) Current() *index.TrackEntry {
	if len(s.ranked) == 0 {
		return nil
	}
	return s.ranked[s.cursor].Entry
}

// MoveCursor сдвигает выбор на delta позиций, останавливаясь на краях списка
func (s *Session) MoveCursor(delta int) {
	s.cursor += delta
	s.clampCursor()
}

// SetCursor устанавливает выбор на указанную позицию с ограничением по краям
func (s *Session) SetCursor(i int) {
	s.cursor = i
	s.clampCursor()
}

// WrapCursor сдвигает выбор на delta позиций с переходом через края списка.
// Используется для переключения треков в режиме повтора всего списка.
func (s *Session) WrapCursor(delta int) {
	n := len(s.ranked)
	if n == 0 {
		s.cursor = 0
		return
	}
	s.cursor = ((s.cursor+delta)%n + n) % n
}

// SelectEntry устанавливает выбор на указанный трек, если он есть в списке
func (s *Session) SelectEntry(entry *index.TrackEntry) bool {
	for i, m := range s.ranked {
		if m.Entry == entry {
			s.cursor = i
			return true
		}
	}
	return false
}

// clampCursor удерживает выбор в пределах [0, len)
func (s *Session) clampCursor() {
	if s.cursor >= len(s.ranked) {
		s.cursor = len(s.ranked) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}
