package transport

import "math/rand/v2"

// trigger различает причину переключения трека
type trigger int

const (
	// triggerSkip - явная команда пользователя
	triggerSkip trigger = iota
	// triggerEnded - естественный конец потока
	triggerEnded
)

// advanceFunc вычисляет следующую позицию в ранжированном списке.
// Второе значение false означает, что продолжать некуда и воспроизведение
// должно остановиться.
type advanceFunc func(c *Controller, dir Direction) (int, bool)

// advanceKey - строка таблицы решений: сочетание перемешивания и повтора
type advanceKey struct {
	shuffle bool
	repeat  RepeatMode
}

// Таблица политики продолжения. Повтор одного трека проигрывает тот же
// трек заново независимо от перемешивания и направления.
var advanceTable = map[advanceKey]advanceFunc{
	{shuffle: false, repeat: RepeatOff}:   advanceSequentialClamp,
	{shuffle: false, repeat: RepeatTrack}: advanceReplayCurrent,
	{shuffle: false, repeat: RepeatAll}:   advanceSequentialWrap,
	{shuffle: true, repeat: RepeatOff}:    advanceShuffleOnce,
	{shuffle: true, repeat: RepeatTrack}:  advanceReplayCurrent,
	{shuffle: true, repeat: RepeatAll}:    advanceShuffleLoop,
}

// advance выбирает следующую позицию согласно таблице решений.
// Исход для ручного переключения и естественного конца сейчас совпадает
// во всех режимах (конец трека при RepeatTrack обрабатывается в OnEnded
// до обращения сюда), причина переключения сохраняется в сигнатуре.
func (c *Controller) advance(dir Direction, trig trigger) (int, bool) {
	if c.filter.Len() == 0 {
		return 0, false
	}
	return advanceTable[advanceKey{shuffle: c.shuffle, repeat: c.repeat}](c, dir)
}

// advanceReplayCurrent - повтор одного трека: выбор остается на месте,
// трек загружается заново с нулевой позиции
func advanceReplayCurrent(c *Controller, _ Direction) (int, bool) {
	return c.filter.Cursor(), true
}

// advanceSequentialClamp - последовательное переключение, останавливающееся
// после последнего трека; переключение назад с первого трека проигрывает его заново
func advanceSequentialClamp(c *Controller, dir Direction) (int, bool) {
	next := c.filter.Cursor() + int(dir)
	if next >= c.filter.Len() {
		return 0, false
	}
	if next < 0 {
		next = 0
	}
	return next, true
}

// advanceSequentialWrap - последовательное переключение с переходом через края
func advanceSequentialWrap(c *Controller, dir Direction) (int, bool) {
	n := c.filter.Len()
	return ((c.filter.Cursor()+int(dir))%n + n) % n, true
}

// advanceShuffleOnce - перемешивание без повторов: каждый трек посещается
// ровно один раз, после исчерпания перестановки воспроизведение останавливается
func advanceShuffleOnce(c *Controller, dir Direction) (int, bool) {
	c.ensurePermutation()

	if dir == Backward {
		if c.permPos == 0 {
			return c.perm[0], true
		}
		c.permPos--
		return c.perm[c.permPos], true
	}

	if c.permPos+1 >= len(c.perm) {
		return 0, false
	}
	c.permPos++
	return c.perm[c.permPos], true
}

// advanceShuffleLoop - перемешивание с повтором всего списка: после исчерпания
// перестановки рисуется новая, не начинающаяся с только что сыгранного трека
func advanceShuffleLoop(c *Controller, dir Direction) (int, bool) {
	c.ensurePermutation()

	if dir == Backward {
		if c.permPos == 0 {
			return c.perm[0], true
		}
		c.permPos--
		return c.perm[c.permPos], true
	}

	if c.permPos+1 >= len(c.perm) {
		last := c.perm[c.permPos]
		c.drawPermutation(-1)
		// Свежая перестановка не должна начинаться с последнего сыгранного трека
		if len(c.perm) > 1 && c.perm[0] == last {
			c.perm[0], c.perm[len(c.perm)-1] = c.perm[len(c.perm)-1], c.perm[0]
		}
		return c.perm[0], true
	}
	c.permPos++
	return c.perm[c.permPos], true
}

// ensurePermutation перерисовывает перестановку, если она отсутствует или
// устарела: изменился запрос либо пользователь вручную выбрал трек вне
// шага перестановки. Трек под курсором попадает в начало перестановки
// и считается уже посещенным.
func (c *Controller) ensurePermutation() {
	if c.perm != nil && len(c.perm) == c.filter.Len() &&
		c.permQuery == c.filter.Query() && c.perm[c.permPos] == c.filter.Cursor() {
		return
	}
	c.drawPermutation(c.filter.Cursor())
}

// drawPermutation рисует новую перестановку позиций ранжированного списка.
// Если first неотрицателен, эта позиция помещается в начало.
func (c *Controller) drawPermutation(first int) {
	n := c.filter.Len()
	perm := rand.Perm(n)
	if first >= 0 {
		for i, v := range perm {
			if v == first {
				perm[0], perm[i] = perm[i], perm[0]
				break
			}
		}
	}
	c.perm = perm
	c.permPos = 0
	c.permQuery = c.filter.Query()
}
