// Package transport содержит контроллер, переводящий команды пользователя
// в согласованные операции над сессией поиска и сессией воспроизведения
package transport

import (
	"time"

	"github.com/hazadus/go-strum/internal/filter"
	"github.com/hazadus/go-strum/internal/index"
	"github.com/hazadus/go-strum/internal/player"
	"github.com/hazadus/go-strum/internal/session"
)

// RepeatMode определяет, что происходит после естественного конца трека
type RepeatMode int

// Режимы повтора
const (
	// RepeatOff - после последнего трека воспроизведение останавливается
	RepeatOff RepeatMode = iota
	// RepeatTrack - тот же трек воспроизводится заново
	RepeatTrack
	// RepeatAll - после последнего трека список начинается сначала
	RepeatAll
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatTrack:
		return "track"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode разбирает режим повтора из сохраненной сессии
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "track":
		return RepeatTrack
	case "all":
		return RepeatAll
	default:
		return RepeatOff
	}
}

// Direction задает направление переключения треков
type Direction int

// Направления переключения
const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Playback - узкий интерфейс сессии воспроизведения, которым управляет контроллер
type Playback interface {
	Load(path string, startPlaying bool) error
	Play()
	Pause()
	TogglePause()
	Stop()
	Seek(delta time.Duration) error
	SeekTo(position time.Duration) error
	SetVolume(pct int)
	AdjustVolume(delta int)
	SetSpeed(speed float64)
	AdjustSpeed(delta float64)
	Volume() int
	Speed() float64
	State() player.State
	Path() string
	Tick() player.Status
}

// Controller - единственная точка, переводящая дискретные команды в операции
// над сессией поиска и сессией воспроизведения. Все команды выполняются
// из одной горутины цикла событий строго в порядке поступления.
type Controller struct {
	playback Playback
	filter   *filter.Session
	ix       *index.Index

	shuffle bool
	repeat  RepeatMode

	current *index.TrackEntry // Трек, загруженный в плеер

	// Перестановка позиций ранжированного списка для режима перемешивания
	perm      []int
	permPos   int
	permQuery string
}

// NewController создает контроллер над каталогом, сессией поиска и плеером
func NewController(ix *index.Index, fs *filter.Session, pb Playback) *Controller {
	return &Controller{
		playback: pb,
		filter:   fs,
		ix:       ix,
	}
}

// Filter возвращает сессию поиска для чтения из интерфейса
func (c *Controller) Filter() *filter.Session {
	return c.filter
}

// CurrentEntry возвращает трек, загруженный в плеер, или nil
func (c *Controller) CurrentEntry() *index.TrackEntry {
	return c.current
}

// Shuffle возвращает текущее состояние перемешивания
func (c *Controller) Shuffle() bool {
	return c.shuffle
}

// Repeat возвращает текущий режим повтора
func (c *Controller) Repeat() RepeatMode {
	return c.repeat
}

// SetQuery обновляет поисковый запрос
func (c *Controller) SetQuery(text string) {
	c.filter.SetQuery(text)
}

// SelectCurrent загружает выбранный в списке трек в плеер.
// Пустой список - безвредная пустая операция.
func (c *Controller) SelectCurrent() error {
	entry := c.filter.Current()
	if entry == nil {
		return nil
	}
	return c.loadEntry(entry)
}

// loadEntry загружает трек в плеер и делает его текущим.
// Самая свежая загрузка всегда побеждает: предыдущий поток разбирается
// внутри Load до построения нового.
func (c *Controller) loadEntry(entry *index.TrackEntry) error {
	if err := c.playback.Load(entry.Path, true); err != nil {
		return err
	}
	c.current = entry
	return nil
}

// Skip переключает трек в указанном направлении согласно режимам
// перемешивания и повтора
func (c *Controller) Skip(dir Direction) error {
	next, ok := c.advance(dir, triggerSkip)
	if !ok {
		c.playback.Stop()
		c.current = nil
		return nil
	}
	c.filter.SetCursor(next)
	return c.SelectCurrent()
}

// OnEnded применяет политику продолжения после естественного конца трека
func (c *Controller) OnEnded() error {
	// В режиме повтора трека тот же трек загружается заново с нулевой позиции
	if c.repeat == RepeatTrack && c.current != nil {
		return c.loadEntry(c.current)
	}
	next, ok := c.advance(Forward, triggerEnded)
	if !ok {
		c.playback.Stop()
		c.current = nil
		return nil
	}
	c.filter.SetCursor(next)
	return c.SelectCurrent()
}

// ResumeAt загружает трек под курсором на паузе с указанной позиции.
// Используется при восстановлении сессии, когда продолжение включено в настройках.
func (c *Controller) ResumeAt(position time.Duration) error {
	entry := c.filter.Current()
	if entry == nil {
		return nil
	}
	if err := c.playback.Load(entry.Path, false); err != nil {
		return err
	}
	c.current = entry
	return c.playback.SeekTo(position)
}

// TogglePause переключает паузу и воспроизведение
func (c *Controller) TogglePause() {
	c.playback.TogglePause()
}

// Stop останавливает воспроизведение и освобождает поток
func (c *Controller) Stop() {
	c.playback.Stop()
	c.current = nil
}

// SeekBy перематывает текущий трек на относительное смещение
func (c *Controller) SeekBy(delta time.Duration) error {
	return c.playback.Seek(delta)
}

// VolumeBy изменяет громкость на delta процентов
func (c *Controller) VolumeBy(delta int) {
	c.playback.AdjustVolume(delta)
}

// SpeedBy изменяет множитель скорости на delta
func (c *Controller) SpeedBy(delta float64) {
	c.playback.AdjustSpeed(delta)
}

// ToggleShuffle включает или выключает перемешивание.
// Действующая перестановка при этом сбрасывается: первое переключение трека
// после включения нарисует свежую перестановку, в которой текущий трек
// считается уже посещенным.
func (c *Controller) ToggleShuffle() {
	c.shuffle = !c.shuffle
	c.perm = nil
}

// CycleRepeat циклически переключает режим повтора: off → track → all → off
func (c *Controller) CycleRepeat() {
	switch c.repeat {
	case RepeatOff:
		c.repeat = RepeatTrack
	case RepeatTrack:
		c.repeat = RepeatAll
	default:
		c.repeat = RepeatOff
	}
}

// Tick опрашивает плеер и применяет политику продолжения, если поток
// дошел до конца. Возвращает статус и ошибку автоматической загрузки
// следующего трека, если она случилась.
func (c *Controller) Tick() (player.Status, error) {
	status := c.playback.Tick()

	// Запоминаем длительность, как только декодер её узнал
	if c.current != nil && status.Duration > 0 {
		c.current.SetDuration(status.Duration)
	}

	if status.Ended {
		return status, c.OnEnded()
	}
	return status, nil
}

// Snapshot собирает снимок наблюдаемого состояния для сохранения сессии
func (c *Controller) Snapshot(lastStatus player.Status) *session.Snapshot {
	snapshot := session.New()
	snapshot.Root = c.ix.Root()
	snapshot.Query = c.filter.Query()
	snapshot.Volume = c.playback.Volume()
	snapshot.Speed = c.playback.Speed()
	snapshot.Shuffle = c.shuffle
	snapshot.Repeat = c.repeat.String()
	if c.current != nil {
		snapshot.SelectedPath = c.current.Path
		snapshot.SetPosition(lastStatus.Position)
	} else if entry := c.filter.Current(); entry != nil {
		snapshot.SelectedPath = entry.Path
	}
	return snapshot
}

// Restore применяет сохраненный снимок: запрос проходит через обычный
// пересчет списка, выбор восстанавливается, только если трек все еще
// существует в свежем каталоге
func (c *Controller) Restore(snapshot *session.Snapshot) {
	if snapshot == nil {
		return
	}

	c.shuffle = snapshot.Shuffle
	c.repeat = ParseRepeatMode(snapshot.Repeat)
	c.filter.SetQuery(snapshot.Query)

	if snapshot.SelectedPath != "" {
		if entry := c.ix.ByPath(snapshot.SelectedPath); entry != nil {
			c.filter.SelectEntry(entry)
		}
	}
}
