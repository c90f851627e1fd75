package transport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazadus/go-strum/internal/filter"
	"github.com/hazadus/go-strum/internal/index"
	"github.com/hazadus/go-strum/internal/player"
	"github.com/hazadus/go-strum/internal/session"
)

// mockPlayback подменяет сессию воспроизведения и считает открытия и
// закрытия потока, чтобы проверять баланс ресурсов
type mockPlayback struct {
	opens  int
	closes int
	loaded bool

	path   string
	state  player.State
	volume int
	speed  float64

	nextStatus player.Status
	failPaths  map[string]bool
	seekedTo   time.Duration
}

func newMockPlayback() *mockPlayback {
	return &mockPlayback{
		state:     player.StateStopped,
		volume:    80,
		speed:     1.0,
		failPaths: make(map[string]bool),
	}
}

func (m *mockPlayback) Load(path string, startPlaying bool) error {
	// Предыдущий поток разбирается до построения нового
	if m.loaded {
		m.closes++
		m.loaded = false
		m.state = player.StateStopped
	}
	if m.failPaths[path] {
		return &player.LoadError{Path: path}
	}
	m.opens++
	m.loaded = true
	m.path = path
	if startPlaying {
		m.state = player.StatePlaying
	} else {
		m.state = player.StatePaused
	}
	return nil
}

func (m *mockPlayback) Play() {
	if m.loaded {
		m.state = player.StatePlaying
	}
}

func (m *mockPlayback) Pause() {
	if m.loaded {
		m.state = player.StatePaused
	}
}

func (m *mockPlayback) TogglePause() {
	if m.state == player.StatePlaying {
		m.Pause()
	} else {
		m.Play()
	}
}

func (m *mockPlayback) Stop() {
	if m.loaded {
		m.closes++
		m.loaded = false
	}
	m.path = ""
	m.state = player.StateStopped
}

func (m *mockPlayback) Seek(time.Duration) error            { return nil }
func (m *mockPlayback) SeekTo(pos time.Duration) error      { m.seekedTo = pos; return nil }
func (m *mockPlayback) SetVolume(pct int)                   { m.volume = pct }
func (m *mockPlayback) AdjustVolume(delta int)              { m.volume += delta }
func (m *mockPlayback) SetSpeed(speed float64)              { m.speed = speed }
func (m *mockPlayback) AdjustSpeed(delta float64)           { m.speed += delta }
func (m *mockPlayback) Volume() int                         { return m.volume }
func (m *mockPlayback) Speed() float64                      { return m.speed }
func (m *mockPlayback) State() player.State                 { return m.state }
func (m *mockPlayback) Path() string                        { return m.path }

func (m *mockPlayback) Tick() player.Status {
	status := m.nextStatus
	m.nextStatus = player.Status{}
	status.Volume = m.volume
	status.Speed = m.speed
	return status
}

// newTestController строит контроллер над каталогом из указанных файлов
func newTestController(t *testing.T, names []string) (*Controller, *mockPlayback, *index.Index) {
	t.Helper()
	tempDir := t.TempDir()
	for _, name := range names {
		path := filepath.Join(tempDir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("Ошибка создания файла: %v", err)
		}
	}
	ix, err := index.Build(tempDir)
	if err != nil {
		t.Fatalf("Ошибка построения каталога: %v", err)
	}
	mock := newMockPlayback()
	ctrl := NewController(ix, filter.NewSession(ix), mock)
	return ctrl, mock, ix
}

func TestSelectCurrentEmptyList(t *testing.T) {
	ctrl, mock, _ := newTestController(t, []string{"a.mp3"})

	// Пустой список после запроса без совпадений - безвредная пустая операция
	ctrl.SetQuery("zzzzz")
	if err := ctrl.SelectCurrent(); err != nil {
		t.Errorf("Неожиданная ошибка: %v", err)
	}
	if mock.opens != 0 {
		t.Errorf("Загрузок быть не должно, получено: %d", mock.opens)
	}
}

func TestSelectCurrentLoads(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3"})

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	if mock.path != ix.At(0).Path {
		t.Errorf("Ожидался путь %s, получено: %s", ix.At(0).Path, mock.path)
	}
	if ctrl.CurrentEntry() != ix.At(0) {
		t.Error("Текущий трек контроллера должен совпадать с загруженным")
	}
	if mock.state != player.StatePlaying {
		t.Errorf("Ожидалось состояние Playing, получено: %v", mock.state)
	}
}

func TestLoadErrorKeepsCurrent(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3"})

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	// Сбойный файл не должен затирать сведения о последнем удачном треке
	mock.failPaths[ix.At(1).Path] = true
	ctrl.Filter().SetCursor(1)
	if err := ctrl.SelectCurrent(); err == nil {
		t.Fatal("Ожидалась ошибка загрузки")
	}
	if ctrl.CurrentEntry() != ix.At(0) {
		t.Error("После ошибки текущим должен остаться прежний трек")
	}
}

func TestOpenCloseBalance(t *testing.T) {
	ctrl, mock, _ := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3"})

	// Любая последовательность команд, заканчивающаяся остановкой,
	// оставляет число открытий равным числу закрытий
	_ = ctrl.SelectCurrent()
	_ = ctrl.SelectCurrent()
	_ = ctrl.Skip(Forward)
	_ = ctrl.Skip(Forward)
	_ = ctrl.Skip(Backward)
	ctrl.Stop()
	ctrl.Stop()

	if mock.opens != mock.closes {
		t.Errorf("Открытий: %d, закрытий: %d - ресурс утекает", mock.opens, mock.closes)
	}
	if mock.state != player.StateStopped {
		t.Errorf("Ожидалось состояние Stopped, получено: %v", mock.state)
	}
}

func TestSkipForwardRepeatOffStopsAtEnd(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3"})

	ctrl.Filter().SetCursor(2)
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	_ = ix

	// После последнего трека продолжать некуда
	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if mock.state != player.StateStopped {
		t.Errorf("Ожидалось состояние Stopped, получено: %v", mock.state)
	}
	if ctrl.CurrentEntry() != nil {
		t.Error("Текущего трека после остановки быть не должно")
	}
	if mock.opens != mock.closes {
		t.Errorf("Открытий: %d, закрытий: %d", mock.opens, mock.closes)
	}
}

func TestSkipRepeatAllWrapsAtEnds(t *testing.T) {
	// Сценарий из трех треков: с последнего трека переход вперед
	// возвращает к первому
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3"})

	ctrl.CycleRepeat() // track
	ctrl.CycleRepeat() // all
	if ctrl.Repeat() != RepeatAll {
		t.Fatalf("Ожидался режим RepeatAll, получено: %v", ctrl.Repeat())
	}

	ctrl.Filter().SetCursor(2)
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.path != ix.At(0).Path {
		t.Errorf("Ожидался переход к %s, получено: %s", ix.At(0).Path, mock.path)
	}

	// И назад через начало
	if err := ctrl.Skip(Backward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.path != ix.At(2).Path {
		t.Errorf("Ожидался переход к %s, получено: %s", ix.At(2).Path, mock.path)
	}
}

func TestQueryThenSelectScenario(t *testing.T) {
	// Сценарий спецификации: пустой запрос дает порядок обнаружения,
	// запрос "b" оставляет один трек
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3"})

	matches := ctrl.Filter().Matches()
	if len(matches) != 3 {
		t.Fatalf("Ожидалось 3 совпадения, получено: %d", len(matches))
	}
	for i := range matches {
		if matches[i].Entry != ix.At(i) {
			t.Errorf("Нарушен порядок обнаружения на позиции %d", i)
		}
	}

	ctrl.SetQuery("b")
	if ctrl.Filter().Len() != 1 {
		t.Fatalf("Ожидалось 1 совпадение, получено: %d", ctrl.Filter().Len())
	}
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался трек b.mp3, получено: %s", mock.path)
	}
}

func TestShuffleVisitsEachTrackOnce(t *testing.T) {
	// Перемешивание без повтора: на списке из N треков каждый посещается
	// ровно один раз, затем воспроизведение останавливается
	names := []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3"}
	ctrl, mock, _ := newTestController(t, names)

	ctrl.ToggleShuffle()
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	visited := map[string]bool{mock.path: true}

	for i := 0; i < len(names)-1; i++ {
		if err := ctrl.Skip(Forward); err != nil {
			t.Fatalf("Ошибка переключения: %v", err)
		}
		if visited[mock.path] {
			t.Fatalf("Трек %s посещен повторно до исчерпания перестановки", mock.path)
		}
		visited[mock.path] = true
	}

	if len(visited) != len(names) {
		t.Errorf("Посещено %d треков из %d", len(visited), len(names))
	}

	// Перестановка исчерпана - воспроизведение останавливается
	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.state != player.StateStopped {
		t.Errorf("Ожидалось состояние Stopped, получено: %v", mock.state)
	}
}

func TestShuffleRepeatAllRedraws(t *testing.T) {
	names := []string{"a.mp3", "b.mp3", "c.mp3"}
	ctrl, mock, _ := newTestController(t, names)

	ctrl.ToggleShuffle()
	ctrl.CycleRepeat() // track
	ctrl.CycleRepeat() // all

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	// Проходим два полных круга: воспроизведение не должно останавливаться,
	// и новый круг не начинается с только что сыгранного трека
	var last string
	for i := 0; i < len(names)*2; i++ {
		last = mock.path
		if err := ctrl.Skip(Forward); err != nil {
			t.Fatalf("Ошибка переключения: %v", err)
		}
		if mock.state != player.StatePlaying {
			t.Fatalf("Воспроизведение остановилось на шаге %d", i)
		}
		if mock.path == last {
			t.Fatalf("Трек %s повторился подряд на шаге %d", last, i)
		}
	}
}

func TestShuffleBackwardWalksHistory(t *testing.T) {
	ctrl, mock, _ := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3"})

	ctrl.ToggleShuffle()
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	first := mock.path
	_ = ctrl.Skip(Forward)
	second := mock.path
	_ = ctrl.Skip(Forward)

	// Назад по истории перестановки
	_ = ctrl.Skip(Backward)
	if mock.path != second {
		t.Errorf("Ожидался возврат к %s, получено: %s", second, mock.path)
	}
	_ = ctrl.Skip(Backward)
	if mock.path != first {
		t.Errorf("Ожидался возврат к %s, получено: %s", first, mock.path)
	}

	// С начала перестановки дальше назад некуда - трек остается
	_ = ctrl.Skip(Backward)
	if mock.path != first {
		t.Errorf("Ожидался тот же трек %s, получено: %s", first, mock.path)
	}
}

func TestShuffleManualSelectionRedraws(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3"})

	ctrl.ToggleShuffle()
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}

	// Пользователь вручную выбирает из списка первый трек, уже сыгранный
	// в начале перестановки: курсор уходит с шага перестановки
	ctrl.Filter().SetCursor(0)
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	chosen := ix.At(0).Path

	// Рисуется свежая перестановка: выбранный трек считается посещенным
	// и не проигрывается повторно до её исчерпания
	for i := 0; i < 3; i++ {
		if err := ctrl.Skip(Forward); err != nil {
			t.Fatalf("Ошибка переключения: %v", err)
		}
		if mock.state != player.StatePlaying {
			t.Fatalf("Воспроизведение остановилось на шаге %d", i)
		}
		if mock.path == chosen {
			t.Fatalf("Выбранный вручную трек %s проигран повторно", chosen)
		}
	}

	// После исчерпания свежей перестановки воспроизведение останавливается
	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.state != player.StateStopped {
		t.Errorf("Ожидалось состояние Stopped, получено: %v", mock.state)
	}
}

func TestSkipRepeatTrackReplaysSameEntry(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3"})

	ctrl.CycleRepeat() // track
	ctrl.Filter().SetCursor(1)
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	opensBefore := mock.opens

	// В режиме повтора трека переключение в обе стороны проигрывает
	// тот же трек заново
	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался тот же трек %s, получено: %s", ix.At(1).Path, mock.path)
	}
	if mock.opens != opensBefore+1 {
		t.Errorf("Ожидалась повторная загрузка, открытий: %d", mock.opens)
	}

	if err := ctrl.Skip(Backward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался тот же трек %s, получено: %s", ix.At(1).Path, mock.path)
	}

	// То же самое при включенном перемешивании
	ctrl.ToggleShuffle()
	if err := ctrl.Skip(Forward); err != nil {
		t.Fatalf("Ошибка переключения: %v", err)
	}
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался тот же трек %s, получено: %s", ix.At(1).Path, mock.path)
	}
}

func TestOnEndedRepeatTrackReloads(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3"})

	ctrl.CycleRepeat() // track
	if ctrl.Repeat() != RepeatTrack {
		t.Fatalf("Ожидался режим RepeatTrack, получено: %v", ctrl.Repeat())
	}

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	opensBefore := mock.opens

	if err := ctrl.OnEnded(); err != nil {
		t.Fatalf("Ошибка перезагрузки: %v", err)
	}

	// Тот же трек загружен заново с нулевой позиции
	if mock.path != ix.At(0).Path {
		t.Errorf("Ожидался тот же трек %s, получено: %s", ix.At(0).Path, mock.path)
	}
	if mock.opens != opensBefore+1 {
		t.Errorf("Ожидалась повторная загрузка, открытий: %d", mock.opens)
	}
}

func TestOnEndedRepeatOffAdvances(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3"})

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	if err := ctrl.OnEnded(); err != nil {
		t.Fatalf("Ошибка продолжения: %v", err)
	}
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался следующий трек %s, получено: %s", ix.At(1).Path, mock.path)
	}

	// Конец последнего трека при выключенном повторе останавливает плеер
	if err := ctrl.OnEnded(); err != nil {
		t.Fatalf("Ошибка продолжения: %v", err)
	}
	if mock.state != player.StateStopped {
		t.Errorf("Ожидалось состояние Stopped, получено: %v", mock.state)
	}
	if mock.opens != mock.closes {
		t.Errorf("Открытий: %d, закрытий: %d", mock.opens, mock.closes)
	}
}

func TestTickAppliesAdvancePolicy(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3"})

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	// Тик с признаком конца потока запускает политику продолжения
	mock.nextStatus = player.Status{State: player.StateEnded, Ended: true}
	if _, err := ctrl.Tick(); err != nil {
		t.Fatalf("Ошибка тика: %v", err)
	}
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался следующий трек %s, получено: %s", ix.At(1).Path, mock.path)
	}
}

func TestTickStoresDuration(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3"})

	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	mock.nextStatus = player.Status{State: player.StatePlaying, Duration: 3 * time.Minute}
	if _, err := ctrl.Tick(); err != nil {
		t.Fatalf("Ошибка тика: %v", err)
	}

	if ix.At(0).Duration() != 3*time.Minute {
		t.Errorf("Длительность должна быть запомнена, получено: %v", ix.At(0).Duration())
	}
}

func TestCycleRepeat(t *testing.T) {
	ctrl, _, _ := newTestController(t, []string{"a.mp3"})

	expected := []RepeatMode{RepeatTrack, RepeatAll, RepeatOff, RepeatTrack}
	for i, mode := range expected {
		ctrl.CycleRepeat()
		if ctrl.Repeat() != mode {
			t.Errorf("Шаг %d: ожидался режим %v, получено: %v", i, mode, ctrl.Repeat())
		}
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3", "c.mp3"})

	ctrl.SetQuery("b")
	if err := ctrl.SelectCurrent(); err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	ctrl.ToggleShuffle()
	ctrl.CycleRepeat() // track
	mock.volume = 42
	mock.speed = 1.5

	snapshot := ctrl.Snapshot(player.Status{Position: 30 * time.Second})

	if snapshot.Query != "b" {
		t.Errorf("Ожидался запрос b, получено: %q", snapshot.Query)
	}
	if snapshot.SelectedPath != ix.At(1).Path {
		t.Errorf("Ожидался путь %s, получено: %s", ix.At(1).Path, snapshot.SelectedPath)
	}
	if snapshot.Volume != 42 || snapshot.Speed != 1.5 {
		t.Errorf("Громкость/скорость не сохранились: %d, %f", snapshot.Volume, snapshot.Speed)
	}
	if !snapshot.Shuffle || snapshot.Repeat != "track" {
		t.Errorf("Режимы не сохранились: %v, %s", snapshot.Shuffle, snapshot.Repeat)
	}
	if snapshot.Position() != 30*time.Second {
		t.Errorf("Ожидалась позиция 30s, получено: %v", snapshot.Position())
	}

	// Восстановление в свежем контроллере проходит через обычный пересчет
	restored := NewController(ix, filter.NewSession(ix), newMockPlayback())
	restored.Restore(snapshot)

	if !restored.Shuffle() || restored.Repeat() != RepeatTrack {
		t.Error("Режимы не восстановились")
	}
	if restored.Filter().Query() != "b" {
		t.Errorf("Запрос не восстановился: %q", restored.Filter().Query())
	}
	if restored.Filter().Current() != ix.At(1) {
		t.Error("Выбор не восстановился")
	}
}

func TestResumeAt(t *testing.T) {
	ctrl, mock, ix := newTestController(t, []string{"a.mp3", "b.mp3"})

	ctrl.Filter().SetCursor(1)
	if err := ctrl.ResumeAt(45 * time.Second); err != nil {
		t.Fatalf("Ошибка восстановления: %v", err)
	}

	// Трек загружен на паузе с сохраненной позиции
	if mock.path != ix.At(1).Path {
		t.Errorf("Ожидался путь %s, получено: %s", ix.At(1).Path, mock.path)
	}
	if mock.state != player.StatePaused {
		t.Errorf("Ожидалось состояние Paused, получено: %v", mock.state)
	}
	if mock.seekedTo != 45*time.Second {
		t.Errorf("Ожидалась позиция 45s, получено: %v", mock.seekedTo)
	}
	if ctrl.CurrentEntry() != ix.At(1) {
		t.Error("Текущий трек контроллера должен совпадать с загруженным")
	}
}

func TestResumeAtEmptyList(t *testing.T) {
	ctrl, mock, _ := newTestController(t, []string{"a.mp3"})

	ctrl.SetQuery("zzzzz")
	if err := ctrl.ResumeAt(10 * time.Second); err != nil {
		t.Errorf("Неожиданная ошибка: %v", err)
	}
	if mock.opens != 0 {
		t.Errorf("Загрузок быть не должно, получено: %d", mock.opens)
	}
}

func TestRestoreNilSnapshot(t *testing.T) {
	ctrl, _, _ := newTestController(t, []string{"a.mp3"})

	// Отсутствующий снимок оставляет значения по умолчанию
	ctrl.Restore(nil)

	if ctrl.Shuffle() || ctrl.Repeat() != RepeatOff {
		t.Error("Ожидались режимы по умолчанию")
	}
	if ctrl.Filter().Query() != "" {
		t.Error("Ожидался пустой запрос")
	}
}

func TestRestoreMissingTrack(t *testing.T) {
	ctrl, _, _ := newTestController(t, []string{"a.mp3", "b.mp3"})

	// Трек из снимка исчез из каталога - выбор остается по умолчанию
	snapshot := session.New()
	snapshot.SelectedPath = "/no/such/track.mp3"
	ctrl.Restore(snapshot)

	if ctrl.Filter().Cursor() != 0 {
		t.Errorf("Ожидался курсор 0, получено: %d", ctrl.Filter().Cursor())
	}
}

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RepeatMode
	}{
		{"off", RepeatOff},
		{"track", RepeatTrack},
		{"all", RepeatAll},
		{"garbage", RepeatOff},
		{"", RepeatOff},
	}

	for _, test := range tests {
		if ParseRepeatMode(test.input) != test.expected {
			t.Errorf("ParseRepeatMode(%q) = %v; ожидалось %v",
				test.input, ParseRepeatMode(test.input), test.expected)
		}
	}
}
