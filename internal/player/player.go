// Package player содержит компоненты для управления воспроизведением аудио
package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// State представляет состояние воспроизведения
type State int

// Состояния плеера
const (
	// StateStopped - поток остановлен, устройство вывода освобождено
	StateStopped State = iota
	// StatePlaying - поток воспроизводится
	StatePlaying
	// StatePaused - поток на паузе
	StatePaused
	// StateEnded - поток дошел до конца; терминальное состояние для данного трека
	StateEnded
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "stopped"
	}
}

// Границы настраиваемых параметров воспроизведения
const (
	MinVolume = 0
	MaxVolume = 100
	MinSpeed  = 0.5
	MaxSpeed  = 3.0
)

// Частота динамиков; потоки с другой частотой проходят через ресемплер
const deviceSampleRate = beep.SampleRate(44100)

// outputDevice - устройство вывода звука. Тесты подменяют его заглушкой,
// чтобы проверять плеер без реальных динамиков.
type outputDevice interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerDevice выводит звук через пакет speaker
type speakerDevice struct{}

func (speakerDevice) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}
func (speakerDevice) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerDevice) Clear()                  { speaker.Clear() }
func (speakerDevice) Lock()                   { speaker.Lock() }
func (speakerDevice) Unlock()                 { speaker.Unlock() }

// LoadError означает, что выбранный файл не удалось открыть или декодировать.
// Такая ошибка показывается пользователю и не прерывает работу приложения.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("не удалось загрузить %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Status представляет текущий статус плеера, считываемый по тику
type Status struct {
	Position time.Duration // Текущая позиция
	Duration time.Duration // Общая продолжительность
	State    State         // Состояние воспроизведения
	Volume   int           // Громкость, 0-100
	Speed    float64       // Множитель скорости
	Ended    bool          // Поток дошел до конца на этом тике
}

// Player владеет единственным активным аудио потоком.
// Все команды выполняются из одной горутины цикла событий; мьютекс защищает
// только чтение статуса из горутин мониторинга.
type Player struct {
	mutex         sync.RWMutex
	output        outputDevice
	isInitialized bool
	state         State
	path          string

	// Компоненты цепочки воспроизведения
	file      *os.File
	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	volume    *effects.Volume

	volumePct int
	speed     float64

	// Канал завершения: сигнал отправляется callback-ом при естественном конце потока
	doneChan chan struct{}
	// Поколение загрузки, чтобы callback старого потока не сигналил о новом.
	// Атомарное: callback сверяет его, не трогая мьютекс плеера.
	generation atomic.Int64
}

// NewPlayer создает новый экземпляр плеера с указанными громкостью и скоростью
func NewPlayer(volumePct int, speed float64) *Player {
	p := &Player{
		output:   speakerDevice{},
		state:    StateStopped,
		doneChan: make(chan struct{}, 1),
	}
	p.volumePct = clampVolume(volumePct)
	p.speed = clampSpeed(speed)
	return p
}

// IsSupported сообщает, умеет ли плеер декодировать файл с таким расширением
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav", ".flac", ".ogg":
		return true
	}
	return false
}

// Done возвращает канал, в который отправляется сигнал при завершении потока
func (p *Player) Done() <-chan struct{} {
	return p.doneChan
}

// Load открывает файл и начинает воспроизведение (или ставит его на паузу).
// Предыдущий поток всегда разбирается до построения нового: в любой момент
// существует не более одного активного потока вывода.
func (p *Player) Load(path string, startPlaying bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Останавливаем текущее воспроизведение, если есть
	p.stopInternal()

	file, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	default:
		err = fmt.Errorf("неподдерживаемый формат файла")
	}
	if err != nil {
		file.Close()
		return &LoadError{Path: path, Err: err}
	}

	// Инициализируем устройство вывода один раз на фиксированной частоте;
	// все потоки приводятся к ней ресемплером
	if !p.isInitialized {
		err = p.output.Init(deviceSampleRate, deviceSampleRate.N(time.Second/10))
		if err != nil {
			streamer.Close()
			file.Close()
			return &LoadError{Path: path, Err: fmt.Errorf("ошибка инициализации динамиков: %w", err)}
		}
		p.isInitialized = true
	}

	p.file = file
	p.streamer = streamer
	p.format = format
	p.path = path

	// Цепочка: поток → пауза → ресемплер (частота и скорость) → громкость
	p.ctrl = &beep.Ctrl{Streamer: streamer, Paused: !startPlaying}
	baseRatio := float64(format.SampleRate) / float64(deviceSampleRate)
	p.resampler = beep.ResampleRatio(4, baseRatio*p.speed, p.ctrl)
	p.volume = &effects.Volume{
		Streamer: p.resampler,
		Base:     2,
		Volume:   volumeToDB(p.volumePct),
		Silent:   p.volumePct == MinVolume,
	}

	if startPlaying {
		p.state = StatePlaying
	} else {
		p.state = StatePaused
	}

	generation := p.generation.Add(1)

	p.output.Play(beep.Seq(p.volume, beep.Callback(func() {
		// Callback приходит из потока вывода под мьютексом динамиков,
		// поэтому мьютекс плеера здесь брать нельзя: поколение сверяется
		// атомарно, сигнал отправляется без блокировки
		if p.generation.Load() != generation {
			return
		}
		select {
		case p.doneChan <- struct{}{}:
		default:
		}
	})))

	return nil
}

// Play возобновляет воспроизведение; повторный вызов в состоянии Playing безвреден
func (p *Player) Play() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil || p.state == StateEnded {
		return
	}
	p.output.Lock()
	p.ctrl.Paused = false
	p.output.Unlock()
	p.state = StatePlaying
}

// Pause приостанавливает воспроизведение; повторный вызов безвреден
func (p *Player) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil || p.state == StateEnded {
		return
	}
	p.output.Lock()
	p.ctrl.Paused = true
	p.output.Unlock()
	p.state = StatePaused
}

// TogglePause переключает паузу и воспроизведение
func (p *Player) TogglePause() {
	p.mutex.Lock()
	state := p.state
	p.mutex.Unlock()

	if state == StatePlaying {
		p.Pause()
	} else {
		p.Play()
	}
}

// Stop останавливает воспроизведение и немедленно освобождает поток
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stopInternal()
}

// stopInternal внутренний метод остановки (должен вызываться под мьютексом)
func (p *Player) stopInternal() {
	if p.ctrl != nil {
		p.output.Clear()
		p.ctrl = nil
		p.resampler = nil
		p.volume = nil
	}

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}

	if p.file != nil {
		// Декодер мог уже закрыть файл, повторное закрытие безвредно
		_ = p.file.Close()
		p.file = nil
	}

	p.path = ""
	p.state = StateStopped
}

// Seek перемещает позицию на относительное смещение.
// Позиция ограничивается началом потока; перемотка за конец приводит
// к завершению потока так же, как естественный конец.
func (p *Player) Seek(delta time.Duration) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return nil
	}

	p.output.Lock()
	current := p.streamer.Position()
	total := p.streamer.Len()
	target := clampSamples(current+p.format.SampleRate.N(delta), total)
	err := p.streamer.Seek(target)
	p.output.Unlock()

	if err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// SeekTo перемещает позицию на абсолютное значение с теми же ограничениями
func (p *Player) SeekTo(position time.Duration) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return nil
	}

	p.output.Lock()
	total := p.streamer.Len()
	target := clampSamples(p.format.SampleRate.N(position), total)
	err := p.streamer.Seek(target)
	p.output.Unlock()

	if err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// SetVolume устанавливает громкость 0-100, не прерывая воспроизведение
func (p *Player) SetVolume(pct int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.volumePct = clampVolume(pct)

	if p.volume != nil {
		p.output.Lock()
		p.volume.Volume = volumeToDB(p.volumePct)
		p.volume.Silent = p.volumePct == MinVolume
		p.output.Unlock()
	}
}

// AdjustVolume изменяет громкость на delta процентов
func (p *Player) AdjustVolume(delta int) {
	p.SetVolume(p.Volume() + delta)
}

// SetSpeed устанавливает множитель скорости, не прерывая воспроизведение
func (p *Player) SetSpeed(speed float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.speed = clampSpeed(speed)

	if p.resampler != nil {
		baseRatio := float64(p.format.SampleRate) / float64(deviceSampleRate)
		p.output.Lock()
		p.resampler.SetRatio(baseRatio * p.speed)
		p.output.Unlock()
	}
}

// AdjustSpeed изменяет множитель скорости на delta
func (p *Player) AdjustSpeed(delta float64) {
	p.SetSpeed(p.Speed() + delta)
}

// Volume возвращает текущую громкость 0-100
func (p *Player) Volume() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.volumePct
}

// Speed возвращает текущий множитель скорости
func (p *Player) Speed() float64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.speed
}

// State возвращает текущее состояние воспроизведения
func (p *Player) State() State {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.state
}

// Path возвращает путь к загруженному файлу или пустую строку
func (p *Player) Path() string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.path
}

// IsPlaying возвращает true, если трек воспроизводится
func (p *Player) IsPlaying() bool {
	return p.State() == StatePlaying
}

// Tick считывает текущую позицию и определяет, дошел ли поток до конца.
// Вызывается периодически из цикла событий.
func (p *Player) Tick() Status {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	status := Status{
		State:  p.state,
		Volume: p.volumePct,
		Speed:  p.speed,
	}

	if p.streamer == nil {
		return status
	}

	p.output.Lock()
	position := p.streamer.Position()
	total := p.streamer.Len()
	p.output.Unlock()

	status.Position = p.format.SampleRate.D(position)
	if total > 0 {
		status.Duration = p.format.SampleRate.D(total)
	}

	// Конец потока фиксируется один раз; дальше состоянием управляет контроллер
	if p.state == StatePlaying && total > 0 && position >= total {
		p.state = StateEnded
		status.State = StateEnded
		status.Ended = true
	}

	return status
}

// Close закрывает плеер и освобождает ресурсы
func (p *Player) Close() error {
	p.Stop()
	return nil
}

// clampSamples удерживает позицию в сэмплах в пределах [0, total]
func clampSamples(position, total int) int {
	if total > 0 && position > total {
		position = total
	}
	if position < 0 {
		position = 0
	}
	return position
}

// clampVolume удерживает громкость в пределах 0-100
func clampVolume(pct int) int {
	if pct < MinVolume {
		return MinVolume
	}
	if pct > MaxVolume {
		return MaxVolume
	}
	return pct
}

// clampSpeed удерживает множитель скорости в допустимых пределах
func clampSpeed(speed float64) float64 {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

// volumeToDB переводит проценты громкости в экспоненциальную шкалу effects.Volume
func volumeToDB(pct int) float64 {
	// 100% соответствует исходной громкости, каждые 20% ниже — вдвое тише
	return float64(pct-MaxVolume) / 20.0
}
