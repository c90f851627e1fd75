// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-strum/internal/player"
	"github.com/hazadus/go-strum/internal/transport"
	"github.com/hazadus/go-strum/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	modesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// GoBackMsg отправляется для возврата к экрану поиска
type GoBackMsg struct{}

// StatusMsg содержит очередной статус плеера от цикла событий
type StatusMsg struct {
	Status player.Status
}

// Model представляет модель экрана воспроизведения
type Model struct {
	controller  *transport.Controller
	progressBar progress.Model
	status      player.Status
	seekStep    time.Duration
	volumeStep  int
	err         error
	width       int
	height      int
}

// NewModel создает новую модель экрана воспроизведения
func NewModel(controller *transport.Controller, seekStep time.Duration, volumeStep int) *Model {
	// Создаем прогресс-бар
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		controller:  controller,
		progressBar: prog,
		seekStep:    seekStep,
		volumeStep:  volumeStep,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetError показывает ошибку воспроизведения внутри экрана
func (m *Model) SetError(err error) {
	m.err = err
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Обновляем ширину прогресс-бара
		width := msg.Width - 10
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.progressBar.Width = width
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StatusMsg:
		// Обновляем статус и прогресс-бар
		m.status = msg.Status

		var percent float64
		if msg.Status.Duration > 0 {
			percent = float64(msg.Status.Position) / float64(msg.Status.Duration)
		}
		return m, m.progressBar.SetPercent(percent)

	case progress.FrameMsg:
		// Обновляем анимацию прогресс-бара
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// handleKey обрабатывает команды управления воспроизведением
func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		// Возвращаемся к экрану поиска
		return m, func() tea.Msg {
			return GoBackMsg{}
		}

	case " ":
		m.controller.TogglePause()

	case "n":
		m.applyResult(m.controller.Skip(transport.Forward))

	case "p":
		m.applyResult(m.controller.Skip(transport.Backward))

	case "x":
		m.controller.Stop()

	case "left":
		m.applyResult(m.controller.SeekBy(-m.seekStep))

	case "right":
		m.applyResult(m.controller.SeekBy(m.seekStep))

	case "+", "=":
		m.controller.VolumeBy(m.volumeStep)

	case "-", "_":
		m.controller.VolumeBy(-m.volumeStep)

	case "]":
		m.controller.SpeedBy(0.25)

	case "[":
		m.controller.SpeedBy(-0.25)

	case "s":
		m.controller.ToggleShuffle()

	case "r":
		m.controller.CycleRepeat()
	}

	return m, nil
}

// applyResult запоминает ошибку команды для показа на экране
func (m *Model) applyResult(err error) {
	m.err = err
}

// View отображает модель
func (m *Model) View() string {
	// Заголовок
	title := titleStyle.Render("🎵 Воспроизведение")

	// Информация о треке
	trackInfo := trackInfoStyle.Render(m.renderTrackInfo())

	// Статус воспроизведения
	statusText := statusStyle.Render(fmt.Sprintf("%s %s", stateIcon(m.status.State), stateLabel(m.status.State)))

	// Прогресс-бар и время
	progressView := m.progressBar.View()
	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatDuration(m.status.Position),
		utils.FormatDuration(m.status.Duration),
	)

	// Режимы воспроизведения
	modes := modesStyle.Render(fmt.Sprintf(
		"🔊 %d%%  ⏩ %.2fx  🔀 %s  🔁 %s",
		m.status.Volume,
		m.status.Speed,
		onOff(m.controller.Shuffle()),
		repeatLabel(m.controller.Repeat()),
	))

	// Элементы управления
	controls := controlsStyle.Render(
		"Пробел: пауза • n/p: треки • ←/→: перемотка • +/-: громкость • [/]: скорость\n" +
			"s: перемешивание • r: повтор • x: стоп • Tab: к поиску • q: выход",
	)

	view := fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n%s\n%s\n\n%s\n\n%s",
		title,
		trackInfo,
		statusText,
		progressView,
		timeText,
		modes,
		controls,
	)

	if m.err != nil {
		view += "\n\n" + errorStyle.Render("❌ "+m.err.Error())
	}

	return view
}

// renderTrackInfo форматирует сведения о текущем треке
func (m *Model) renderTrackInfo() string {
	entry := m.controller.CurrentEntry()
	if entry == nil {
		return "Трек не выбран"
	}

	tags := entry.Tags()
	info := fmt.Sprintf("🎤 %s\n🎵 %s", tags.Artist, tags.Title)
	if tags.Album != "" {
		info += fmt.Sprintf("\n💿 %s", tags.Album)
	}
	return info
}

// Вспомогательные функции

func stateIcon(s player.State) string {
	switch s {
	case player.StatePlaying:
		return "▶️"
	case player.StatePaused:
		return "⏸️"
	case player.StateEnded:
		return "⏹️"
	default:
		return "⏹️"
	}
}

func stateLabel(s player.State) string {
	switch s {
	case player.StatePlaying:
		return "Воспроизведение"
	case player.StatePaused:
		return "Пауза"
	case player.StateEnded:
		return "Завершено"
	default:
		return "Остановлено"
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "вкл"
	}
	return "выкл"
}

func repeatLabel(mode transport.RepeatMode) string {
	switch mode {
	case transport.RepeatTrack:
		return "трек"
	case transport.RepeatAll:
		return "все"
	default:
		return "выкл"
	}
}
