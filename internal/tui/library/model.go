// Package library содержит модель экрана поиска по библиотеке для TUI
package library

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-strum/internal/transport"
	"github.com/hazadus/go-strum/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	countStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).PaddingLeft(2)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")).PaddingLeft(2)
	emptyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).PaddingLeft(4)
)

// TrackChosenMsg отправляется при выборе трека для воспроизведения
type TrackChosenMsg struct{}

// Model представляет модель экрана поиска по библиотеке
type Model struct {
	controller *transport.Controller
	input      textinput.Model
	width      int
	height     int
	offset     int // Вертикальное смещение видимого окна списка
	err        error
}

// NewModel создает новую модель экрана поиска
func NewModel(controller *transport.Controller) *Model {
	input := textinput.New()
	input.Prompt = "🔍 "
	input.Placeholder = "поиск трека..."
	input.Focus()

	// Восстановленный из сессии запрос показываем в поле ввода
	input.SetValue(controller.Filter().Query())

	return &Model{
		controller: controller,
		input:      input,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetError показывает ошибку загрузки трека в строке состояния
func (m *Model) SetError(err error) {
	m.err = err
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			m.controller.Filter().MoveCursor(-1)
			m.ensureVisible()
			return m, nil

		case "down":
			m.controller.Filter().MoveCursor(1)
			m.ensureVisible()
			return m, nil

		case "pgup":
			m.controller.Filter().MoveCursor(-m.pageSize())
			m.ensureVisible()
			return m, nil

		case "pgdown":
			m.controller.Filter().MoveCursor(m.pageSize())
			m.ensureVisible()
			return m, nil

		case "enter":
			if m.controller.Filter().Current() != nil {
				m.err = nil
				return m, func() tea.Msg {
					return TrackChosenMsg{}
				}
			}
			return m, nil
		}
	}

	// Остальные клавиши идут в поле ввода запроса
	previous := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != previous {
		m.err = nil
		m.controller.SetQuery(m.input.Value())
		m.ensureVisible()
	}

	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	fs := m.controller.Filter()

	var b strings.Builder

	// Заголовок: поле ввода и счетчик совпадений
	b.WriteString(titleStyle.Render("🎵 Библиотека"))
	b.WriteString(countStyle.Render(fmt.Sprintf("  %d/%d", fs.Len(), fs.Total())))
	b.WriteString("\n\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n\n")

	// Видимое окно ранжированного списка
	matches := fs.Matches()
	if len(matches) == 0 {
		b.WriteString(emptyStyle.Render("Ничего не найдено"))
		b.WriteString("\n")
	} else {
		end := m.offset + m.pageSize()
		if end > len(matches) {
			end = len(matches)
		}
		for i := m.offset; i < end; i++ {
			row := m.renderRow(i)
			if i == fs.Cursor() {
				b.WriteString(selectedItemStyle.Render("> " + row))
			} else {
				b.WriteString(itemStyle.Render(row))
			}
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("❌ " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓: выбор • PgUp/PgDn: страница • Enter: воспроизвести • Ctrl+C: выход"))

	return b.String()
}

// renderRow форматирует одну строку списка
func (m *Model) renderRow(i int) string {
	entry := m.controller.Filter().Matches()[i].Entry

	maxLen := m.width - 14
	if maxLen < 20 {
		maxLen = 60
	}
	row := utils.TruncateString(entry.Rel, maxLen)

	if d := entry.Duration(); d > 0 {
		row = fmt.Sprintf("%s  %s", row, utils.FormatDuration(d))
	}
	return row
}

// pageSize возвращает количество видимых строк списка
func (m *Model) pageSize() int {
	// Оставляем место для заголовка, поля ввода и справки
	size := m.height - 8
	if size < 1 {
		size = 10
	}
	return size
}

// ensureVisible сдвигает окно списка так, чтобы курсор оставался видимым
func (m *Model) ensureVisible() {
	cursor := m.controller.Filter().Cursor()
	if cursor < m.offset {
		m.offset = cursor
	}
	if cursor >= m.offset+m.pageSize() {
		m.offset = cursor - m.pageSize() + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
