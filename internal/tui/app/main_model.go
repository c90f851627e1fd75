// Package app содержит основную логику TUI приложения
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-strum/internal/config"
	"github.com/hazadus/go-strum/internal/player"
	"github.com/hazadus/go-strum/internal/session"
	"github.com/hazadus/go-strum/internal/transport"
	"github.com/hazadus/go-strum/internal/tui/library"
	tuiPlayer "github.com/hazadus/go-strum/internal/tui/player"
)

// Период опроса прогресса воспроизведения
const tickInterval = 500 * time.Millisecond

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// LibraryScreen - экран поиска по библиотеке
	LibraryScreen ScreenType = iota
	// PlayerScreen - экран воспроизведения
	PlayerScreen
)

// tickMsg запускает очередной опрос прогресса воспроизведения
type tickMsg time.Time

// MainModel представляет главную модель TUI
type MainModel struct {
	controller    *transport.Controller
	currentScreen ScreenType
	libraryModel  *library.Model
	playerModel   *tuiPlayer.Model
	saveFunc      func(*session.Snapshot) error // Функция для сохранения снимка сессии
	lastStatus    player.Status                 // Последний статус для снимка при выходе
}

// NewMainModel создает новую главную модель
func NewMainModel(controller *transport.Controller, cfg *config.Config, saveFunc func(*session.Snapshot) error) *MainModel {
	return &MainModel{
		controller:    controller,
		currentScreen: LibraryScreen,
		libraryModel:  library.NewModel(controller),
		playerModel: tuiPlayer.NewModel(
			controller,
			time.Duration(cfg.SeekStepSec)*time.Second,
			cfg.VolumeStep,
		),
		saveFunc: saveFunc,
	}
}

// Init инициализирует модель и запускает цикл опроса прогресса
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.libraryModel.Init(), tick())
}

// tick планирует следующий опрос прогресса
func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// На экране плеера "q" завершает приложение;
			// на экране поиска это обычный символ запроса
			if m.currentScreen == PlayerScreen {
				return m, tea.Quit
			}
		}

	case tickMsg:
		// Опрашиваем плеер; политика продолжения применяется внутри контроллера
		status, err := m.controller.Tick()
		m.lastStatus = status
		if err != nil {
			m.playerModel.SetError(err)
		}

		var cmd tea.Cmd
		m.playerModel, cmd = m.playerModel.Update(tuiPlayer.StatusMsg{Status: status})
		return m, tea.Batch(tick(), cmd)

	case library.TrackChosenMsg:
		// Загружаем выбранный трек; при ошибке остаемся на экране поиска
		if err := m.controller.SelectCurrent(); err != nil {
			m.libraryModel.SetError(err)
			return m, nil
		}
		m.playerModel.SetError(nil)
		m.currentScreen = PlayerScreen
		return m, m.playerModel.Init()

	case tuiPlayer.GoBackMsg:
		// Возвращаемся к экрану поиска; воспроизведение продолжается
		m.currentScreen = LibraryScreen
		return m, nil

	case tea.WindowSizeMsg:
		// Передаем размеры окна обеим моделям
		var libraryCmd, playerCmd tea.Cmd
		m.libraryModel, libraryCmd = m.libraryModel.Update(msg)
		m.playerModel, playerCmd = m.playerModel.Update(msg)
		return m, tea.Batch(libraryCmd, playerCmd)
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case LibraryScreen:
		m.libraryModel, cmd = m.libraryModel.Update(msg)
	case PlayerScreen:
		m.playerModel, cmd = m.playerModel.Update(msg)
	}

	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case PlayerScreen:
		return m.playerModel.View()
	default:
		return m.libraryModel.View()
	}
}

// Close сохраняет сессию и останавливает воспроизведение.
// Снимок делается до остановки, пока текущий трек еще известен.
func (m *MainModel) Close() {
	if m.saveFunc != nil {
		_ = m.saveFunc(m.controller.Snapshot(m.lastStatus))
	}
	m.controller.Stop()
}
