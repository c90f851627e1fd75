// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-strum/internal/config"
	"github.com/hazadus/go-strum/internal/session"
	"github.com/hazadus/go-strum/internal/transport"
	"github.com/hazadus/go-strum/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	controller *transport.Controller
	cfg        *config.Config
	saveFunc   func(*session.Snapshot) error // Функция для сохранения снимка сессии
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(controller *transport.Controller, cfg *config.Config, saveFunc func(*session.Snapshot) error) *App {
	return &App{
		controller: controller,
		cfg:        cfg,
		saveFunc:   saveFunc,
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	// Создаем модель для Bubble Tea
	model := app.NewMainModel(tuiApp.controller, tuiApp.cfg, tuiApp.saveFunc)

	// Создаем программу Bubble Tea
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Запускаем программу
	_, err := p.Run()

	// Сохраняем сессию и останавливаем плеер после завершения программы
	model.Close()

	return err
}
