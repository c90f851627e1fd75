package main

import (
	"fmt"

	"github.com/hazadus/go-strum/internal/filter"
	"github.com/hazadus/go-strum/internal/index"
	"github.com/hazadus/go-strum/internal/player"
	"github.com/hazadus/go-strum/internal/session"
	"github.com/hazadus/go-strum/internal/transport"
	"github.com/hazadus/go-strum/internal/tui"
)

// launchTUI сканирует библиотеку и открывает интерактивный интерфейс
func (app *Application) launchTUI(dir string) error {
	// Сканируем библиотеку; недоступный корень - фатальная ошибка
	ix, err := index.Build(dir)
	if err != nil {
		return err
	}
	if ix.Len() == 0 {
		fmt.Printf("📚 В директории %s не найдено аудио файлов\n", ix.Root())
		return nil
	}

	// Читаем снимок прошлой сессии; его отсутствие не мешает запуску
	snapshot := session.Load(app.Config.SessionFile)

	volume := app.Config.Volume
	speed := app.Config.Speed
	if snapshot != nil {
		volume = snapshot.Volume
		speed = snapshot.Speed
	}

	// Собираем плеер и контроллер
	p := player.NewPlayer(volume, speed)
	defer p.Close()

	ctrl := transport.NewController(ix, filter.NewSession(ix), p)
	ctrl.Restore(snapshot)

	// Продолжаем прошлую сессию: трек загружается на паузе с сохраненной позиции
	if app.Config.ResumePlayback && snapshot != nil && snapshot.SelectedPath != "" {
		if err := ctrl.ResumeAt(snapshot.Position()); err != nil {
			fmt.Printf("⚠️  Не удалось продолжить воспроизведение: %v\n", err)
		}
	}

	// Снимок сессии записывается при выходе из интерфейса
	saveFunc := func(s *session.Snapshot) error {
		return s.Save(app.Config.SessionFile)
	}

	tuiApp := tui.NewApp(ctrl, app.Config, saveFunc)
	return tuiApp.Run()
}
