package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-strum/internal/metadata"
	"github.com/hazadus/go-strum/internal/player"
	"github.com/hazadus/go-strum/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [file path]",
		Short: "Play a single audio file",
		Long:  `Play a single audio file without launching the interactive interface.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.playFile(ctx, args[0])
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// readSingleChar читает одиночный символ без ожидания Enter
func readSingleChar() (byte, error) {
	buffer := make([]byte, 1)
	_, err := os.Stdin.Read(buffer)
	return buffer[0], err
}

func (app *Application) playFile(ctx context.Context, filePath string) error {
	if !player.IsSupported(filePath) {
		return fmt.Errorf("неподдерживаемый формат файла: %s", filePath)
	}

	// Выводим информацию о треке
	tags := metadata.NewExtractor().ExtractFromFile(filePath)
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   Исполнитель: %s\n", tags.Artist)
	fmt.Printf("   Название: %s\n", tags.Title)
	if tags.Album != "" {
		fmt.Printf("   Альбом: %s\n", tags.Album)
	}
	fmt.Println()

	p := player.NewPlayer(app.Config.Volume, app.Config.Speed)
	defer p.Close()

	if err := p.Load(filePath, true); err != nil {
		return err
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	// Запускаем горутину для обработки клавиш
	go func() {
		for {
			char, err := readSingleChar()
			if err != nil {
				continue
			}

			// Пробел (ASCII 32) или Enter (ASCII 10/13) переключает паузу
			if char == 32 || char == 10 || char == 13 {
				p.TogglePause()
				fmt.Printf("\r\033[K") // Очищаем текущую строку
				if p.IsPlaying() {
					fmt.Printf("▶️  Воспроизведение\n")
				} else {
					fmt.Printf("⏸️  Пауза\n")
				}
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Главный цикл обработки событий
	for {
		select {
		case <-ticker.C:
			displayProgress(p.Tick())
		case <-p.Done():
			fmt.Println("\n✅ Воспроизведение завершено")
			return nil
		case <-ctx.Done():
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			p.Stop()
			return nil
		}
	}
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(status player.Status) {
	// Определяем процент завершения
	var progress string
	if status.Duration > 0 {
		percent := float64(status.Position) / float64(status.Duration) * 100
		progress = fmt.Sprintf("%.1f%%", percent)
	} else {
		progress = "??%"
	}

	// Выбираем иконку статуса
	statusIcon := "⏱️"
	if status.State == player.StatePaused {
		statusIcon = "⏸️"
	}

	if status.Duration > 0 {
		fmt.Printf("\r%s  %s | %s / %s | Громкость: %d%% | Скорость: %.2fx",
			statusIcon,
			progress,
			utils.FormatDuration(status.Position),
			utils.FormatDuration(status.Duration),
			status.Volume,
			status.Speed)
	} else {
		fmt.Printf("\r%s  %s | Скорость: %.2fx",
			statusIcon,
			utils.FormatDuration(status.Position),
			status.Speed)
	}
}
