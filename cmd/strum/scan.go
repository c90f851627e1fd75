package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-strum/internal/index"
	"github.com/hazadus/go-strum/internal/metadata"
	"github.com/hazadus/go-strum/internal/utils"
)

// createScanCommand создает команду scan с привязкой к экземпляру приложения
func (app *Application) createScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [music dir]",
		Short: "Scan a directory and list found audio files",
		Long:  `Scan a directory recursively and display a table of all supported audio files.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := app.Config.MusicDir
			if len(args) > 0 {
				dir = args[0]
			}
			return app.scanLibrary(dir)
		},
	}
}

func (app *Application) scanLibrary(dir string) error {
	ix, err := index.Build(dir)
	if err != nil {
		return err
	}

	if ix.Len() == 0 {
		fmt.Printf("📚 В директории %s не найдено аудио файлов\n", ix.Root())
		return nil
	}

	fmt.Printf("📚 Найдено треков: %d (%s)\n\n", ix.Len(), ix.Root())

	// Выводим заголовок таблицы
	fmt.Printf("%-4s %-40s %-25s %-30s %-10s\n",
		"#", "Файл", "Исполнитель", "Название", "Длительность")
	fmt.Println(strings.Repeat("-", 115))

	extractor := metadata.NewExtractor()

	// Выводим каждый трек
	for i, entry := range ix.Entries() {
		tags := entry.Tags()

		// Длительность читается из заголовка файла; ошибки декодирования
		// не прерывают вывод таблицы
		duration := "N/A"
		if d, err := extractor.GetDuration(entry.Path); err == nil {
			duration = utils.FormatDuration(d)
		}

		fmt.Printf("%-4d %-40s %-25s %-30s %-10s\n",
			i+1,
			utils.TruncateString(entry.Rel, 38),
			utils.TruncateString(tags.Artist, 23),
			utils.TruncateString(tags.Title, 28),
			duration)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'strum' без аргументов для интерактивного режима")
	return nil
}
