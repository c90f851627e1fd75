package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами.
// Корневая команда без подкоманды открывает интерактивный интерфейс.
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strum [music dir]",
		Short: "Terminal music player with fuzzy search",
		Long: `Terminal music player: scans a directory for audio files and plays them
through an interactive interface with fuzzy search over file paths.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := app.Config.MusicDir
			if len(args) > 0 {
				dir = args[0]
			}
			return app.launchTUI(dir)
		},
	}

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createScanCommand())
	rootCmd.AddCommand(app.createPlayCommand(ctx))

	return rootCmd
}
