// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Значения по умолчанию для отсутствующих полей конфигурации
const (
	DefaultVolume     = 80
	DefaultSpeed      = 1.0
	DefaultSeekStep   = 5 // секунд
	DefaultVolumeStep = 5 // процентов
)

// Config структура для хранения конфигурации приложения
type Config struct {
	MusicDir       string  `yaml:"music_dir"`        // Корневая директория с музыкой
	SessionFile    string  `yaml:"session_file"`     // Файл для сохранения состояния сессии
	Volume         int     `yaml:"volume"`           // Громкость по умолчанию, 0-100
	Speed          float64 `yaml:"speed"`            // Скорость воспроизведения по умолчанию
	SeekStepSec    int     `yaml:"seek_step"`        // Шаг перемотки в секундах
	VolumeStep     int     `yaml:"volume_step"`      // Шаг изменения громкости в процентах
	ResumePlayback bool    `yaml:"resume_playback"`  // Продолжать воспроизведение при запуске
}

// fileConfig разбирает файл конфигурации. Громкость читается через
// указатель, чтобы отличать отсутствующий ключ от явно заданного нуля:
// запуск с выключенным звуком допустим.
type fileConfig struct {
	MusicDir       string  `yaml:"music_dir"`
	SessionFile    string  `yaml:"session_file"`
	Volume         *int    `yaml:"volume"`
	Speed          float64 `yaml:"speed"`
	SeekStepSec    int     `yaml:"seek_step"`
	VolumeStep     int     `yaml:"volume_step"`
	ResumePlayback bool    `yaml:"resume_playback"`
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не является ошибкой: возвращается конфигурация по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	file := &fileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, file); err != nil {
		return nil, err
	}

	config := &Config{
		MusicDir:       file.MusicDir,
		SessionFile:    file.SessionFile,
		Speed:          file.Speed,
		SeekStepSec:    file.SeekStepSec,
		VolumeStep:     file.VolumeStep,
		ResumePlayback: file.ResumePlayback,
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	if config.MusicDir == "" {
		config.MusicDir = "~/Music"
	}
	if config.SessionFile == "" {
		config.SessionFile = "~/.strum_session"
	}
	if file.Volume != nil && *file.Volume >= 0 && *file.Volume <= 100 {
		config.Volume = *file.Volume
	} else {
		config.Volume = DefaultVolume
	}
	if config.Speed <= 0 {
		config.Speed = DefaultSpeed
	}
	if config.SeekStepSec <= 0 {
		config.SeekStepSec = DefaultSeekStep
	}
	if config.VolumeStep <= 0 {
		config.VolumeStep = DefaultVolumeStep
	}

	// Раскрываем тильду в путях
	config.MusicDir = strings.Replace(config.MusicDir, "~", home, 1)
	config.SessionFile = strings.Replace(config.SessionFile, "~", home, 1)

	return config, nil
}
