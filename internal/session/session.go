// Package session содержит сохранение и восстановление состояния между запусками
package session

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Версия схемы снимка; снимки других версий молча заменяются значениями по умолчанию
const snapshotVersion = 1

// Snapshot представляет сохраненное состояние последней сессии.
// Записывается один раз при завершении работы и читается один раз при запуске.
type Snapshot struct {
	Version      int     `yaml:"version"`
	Root         string  `yaml:"root"`          // Корневая директория сканирования
	Query        string  `yaml:"query"`         // Последний поисковый запрос
	SelectedPath string  `yaml:"selected_path"` // Путь последнего выбранного трека
	PositionSec  float64 `yaml:"position"`      // Позиция воспроизведения в секундах
	Volume       int     `yaml:"volume"`        // Громкость, 0-100
	Speed        float64 `yaml:"speed"`         // Множитель скорости
	Shuffle      bool    `yaml:"shuffle"`       // Включено ли перемешивание
	Repeat       string  `yaml:"repeat"`        // Режим повтора: off, track, all
}

// New создает снимок текущей версии схемы
func New() *Snapshot {
	return &Snapshot{Version: snapshotVersion}
}

// Position возвращает сохраненную позицию воспроизведения
func (s *Snapshot) Position() time.Duration {
	if s.PositionSec <= 0 {
		return 0
	}
	return time.Duration(s.PositionSec * float64(time.Second))
}

// SetPosition записывает позицию воспроизведения в снимок
func (s *Snapshot) SetPosition(d time.Duration) {
	s.PositionSec = d.Seconds()
}

// Save записывает снимок в указанный файл
func (s *Snapshot) Save(filePath string) error {
	path, err := expandHome(filePath)
	if err != nil {
		return err
	}

	s.Version = snapshotVersion

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load читает снимок из указанного файла.
// Отсутствующий, поврежденный или устаревший снимок возвращает nil:
// приложение в этом случае стартует со значениями по умолчанию, сохраненное
// состояние никогда не блокирует запуск.
func Load(filePath string) *Snapshot {
	path, err := expandHome(filePath)
	if err != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	snapshot := &Snapshot{}
	if err := yaml.Unmarshal(data, snapshot); err != nil {
		return nil
	}
	if snapshot.Version != snapshotVersion {
		return nil
	}
	return snapshot
}

// expandHome раскрывает тильду в пути
func expandHome(filePath string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(filePath, "~", home, 1), nil
}
