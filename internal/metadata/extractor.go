// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// TrackTags хранит метаданные трека
type TrackTags struct {
	Artist string
	Title  string
	Album  string
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromReader извлекает метаданные из io.ReadSeeker
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackTags {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultTags(source)
	}

	m, err := tag.ReadFrom(reader)
	if err != nil {
		return e.getDefaultTags(source)
	}

	tags := TrackTags{
		Artist: m.Artist(),
		Title:  m.Title(),
		Album:  m.Album(),
	}

	// Пустое название заменяем именем файла
	if tags.Title == "" {
		return e.mergeWithDefault(tags, source)
	}
	return tags
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) TrackTags {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultTags(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// GetDuration получает длительность аудио файла, декодируя его заголовок
func (e *Extractor) GetDuration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	default:
		return 0, fmt.Errorf("неподдерживаемый формат файла: %s", filePath)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования файла: %w", err)
	}
	defer streamer.Close()

	// Вычисляем длительность
	return format.SampleRate.D(streamer.Len()), nil
}

// mergeWithDefault заполняет пустые поля тегов значениями из имени файла
func (e *Extractor) mergeWithDefault(tags TrackTags, source string) TrackTags {
	def := e.getDefaultTags(source)
	if tags.Artist == "" {
		tags.Artist = def.Artist
	}
	if tags.Title == "" {
		tags.Title = def.Title
	}
	return tags
}

// getDefaultTags возвращает метаданные по умолчанию на основе имени файла
func (e *Extractor) getDefaultTags(source string) TrackTags {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackTags{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
			Album:  "",
		}
	}

	// Если не удалось разобрать, используем имя файла как название
	return TrackTags{
		Artist: "Unknown Artist",
		Title:  nameWithoutExt,
		Album:  "",
	}
}
