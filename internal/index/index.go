// Package index содержит каталог аудио файлов, найденных в корневой директории
package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hazadus/go-strum/internal/metadata"
)

// Расширения файлов, которые умеет декодировать плеер
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// ScanError означает, что корневая директория недоступна для сканирования
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("ошибка сканирования директории %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// TrackEntry представляет один найденный аудио файл.
// Путь неизменяем; отображаемые метаданные заполняются лениво при первом обращении.
type TrackEntry struct {
	Path string // Абсолютный путь к файлу
	Rel  string // Путь относительно корня сканирования

	tagsOnce sync.Once
	tags     metadata.TrackTags

	duration time.Duration // 0, пока длительность неизвестна
}

// Tags возвращает метаданные трека, извлекая их при первом обращении
func (e *TrackEntry) Tags() metadata.TrackTags {
	e.tagsOnce.Do(func() {
		e.tags = metadata.NewExtractor().ExtractFromFile(e.Path)
	})
	return e.tags
}

// Duration возвращает известную длительность трека или 0
func (e *TrackEntry) Duration() time.Duration {
	return e.duration
}

// SetDuration запоминает длительность, когда декодер её узнал
func (e *TrackEntry) SetDuration(d time.Duration) {
	if d > 0 {
		e.duration = d
	}
}

// Index представляет упорядоченный каталог треков одного сканирования.
// Порядок следования — порядок обнаружения файлов; после построения каталог
// доступен только для чтения.
type Index struct {
	root    string
	entries []*TrackEntry
}

// Build сканирует корневую директорию и строит каталог треков.
// Недоступный корень — это ScanError; ошибки отдельных файлов и поддиректорий
// не прерывают сканирование, такие файлы просто не попадают в каталог.
func Build(root string) (*Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &ScanError{Root: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: absRoot, Err: fmt.Errorf("не является директорией")}
	}

	ix := &Index{root: absRoot}
	seen := make(map[string]bool)

	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Нечитаемые поддиректории пропускаем, не прерывая обход
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if seen[path] {
			return nil
		}
		seen[path] = true

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		ix.entries = append(ix.entries, &TrackEntry{Path: path, Rel: rel})
		return nil
	})

	return ix, nil
}

// Root возвращает корневую директорию сканирования
func (ix *Index) Root() string {
	return ix.root
}

// Len возвращает количество треков в каталоге
func (ix *Index) Len() int {
	return len(ix.entries)
}

// At возвращает трек по его позиции в порядке обнаружения
func (ix *Index) At(i int) *TrackEntry {
	return ix.entries[i]
}

// Entries возвращает все треки в порядке обнаружения
func (ix *Index) Entries() []*TrackEntry {
	return ix.entries
}

// ByPath возвращает трек с указанным абсолютным путем или nil
func (ix *Index) ByPath(path string) *TrackEntry {
	for _, e := range ix.entries {
		if e.Path == path {
			return e
		}
	}
	return nil
}
