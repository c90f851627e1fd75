package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazadus/go-strum/internal/config"
	"github.com/hazadus/go-strum/internal/index"
)

// captureOutput перехватывает stdout и stderr во время выполнения функции
func captureOutput(t *testing.T, fn func()) string {
	// Сохраняем оригинальные stdout и stderr
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Ошибка создания pipe: %v", err)
	}

	// Перенаправляем stdout и stderr
	os.Stdout = w
	os.Stderr = w

	fn()

	// Восстанавливаем оригинальные stdout и stderr
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	w.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("Ошибка чтения результата: %v", err)
	}

	return buf.String()
}

// createTestApplication создает тестовое приложение с временной конфигурацией
func createTestApplication(tempDir string) *Application {
	return &Application{
		Config: &config.Config{
			MusicDir:    tempDir,
			SessionFile: filepath.Join(tempDir, ".strum_session"),
			Volume:      config.DefaultVolume,
			Speed:       config.DefaultSpeed,
			SeekStepSec: config.DefaultSeekStep,
			VolumeStep:  config.DefaultVolumeStep,
		},
	}
}

// TestCmdScan проверяет, что команда `scan` выводит таблицу найденных треков
func TestCmdScan(t *testing.T) {
	tempDir := t.TempDir()

	// Имя файла в формате "Artist - Title" разбирается в метаданные
	path := filepath.Join(tempDir, "Test Artist - Test Title.mp3")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	app := createTestApplication(tempDir)
	scanCmd := app.createScanCommand()

	output := captureOutput(t, func() {
		scanCmd.SetArgs([]string{tempDir})
		if err := scanCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды scan: %v", err)
		}
	})

	expectedStrings := []string{
		"📚 Найдено треков: 1",
		"Test Artist",
		"Test Title",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Вывод команды scan не содержит ожидаемую строку '%s': %s", expected, output)
		}
	}
}

// TestCmdScanEmpty проверяет, что команда `scan` корректно обрабатывает пустую директорию
func TestCmdScanEmpty(t *testing.T) {
	tempDir := t.TempDir()
	app := createTestApplication(tempDir)
	scanCmd := app.createScanCommand()

	output := captureOutput(t, func() {
		scanCmd.SetArgs([]string{tempDir})
		if err := scanCmd.Execute(); err != nil {
			t.Errorf("Ошибка выполнения команды scan: %v", err)
		}
	})

	if !strings.Contains(output, "не найдено аудио файлов") {
		t.Errorf("Команда scan не отобразила сообщение о пустой директории: %s", output)
	}
}

// TestCmdScanMissingDir проверяет, что недоступная директория дает ошибку сканирования
func TestCmdScanMissingDir(t *testing.T) {
	app := createTestApplication(t.TempDir())

	err := app.scanLibrary("/no/such/dir")
	if err == nil {
		t.Fatal("Ожидалась ошибка сканирования")
	}

	var scanErr *index.ScanError
	if !errors.As(err, &scanErr) {
		t.Errorf("Ожидалась ошибка типа ScanError, получено: %v", err)
	}
}

// TestCmdPlayUnsupportedFormat проверяет обработку неподдерживаемого формата в команде play
func TestCmdPlayUnsupportedFormat(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	app := createTestApplication(tempDir)

	err := app.playFile(context.Background(), path)
	if err == nil {
		t.Fatal("Ожидалась ошибка для неподдерживаемого формата")
	}
	if !strings.Contains(err.Error(), "неподдерживаемый формат") {
		t.Errorf("Неожиданная ошибка: %v", err)
	}
}

// TestCmdPlayInvalidArgs проверяет обработку неверных аргументов в команде play
func TestCmdPlayInvalidArgs(t *testing.T) {
	app := createTestApplication(t.TempDir())
	playCmd := app.createPlayCommand(context.Background())

	var buf bytes.Buffer
	playCmd.SetOut(&buf)
	playCmd.SetErr(&buf)

	// Выполняем команду без аргументов
	err := playCmd.Execute()
	if err == nil {
		t.Error("Ожидалась ошибка при выполнении команды play без аргументов")
	}

	output := buf.String()
	if !strings.Contains(output, "requires exactly 1 arg") && !strings.Contains(output, "accepts 1 arg") {
		t.Errorf("Команда play не отобразила ошибку о неверных аргументах: %s", output)
	}
}
