package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Seed    SeedConfig
	Quiz    QuizConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// StorageConfig содержит настройки локальной базы SQLite
type StorageConfig struct {
	// Path: путь к файлу базы данных.
	Path string `mapstructure:"path"`
}

// SeedConfig содержит настройки встроенного каталога
type SeedConfig struct {
	// Path: путь к JSON-файлу встроенного каталога.
	// Отсутствующий файл означает пустой каталог.
	Path string `mapstructure:"path"`
}

// QuizConfig содержит настройки таймеров викторины
type QuizConfig struct {
	// SecondsPerQuestion: отсчет на один вопрос в секундах.
	SecondsPerQuestion int `mapstructure:"seconds_per_question"`

	// GraceDelaySeconds: задержка между истечением времени и авто-отправкой.
	GraceDelaySeconds int `mapstructure:"grace_delay_seconds"`
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Устанавливаем значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("storage.path", "./leastud.db")
	vip.SetDefault("seed.path", "./data/preloaded.json")
	vip.SetDefault("quiz.seconds_per_question", 40)
	vip.SetDefault("quiz.grace_delay_seconds", 1)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("storage.path", "STORAGE_PATH")
	vip.BindEnv("seed.path", "SEED_PATH")
	vip.BindEnv("quiz.seconds_per_question", "QUIZ_SECONDS_PER_QUESTION")
	vip.BindEnv("quiz.grace_delay_seconds", "QUIZ_GRACE_DELAY_SECONDS")

	// 3. Устанавливаем путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// 4. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 5. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Storage Path: %s", cfg.Storage.Path)
		log.Printf("Seed Path: %s", cfg.Seed.Path)
		log.Printf("Seconds Per Question: %d", cfg.Quiz.SecondsPerQuestion)
		log.Printf("Grace Delay Seconds: %d", cfg.Quiz.GraceDelaySeconds)
		log.Printf("-----------------------------------------")
	}

	// 7. Проверка параметров
	if cfg.Quiz.SecondsPerQuestion <= 0 {
		return nil, fmt.Errorf("quiz.seconds_per_question must be positive (check QUIZ_SECONDS_PER_QUESTION env var)")
	}
	if cfg.Storage.Path == "" {
		return nil, fmt.Errorf("storage.path is required (check STORAGE_PATH env var)")
	}

	return &cfg, nil
}
