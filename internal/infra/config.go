package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации бота.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Slack  SlackConfig  `mapstructure:"slack"`
	Sheets SheetsConfig `mapstructure:"sheets"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Audit  AuditConfig  `mapstructure:"audit"`
	Logger LoggerConfig `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера (вебхуки Slack).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MetricsPort  int           `mapstructure:"metrics_port"`
}

// SlackConfig содержит токен бота и адреса каналов процесса согласования.
type SlackConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	SigningSecret string `mapstructure:"signing_secret"`

	// ReviewChannel — куда падают карточки на согласование.
	// AnnounceChannel — куда уходит итоговое уведомление об отсутствии.
	ReviewChannel   string `mapstructure:"review_channel"`
	AnnounceChannel string `mapstructure:"announce_channel"`
}

// SheetsConfig описывает доступ к Google-таблице: вкладка ростера
// согласующих и вкладка журнала решений.
type SheetsConfig struct {
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	RosterTab     string `mapstructure:"roster_tab"`
	RosterRange   string `mapstructure:"roster_range"`
	LogTab        string `mapstructure:"log_tab"`
	LogRange      string `mapstructure:"log_range"`

	// Service Account: email + приватный ключ (путь к PEM или сам PEM в ENV).
	SAEmail   string `mapstructure:"sa_email"`
	SAKeyPath string `mapstructure:"sa_key_path"`
	SAKey     []byte
}

// LedgerConfig настраивает mutual-exclusion по ключу заявки.
type LedgerConfig struct {
	Mode  string        `mapstructure:"mode"` // memory | redis
	Hold  time.Duration `mapstructure:"hold"`
	Grace time.Duration `mapstructure:"grace"`
}

// RedisConfig описывает подключение к Redis (только для ledger.mode=redis).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuditConfig содержит настройки асинхронного журнала решений.
type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`

	// PostgresURL — опциональное зеркало журнала в Postgres.
	// Пустая строка — пишем только в таблицу Google.
	PostgresURL string `mapstructure:"postgres_url"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// ENV перекрывает файл: SLACK_BOT_TOKEN=... перекроет slack.bot_token
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Ключ сервис-аккаунта: сначала смотрим ENV (Docker/K8s), потом файл
	cfg.Sheets.SAKey = loadKeyResource(cfg.Sheets.SAKeyPath, "SHEETS_SA_KEY_DATA")

	if cfg.Slack.BotToken == "" {
		return nil, errors.New("slack.bot_token is required")
	}
	if cfg.Slack.SigningSecret == "" {
		return nil, errors.New("slack.signing_secret is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("sheets.roster_tab", "confirm-request")
	v.SetDefault("sheets.roster_range", "!A2:D")
	v.SetDefault("sheets.log_range", "!A2:L")
	v.SetDefault("ledger.mode", "memory")
	v.SetDefault("ledger.hold", 5*time.Second)
	v.SetDefault("ledger.grace", 3*time.Second)
	v.SetDefault("audit.buffer_size", 1000)
	v.SetDefault("audit.flush_interval", 1*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
