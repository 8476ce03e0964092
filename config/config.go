package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Trading  TradingConfig  `yaml:"trading"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// TelegramConfig identifica el bot y el canal de señales.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"` // mejor vía env TELEGRAM_BOT_TOKEN
	ChatID   int64  `yaml:"chat_id"`   // id del canal (negativo para canales)
	APIBase  string `yaml:"api_base"`  // vacío = api.telegram.org
}

// TradingConfig controla la ejecución contra el gateway MT5.
type TradingConfig struct {
	GatewayBase       string  `yaml:"gateway_base"`
	Volume            float64 `yaml:"volume"` // lotes por orden
	CloseRetries      int     `yaml:"close_retries"`
	CloseRetryDelayMS int     `yaml:"close_retry_delay_ms"`
}

// StorageConfig controla dónde se persiste la bitácora.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys sensibles.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// CloseRetryDelay devuelve la espera entre reintentos de cierre.
func (c *Config) CloseRetryDelay() time.Duration {
	return time.Duration(c.Trading.CloseRetryDelayMS) * time.Millisecond
}

// validate rechaza configuraciones con las que el bot no puede arrancar.
func (c *Config) validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token vacío (o TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id vacío (o TELEGRAM_CHAT_ID)")
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("MT5_GATEWAY_BASE"); v != "" {
		cfg.Trading.GatewayBase = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Trading.GatewayBase == "" {
		cfg.Trading.GatewayBase = "http://localhost:8787"
	}
	if cfg.Trading.Volume <= 0 {
		cfg.Trading.Volume = 0.1
	}
	if cfg.Trading.CloseRetries <= 0 {
		cfg.Trading.CloseRetries = 3
	}
	if cfg.Trading.CloseRetryDelayMS <= 0 {
		cfg.Trading.CloseRetryDelayMS = 100
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "senalbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
