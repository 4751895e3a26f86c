package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de cashflow.
type Config struct {
	Flow    FlowConfig    `yaml:"flow"`
	Report  ReportConfig  `yaml:"report"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// FlowConfig controla el cálculo.
type FlowConfig struct {
	Validate *bool `yaml:"validate"` // nil = true; validar trades antes de calcular
	Workers  int   `yaml:"workers"`  // 0 = NumCPU
}

// ReportConfig controla la salida por consola.
type ReportConfig struct {
	Table        bool `yaml:"table"`
	MaxRows      int  `yaml:"max_rows"`
	HistoryHours int  `yaml:"history_hours"`
}

// StorageConfig controla dónde se persisten los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Si el archivo no existe se usan los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// sin archivo: solo env + defaults
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// ValidateTrades indica si el servicio debe rechazar trades mal formados.
func (c *Config) ValidateTrades() bool {
	return c.Flow.Validate == nil || *c.Flow.Validate
}

// HistoryWindow devuelve la ventana del histórico como time.Duration.
func (c *Config) HistoryWindow() time.Duration {
	return time.Duration(c.Report.HistoryHours) * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("CASHFLOW_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("CASHFLOW_VALIDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CASHFLOW_VALIDATE=%q: %w", v, err)
		}
		cfg.Flow.Validate = &b
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Flow.Workers < 0 {
		cfg.Flow.Workers = 0
	}
	if cfg.Report.MaxRows <= 0 {
		cfg.Report.MaxRows = 50
	}
	if cfg.Report.HistoryHours <= 0 {
		cfg.Report.HistoryHours = 24
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "cashflow.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
