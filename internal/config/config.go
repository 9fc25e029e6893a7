package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logs     LogsConfig     `toml:"logs"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Sessions SessionsConfig `toml:"sessions"`
	Holds    HoldsConfig    `toml:"holds"`
	NLP      NLPConfig      `toml:"nlp"`
	Booking  BookingConfig  `toml:"booking"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Events   EventsConfig   `toml:"events"`
}

// ServerConfig таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DatabaseConfig пустой Host - бронирования хранятся в памяти процесса
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	// SeedDemo заполнить пустую таблицу ресторанов демо-каталогом
	SeedDemo bool `toml:"seed_demo"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// SessionsConfig backend: memory | redis
type SessionsConfig struct {
	Backend       string `toml:"backend"`
	IdleTimeout   int    `toml:"idle_timeout_minutes"`
	SweepInterval int    `toml:"sweep_interval_seconds"`
	LockStripes   int    `toml:"lock_stripes"`
}

func (s SessionsConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Minute
}

func (s SessionsConfig) SweepEvery() time.Duration {
	return time.Duration(s.SweepInterval) * time.Second
}

// HoldsConfig scheduler: inprocess | asynq
type HoldsConfig struct {
	TTL           int    `toml:"ttl_seconds"`
	SweepInterval int    `toml:"sweep_interval_seconds"`
	Scheduler     string `toml:"scheduler"`
	Queue         string `toml:"queue"`
	Concurrency   int    `toml:"concurrency"`
}

func (h HoldsConfig) HoldTTL() time.Duration {
	return time.Duration(h.TTL) * time.Second
}

func (h HoldsConfig) SweepEvery() time.Duration {
	return time.Duration(h.SweepInterval) * time.Second
}

// NLPConfig backend: local | gemini
type NLPConfig struct {
	Backend   string  `toml:"backend"`
	APIKey    string  `toml:"api_key"`
	Model     string  `toml:"model"`
	Timeout   int     `toml:"timeout_seconds"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
	Timezone  string  `toml:"timezone"`
}

func (n NLPConfig) CallTimeout() time.Duration {
	return time.Duration(n.Timeout) * time.Second
}

type BookingConfig struct {
	StoreTimeout    int `toml:"store_timeout_seconds"`
	GranularityMins int `toml:"slot_granularity_minutes"`
	SeatingMinutes  int `toml:"seating_minutes"`
	LookaheadDays   int `toml:"lookahead_days"`
	MaxOffered      int `toml:"max_offered"`
	MaxAttempts     int `toml:"max_attempts"`
	CatalogTTL      int `toml:"catalog_ttl_seconds"`
}

func (b BookingConfig) Timeout() time.Duration {
	return time.Duration(b.StoreTimeout) * time.Second
}

func (b BookingConfig) Granularity() time.Duration {
	return time.Duration(b.GranularityMins) * time.Minute
}

func (b BookingConfig) CatalogRefresh() time.Duration {
	return time.Duration(b.CatalogTTL) * time.Second
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// EventsConfig пустой NATSURL - события не публикуются
type EventsConfig struct {
	NATSURL    string `toml:"nats_url"`
	ClientName string `toml:"client_name"`
}

const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"

	SchedulerInProcess = "inprocess"
	SchedulerAsynq     = "asynq"

	NLPLocal  = "local"
	NLPGemini = "gemini"
)

// Default конфигурация для локального запуска без внешних зависимостей
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    30,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Logs: LogsConfig{Level: "info"},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			SeedDemo:        true,
		},
		Sessions: SessionsConfig{
			Backend:       SessionsMemory,
			IdleTimeout:   30,
			SweepInterval: 60,
			LockStripes:   64,
		},
		Holds: HoldsConfig{
			TTL:           300,
			SweepInterval: 30,
			Scheduler:     SchedulerInProcess,
			Queue:         "holds",
			Concurrency:   4,
		},
		NLP: NLPConfig{
			Backend:   NLPLocal,
			Model:     "gemini-1.5-flash",
			Timeout:   10,
			RateLimit: 5,
			Burst:     5,
			Timezone:  "UTC",
		},
		Booking: BookingConfig{
			StoreTimeout:    5,
			GranularityMins: 30,
			SeatingMinutes:  90,
			LookaheadDays:   14,
			MaxOffered:      5,
			MaxAttempts:     5,
			CatalogTTL:      60,
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "table_booking",
		},
		Events: EventsConfig{ClientName: "table-booking"},
	}
}

// Load читает конфигурацию из TOML файла поверх значений по умолчанию
// Секреты можно передать через окружение: GEMINI_API_KEY, DB_PASSWORD
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.NLP.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort))
	}

	switch c.Sessions.Backend {
	case SessionsMemory:
	case SessionsRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("sessions.backend = redis requires redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("sessions.backend %q: want memory or redis", c.Sessions.Backend))
	}
	if c.Sessions.IdleTimeout <= 0 {
		errs = append(errs, errors.New("sessions.idle_timeout_minutes must be positive"))
	}

	switch c.Holds.Scheduler {
	case SchedulerInProcess:
	case SchedulerAsynq:
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("holds.scheduler = asynq requires redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("holds.scheduler %q: want inprocess or asynq", c.Holds.Scheduler))
	}
	if c.Holds.TTL <= 0 {
		errs = append(errs, errors.New("holds.ttl_seconds must be positive"))
	}
	if c.Holds.SweepInterval <= 0 {
		errs = append(errs, errors.New("holds.sweep_interval_seconds must be positive"))
	}

	switch c.NLP.Backend {
	case NLPLocal:
	case NLPGemini:
		if c.NLP.APIKey == "" {
			errs = append(errs, errors.New("nlp.backend = gemini requires nlp.api_key or GEMINI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("nlp.backend %q: want local or gemini", c.NLP.Backend))
	}
	if _, err := time.LoadLocation(c.NLP.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("nlp.timezone: %w", err))
	}

	if c.Booking.GranularityMins <= 0 || c.Booking.SeatingMinutes <= 0 {
		errs = append(errs, errors.New("booking.slot_granularity_minutes and booking.seating_minutes must be positive"))
	}
	if c.Booking.StoreTimeout <= 0 {
		errs = append(errs, errors.New("booking.store_timeout_seconds must be positive"))
	}

	if c.Events.NATSURL != "" {
		if _, err := url.Parse(c.Events.NATSURL); err != nil {
			errs = append(errs, fmt.Errorf("events.nats_url: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
