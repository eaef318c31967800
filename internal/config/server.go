package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wyydra/voicetext/internal/core/service"
	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	StaticDir       string        `env:"STATIC_DIR" envDefault:"./static"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Call state machine
	DialDelay    time.Duration `env:"DIAL_DELAY" envDefault:"1500ms"`
	ConnectDelay time.Duration `env:"CONNECT_DELAY" envDefault:"2s"`
	ResetDelay   time.Duration `env:"RESET_DELAY" envDefault:"2s"`
	EvictOnReset bool          `env:"EVICT_ON_RESET" envDefault:"false"`

	// Simulated remote party
	ReplyMinDelay      time.Duration `env:"REPLY_MIN_DELAY" envDefault:"1500ms"`
	ReplyMaxDelay      time.Duration `env:"REPLY_MAX_DELAY" envDefault:"3500ms"`
	GreetingReplyDelay time.Duration `env:"GREETING_REPLY_DELAY" envDefault:"2s"`
	GreetingText       string        `env:"GREETING_TEXT"`
	DisableGreeting    bool          `env:"DISABLE_GREETING" envDefault:"false"`
	TranslateGreeting  bool          `env:"TRANSLATE_GREETING" envDefault:"true"`
	Responses          []string      `env:"RESPONSES" envSeparator:"|"`

	// Translation
	TranslationPolicy string `env:"TRANSLATION_POLICY" envDefault:"fallback-omit"`
	DictionaryFile    string `env:"DICTIONARY_FILE"`

	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"100"`

	// Redis event fan-out, disabled when RedisAddr is empty
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`
	RedisChannelPrefix string        `env:"REDIS_CHANNEL_PREFIX" envDefault:"voicetext:calls"`
	RedisTimeout       time.Duration `env:"REDIS_TIMEOUT" envDefault:"500ms"`
}

func (cfg *ServerConfig) Settings() service.Settings {
	s := service.DefaultSettings()
	s.DialDelay = cfg.DialDelay
	s.ConnectDelay = cfg.ConnectDelay
	s.ResetDelay = cfg.ResetDelay
	s.ReplyMinDelay = cfg.ReplyMinDelay
	s.ReplyMaxDelay = cfg.ReplyMaxDelay
	s.GreetingReplyDelay = cfg.GreetingReplyDelay
	s.TranslateGreeting = cfg.TranslateGreeting
	s.EvictOnReset = cfg.EvictOnReset

	if text := strings.TrimSpace(cfg.GreetingText); text != "" {
		s.GreetingText = text
	}
	if cfg.DisableGreeting {
		s.GreetingText = ""
	}
	if len(cfg.Responses) > 0 {
		s.Responses = cfg.Responses
	}
	return s
}

func (cfg *ServerConfig) Policy() (service.TranslationPolicy, error) {
	return service.ParseTranslationPolicy(cfg.TranslationPolicy)
}

func (cfg *ServerConfig) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
}

func (cfg *ServerConfig) Validate() error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var errs []error
	if strings.TrimSpace(cfg.Addr) == "" {
		errs = append(errs, errors.New("ADDR is required"))
	}
	if _, err := cfg.Level(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat))
	}
	if _, err := cfg.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("TRANSLATION_POLICY: %w", err))
	}
	if cfg.HistoryLimit < 0 {
		errs = append(errs, errors.New("HISTORY_LIMIT must not be negative"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if err := cfg.Settings().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
