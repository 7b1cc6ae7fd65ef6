package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath   string `envconfig:"DB_PATH" default:"./data/medipal.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	BotToken string `envconfig:"BOT_TOKEN"` // empty disables Telegram delivery

	// WindowDays is how far ahead reminders are materialized.
	WindowDays int `envconfig:"WINDOW_DAYS" default:"7"`
	// SnoozeMinutes is the snooze offset used when an action carries none.
	SnoozeMinutes int `envconfig:"SNOOZE_MINUTES" default:"10"`
	// MaxSnoozes bounds how often a single reminder can be deferred.
	MaxSnoozes int `envconfig:"MAX_SNOOZES" default:"3"`
	// ResponseTimeout auto-expires a delivered reminder nobody answered.
	ResponseTimeout time.Duration `envconfig:"RESPONSE_TIMEOUT" default:"30m"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
