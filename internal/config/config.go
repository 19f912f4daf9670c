package config

import (
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the bot configuration, read from the environment.
type Config struct {
	TelegramToken   string
	TelegramDebug   bool
	OpenTDBBaseURL  string
	OpenTDBTimeout  time.Duration
	QuestionSeconds int
	DefaultAmount   int
}

func defaults() Config {
	return Config{
		OpenTDBBaseURL:  "https://opentdb.com",
		OpenTDBTimeout:  10 * time.Second,
		QuestionSeconds: 20,
		DefaultAmount:   10,
	}
}

// Load reads an optional .env file and the environment, filling unset values with defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load %v", file)
		}
	}

	cfg := Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenTDBBaseURL: os.Getenv("OPENTDB_BASE_URL"),
	}

	var err error
	if cfg.TelegramDebug, err = getBool("TELEGRAM_DEBUG"); err != nil {
		return nil, err
	}
	if cfg.OpenTDBTimeout, err = getDuration("OPENTDB_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.QuestionSeconds, err = getInt("QUIZ_QUESTION_SECONDS"); err != nil {
		return nil, err
	}
	if cfg.DefaultAmount, err = getInt("QUIZ_DEFAULT_AMOUNT"); err != nil {
		return nil, err
	}

	if err = mergo.Merge(&cfg, defaults()); err != nil {
		return nil, errors.Wrap(err, "failed to apply config defaults")
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.TelegramToken == "":
		return errors.Wrap(ErrInvalidConfig, "TELEGRAM_BOT_TOKEN environment variable is required")
	case c.QuestionSeconds <= 0:
		return errors.Wrapf(ErrInvalidConfig, "QUIZ_QUESTION_SECONDS must be positive, got %d", c.QuestionSeconds)
	case c.DefaultAmount <= 0:
		return errors.Wrapf(ErrInvalidConfig, "QUIZ_DEFAULT_AMOUNT must be positive, got %d", c.DefaultAmount)
	case c.OpenTDBTimeout <= 0:
		return errors.Wrapf(ErrInvalidConfig, "OPENTDB_TIMEOUT must be positive, got %v", c.OpenTDBTimeout)
	}
	return nil
}

func getInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "%v=%q is not a number", key, value)
	}
	return n, nil
}

func getBool(key string) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(ErrInvalidConfig, "%v=%q is not a boolean", key, value)
	}
	return b, nil
}

func getDuration(key string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "%v=%q is not a duration", key, value)
	}
	return d, nil
}
