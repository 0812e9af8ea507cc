package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asynkron/minipatch/internal/logging"
)

// Environment variables consulted for defaults. Flags override them.
const (
	envLogLevel             = "MINIPATCH_LOG_LEVEL"
	envIgnoreAlreadyPatched = "MINIPATCH_IGNORE_ALREADY_PATCHED"
	envDirectory            = "MINIPATCH_DIRECTORY"
	envNoColor              = "NO_COLOR"
)

// Config holds the settings resolved from the environment.
type Config struct {
	LogLevel             logging.Level
	IgnoreAlreadyPatched bool
	Directory            string
	NoColor              bool
}

// LoadConfig reads Config through getenv so tests can supply their own
// environment.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		Directory: strings.TrimSpace(getenv(envDirectory)),
		// Any value disables colour, see https://no-color.org.
		NoColor: getenv(envNoColor) != "",
	}

	level, err := logging.ParseLevel(getenv(envLogLevel), logging.LevelWarn)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", envLogLevel, err)
	}
	cfg.LogLevel = level

	ignore, err := parseBool(getenv(envIgnoreAlreadyPatched))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", envIgnoreAlreadyPatched, err)
	}
	cfg.IgnoreAlreadyPatched = ignore
	return cfg, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return false, nil
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}
