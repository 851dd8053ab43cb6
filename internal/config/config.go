// Package config loads runtime settings for the nasprint command.
//
// Settings come from, in increasing precedence: built-in defaults, a
// nasprint.yaml file, a .env file, and NASPRINT_* environment variables.
// Nested keys map to variables with dots replaced by underscores, so
// matching.time_tolerance is NASPRINT_MATCHING_TIME_TOLERANCE.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NASPRINT"

// Settings is the complete runtime configuration.
type Settings struct {
	Database    string `mapstructure:"database" validate:"required"`
	ContestFile string `mapstructure:"contest_file"`
	Workers     int    `mapstructure:"workers" validate:"gte=0,lte=256"`
	MetricsFile string `mapstructure:"metrics_file"`

	Log      LogSettings      `mapstructure:"log"`
	Prompt   PromptSettings   `mapstructure:"prompt"`
	Matching MatchingSettings `mapstructure:"matching"`
	Clock    ClockSettings    `mapstructure:"clock"`
}

// LogSettings selects the slog handler.
type LogSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// PromptSettings controls operator questions.
type PromptSettings struct {
	Interactive bool          `mapstructure:"interactive"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// MatchingSettings are the adjudication thresholds.
type MatchingSettings struct {
	TimeTolerance       time.Duration `mapstructure:"time_tolerance" validate:"gt=0"`
	ShiftedTolerance    time.Duration `mapstructure:"shifted_tolerance" validate:"gtefield=TimeTolerance"`
	UnreliableTolerance time.Duration `mapstructure:"unreliable_tolerance" validate:"gtefield=TimeTolerance"`
	SerialTolerance     int           `mapstructure:"serial_tolerance" validate:"gte=0"`
	UnknownSerial       int           `mapstructure:"unknown_serial" validate:"gt=0"`
	CandidateFloor      float64       `mapstructure:"candidate_floor" validate:"gte=0,lte=1"`
	AutoAcceptMetric    float64       `mapstructure:"auto_accept_metric" validate:"gte=0,lte=1"`
	AutoAcceptCallsign  float64       `mapstructure:"auto_accept_callsign" validate:"gte=0,lte=1"`
	FarMoreCommonRatio  float64       `mapstructure:"far_more_common_ratio" validate:"gte=1"`
	SingletonSimilarity float64       `mapstructure:"singleton_similarity" validate:"gte=0,lte=1"`
	UniqueSerialFloor   int           `mapstructure:"unique_serial_floor" validate:"gte=0"`
	Majority            float64       `mapstructure:"majority" validate:"gt=0.5,lte=1"`
}

// ClockSettings tune the clock adjustment solver.
type ClockSettings struct {
	Enabled             bool          `mapstructure:"enabled"`
	Regularization      float64       `mapstructure:"regularization" validate:"gt=0"`
	UnreliableThreshold time.Duration `mapstructure:"unreliable_threshold" validate:"gt=0"`
	MismatchThreshold   time.Duration `mapstructure:"mismatch_threshold" validate:"gt=0"`
	MaxIterations       int           `mapstructure:"max_iterations" validate:"gte=1,lte=100"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its range.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level.
func (s *Settings) SlogLevel() slog.Level {
	switch s.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Options locate the settings sources.
type Options struct {
	// ConfigFile is an explicit settings file. When empty, nasprint.yaml is
	// searched for in SearchPaths.
	ConfigFile string
	// SearchPaths defaults to the working directory and
	// $HOME/.config/nasprint.
	SearchPaths []string
	// EnvFile is loaded into the environment if it exists. Defaults to .env.
	EnvFile string
}

// Load reads settings from every source and validates them. A missing
// search-path file or .env is not an error; a missing explicit ConfigFile
// is.
func Load(opts Options) (*Settings, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		slog.Debug("environment file loaded", "path", envFile)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("nasprint")
		v.SetConfigType("yaml")
		for _, p := range searchPaths(opts.SearchPaths) {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read settings: %w", err)
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		slog.Debug("settings file loaded", "path", used)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func searchPaths(paths []string) []string {
	if len(paths) > 0 {
		return paths
	}
	out := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".config", "nasprint"))
	}
	return out
}
