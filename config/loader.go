package config

// loader.go - layered configuration loading.
//
// Precedence order (highest wins):
//   1. CLI flags  (registered by cmd/root.go, bound here)
//   2. Environment variables  (PDBBRIDGE_*)
//   3. Settings file  (pdbbridge.{yaml,toml,json})
//   4. Defaults   (defaults.go)

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pdbbridge/internal/errors"
)

// EnvPrefix is the prefix of every supported environment variable.
// Nested keys use an underscore: PDBBRIDGE_COLORS_PROMPT.
const EnvPrefix = "PDBBRIDGE"

// FlagKeys maps CLI flag names onto settings keys.  Flags missing from
// the set handed to Load are skipped.
var FlagKeys = map[string]string{
	"host":            "host",
	"port":            "port",
	"connect-timeout": "client_connect_timeout",
	"response-time":   "server_response_time",
	"poll-interval":   "poll_interval",
	"eol":             "eol",
	"color":           "use_color",
	"indicator":       "indicator",
	"prompt":          "prompt_marker",
	"keep-open":       "keep_open",
	"bind-retries":    "bind_retries",
	"log-file":        "log_file",
}

// Options tells Load where to look.
type Options struct {
	Mode     Mode
	File     string         // explicit settings file; empty searches the defaults
	Flags    *pflag.FlagSet // may be nil
	Debugger []string       // positional argv after "--"; overrides the settings file
}

// Load builds a validated Config from defaults, the settings file, the
// environment and flags.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readFile(v, opts.File); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, &errors.ConfigError{Field: name, Message: err.Error()}
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &errors.ConfigError{Field: "settings", Message: err.Error(),
			Hint: "check value types in the settings file and PDBBRIDGE_* variables"}
	}
	cfg.Mode = opts.Mode
	if cfg.Mode == "" {
		cfg.Mode = ModeClient
	}
	if len(opts.Debugger) > 0 {
		cfg.Debugger = append([]string(nil), opts.Debugger...)
	}
	cfg.EOL = strings.ToLower(cfg.EOL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("client_connect_timeout", d.ClientConnectTimeout)
	v.SetDefault("server_response_time", d.ServerResponseTime)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("eol", d.EOL)
	v.SetDefault("use_color", d.UseColor)
	v.SetDefault("colors.current_line", d.Colors.CurrentLine)
	v.SetDefault("colors.exception_line", d.Colors.ExceptionLine)
	v.SetDefault("colors.stack_location", d.Colors.StackLocation)
	v.SetDefault("colors.prompt", d.Colors.Prompt)
	v.SetDefault("colors.error", d.Colors.Error)
	v.SetDefault("indicator", d.Indicator)
	v.SetDefault("prompt_marker", d.PromptMarker)
	v.SetDefault("markers.current_line", d.Markers.CurrentLine)
	v.SetDefault("markers.exception_line", d.Markers.ExceptionLine)
	v.SetDefault("markers.stack_location", d.Markers.StackLocation)
	v.SetDefault("markers.errors", d.Markers.Errors)
	v.SetDefault("exit_command", d.ExitCommand)
	v.SetDefault("help_command", d.HelpCommand)
	v.SetDefault("keep_open", d.KeepOpen)
	v.SetDefault("bind_retries", d.BindRetries)
	v.SetDefault("debugger", []string{})
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("log_file", d.LogFile)
}

// readFile loads an explicit settings file, or searches the working
// directory and $HOME/.config/pdbbridge.  A missing searched file is
// not an error; a missing explicit one is.
func readFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return &errors.ConfigError{Field: "config", Value: path, Message: err.Error()}
		}
		return nil
	}

	v.SetConfigName("pdbbridge")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pdbbridge"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return &errors.ConfigError{Field: "config", Value: v.ConfigFileUsed(), Message: err.Error()}
	}
	return nil
}
