// Package config provides functionality for managing configuration options
// for the client using command-line flags, a JSON config file, a .env file
// and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBackendURL is the fixed local address of the media backend.
const DefaultBackendURL = "http://127.0.0.1:5000"

// Options holds the configuration values for the client.
type Options struct {
	// BackendURL is the base address of the media backend. The backend
	// always runs at DefaultBackendURL; overriding it is only for pointing
	// the client at a local test double.
	BackendURL string `json:"backend_url"`

	// ViewerAddr is the loopback ip:port the artifact viewer listens on.
	// An empty value disables the viewer.
	ViewerAddr string `json:"viewer_addr"`

	// SessionFile is where the "token" cookie is persisted between runs.
	SessionFile string `json:"session_file"`

	// DatabaseDSN enables the run history journal when set.
	DatabaseDSN string `json:"database_dsn"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// AttachToken sends the session token as a bearer Authorization header
	// on generation endpoints. Off by default: the backend has never
	// required it.
	AttachToken bool `json:"attach_token"`

	// RequestTimeout bounds a single backend round trip. Video rendering
	// can take minutes.
	RequestTimeout time.Duration `json:"-"`

	// HistoryRetention is how long run history rows are kept.
	HistoryRetention time.Duration `json:"-"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.BackendURL, "url", DefaultBackendURL, "backend base URL override, for local testing only (the backend address is fixed)")
	flag.StringVar(&options.ViewerAddr, "viewer", "127.0.0.1:8090", "artifact viewer ip:port (empty disables)")
	flag.StringVar(&options.SessionFile, "session", "session.json", "path to the persisted session cookie")
	flag.StringVar(&options.DatabaseDSN, "d", "", "run history db address")
	flag.StringVar(&options.LogLevel, "log-level", "info", "log level")
	flag.BoolVar(&options.AttachToken, "attach-token", false, "send the session token to generation endpoints")
	flag.DurationVar(&options.RequestTimeout, "timeout", 5*time.Minute, "timeout of a single backend request")
	flag.DurationVar(&options.HistoryRetention, "history-retention", 30*24*time.Hour, "run history retention")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() (*Options, error) {
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	if err := apply(options); err != nil {
		return nil, err
	}
	return options, nil
}

// apply layers the config file and then the environment over opts.
func apply(opts *Options) error {
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			data, err := os.ReadFile(opts.Config)
			if err != nil {
				return fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, opts); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if v := os.Getenv("RESEARCHHIVE_BACKEND_URL"); v != "" {
		opts.BackendURL = v
	}
	if v, ok := os.LookupEnv("RESEARCHHIVE_VIEWER_ADDR"); ok {
		opts.ViewerAddr = v
	}
	if v := os.Getenv("RESEARCHHIVE_SESSION_FILE"); v != "" {
		opts.SessionFile = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}
	if v := os.Getenv("RESEARCHHIVE_ATTACH_TOKEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RESEARCHHIVE_ATTACH_TOKEN: %w", err)
		}
		opts.AttachToken = b
	}

	return nil
}
