// Package config resolves runtime settings from the environment, an optional
// .env file and bound command-line flags. Required values that are missing
// are reported together so startup fails once with a complete list.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys shared by viper, the environment and flag bindings.
const (
	KeyAddr        = "ADDR"
	KeyDBDriver    = "DB_DRIVER"
	KeyDSN         = "DSN"
	KeyJWTSecret   = "JWT_SECRET"
	KeyPlatformKey = "PLATFORM_API_KEY"

	KeyClientURL   = "TODO_PLATFORM_URL"
	KeyClientKey   = "TODO_PLATFORM_KEY"
	KeySessionFile = "TODO_SESSION_FILE"

	KeyLogLevel = "LOG_LEVEL"
	KeyLogFile  = "LOG_FILE"
)

// MissingError lists required keys that have no value.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

type Server struct {
	Addr        string
	DBDriver    string
	DSN         string
	JWTSecret   string
	PlatformKey string
	LogLevel    string
}

type Client struct {
	PlatformURL string
	PlatformKey string
	SessionFile string
	LogLevel    string
	LogFile     string
}

// LoadDotEnv loads the given .env files, or ./.env when none are given.
// A missing default file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(files, ", "), err)
	}
	return nil
}

// New returns a viper instance reading the environment with defaults set.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyAddr, ":3002")
	v.SetDefault(KeyDBDriver, "mysql")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySessionFile, defaultPath("session.yaml"))
	v.SetDefault(KeyLogFile, defaultPath("app.log"))
	return v
}

func LoadServer(v *viper.Viper) (Server, error) {
	cfg := Server{
		Addr:        v.GetString(KeyAddr),
		DBDriver:    strings.ToLower(v.GetString(KeyDBDriver)),
		DSN:         v.GetString(KeyDSN),
		JWTSecret:   v.GetString(KeyJWTSecret),
		PlatformKey: v.GetString(KeyPlatformKey),
		LogLevel:    v.GetString(KeyLogLevel),
	}
	if err := require(map[string]string{
		KeyDSN:         cfg.DSN,
		KeyJWTSecret:   cfg.JWTSecret,
		KeyPlatformKey: cfg.PlatformKey,
	}); err != nil {
		return Server{}, err
	}
	if cfg.DBDriver != "mysql" && cfg.DBDriver != "sqlite" {
		return Server{}, fmt.Errorf("%s must be mysql or sqlite, got %q", KeyDBDriver, cfg.DBDriver)
	}
	return cfg, nil
}

func LoadClient(v *viper.Viper) (Client, error) {
	cfg := Client{
		PlatformURL: strings.TrimRight(v.GetString(KeyClientURL), "/"),
		PlatformKey: v.GetString(KeyClientKey),
		SessionFile: v.GetString(KeySessionFile),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFile:     v.GetString(KeyLogFile),
	}
	if err := require(map[string]string{
		KeyClientURL: cfg.PlatformURL,
		KeyClientKey: cfg.PlatformKey,
	}); err != nil {
		return Client{}, err
	}
	if !strings.HasPrefix(cfg.PlatformURL, "http://") && !strings.HasPrefix(cfg.PlatformURL, "https://") {
		return Client{}, fmt.Errorf("%s must be an http(s) URL, got %q", KeyClientURL, cfg.PlatformURL)
	}
	return cfg, nil
}

func require(values map[string]string) error {
	var missing []string
	for k, val := range values {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &MissingError{Keys: missing}
}

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".mini-todo", name)
	}
	return filepath.Join(dir, "mini-todo", name)
}
