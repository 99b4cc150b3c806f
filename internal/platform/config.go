package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. Environment variables are the upper-cased key with
// the UB_ prefix unless bound to a legacy name below.
const (
	KeyToken              = "token"
	KeyNotionVersion      = "notion_version"
	KeyMappingPath        = "mapping_path"
	KeyKVURL              = "kv_url"
	KeyAPIKey             = "api_key"
	KeyRateLimit          = "rate_limit"
	KeyRateWindow         = "rate_window"
	KeyOffline            = "offline"
	KeyAddr               = "addr"
	KeyReadOnlyDeployment = "read_only_deployment"
	KeyPageSize           = "page_size"
	KeyTrustedProxies     = "trusted_proxies"
)

// Config is the process configuration of the CLI and the HTTP server.
type Config struct {
	Token              string
	NotionVersion      string
	MappingPath        string
	KVURL              string
	APIKey             string
	RateLimit          int
	RateWindow         time.Duration
	Offline            bool
	Addr               string
	ReadOnlyDeployment bool
	PageSize           int
	// TrustedProxies are the peers allowed to name the client through
	// X-Forwarded-For.
	TrustedProxies []string

	// WorkDir is where the default mapping file lives when MappingPath is
	// empty: the nearest project root above the working directory.
	WorkDir string
	// ConfigFile is the file that was read, if any.
	ConfigFile string
}

// NewViper returns a viper instance with defaults, environment bindings
// and the optional config file loaded. UB_CONFIG names the file; otherwise
// ./ubrain.{yaml,yml,json} is used when present.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyRateLimit, 120)
	v.SetDefault(KeyRateWindow, 5*time.Minute)
	v.SetDefault(KeyAddr, ":8080")

	v.SetEnvPrefix("UB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyToken, "NOTION_TOKEN", "UB_TOKEN")
	_ = v.BindEnv(KeyNotionVersion, "NOTION_VERSION")
	_ = v.BindEnv(KeyReadOnlyDeployment, "UB_READ_ONLY_DEPLOYMENT", "VERCEL")

	if file := os.Getenv("UB_CONFIG"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("ubrain")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// LoadConfig reads the configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Token:              strings.TrimSpace(v.GetString(KeyToken)),
		NotionVersion:      v.GetString(KeyNotionVersion),
		MappingPath:        v.GetString(KeyMappingPath),
		KVURL:              v.GetString(KeyKVURL),
		APIKey:             v.GetString(KeyAPIKey),
		RateLimit:          v.GetInt(KeyRateLimit),
		RateWindow:         v.GetDuration(KeyRateWindow),
		Offline:            v.GetBool(KeyOffline),
		Addr:               v.GetString(KeyAddr),
		ReadOnlyDeployment: v.GetBool(KeyReadOnlyDeployment),
		PageSize:           v.GetInt(KeyPageSize),
		TrustedProxies:     splitProxies(v.Get(KeyTrustedProxies)),
		ConfigFile:         v.ConfigFileUsed(),
	}
	if cfg.RateWindow <= 0 {
		return Config{}, fmt.Errorf("invalid %s %q: must be positive", KeyRateWindow, v.GetString(KeyRateWindow))
	}

	if cfg.MappingPath == "" && !cfg.ReadOnlyDeployment {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("get working directory: %w", err)
		}
		cfg.WorkDir = wd
		if root, err := FindRoot(wd); err == nil {
			cfg.WorkDir = root
		}
	}
	return cfg, nil
}

// splitProxies accepts a list from a config file or a comma-separated
// environment value.
func splitProxies(v any) []string {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = strings.Split(x, ",")
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			raw = append(raw, fmt.Sprint(item))
		}
	}
	var out []string
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Options translates the configuration into runtime options.
func (c Config) Options(logger *slog.Logger) []Option {
	return []Option{
		WithLogger(logger),
		WithToken(c.Token),
		WithNotionVersion(c.NotionVersion),
		WithMappingPath(c.MappingPath),
		WithWorkDir(c.WorkDir),
		WithKVURL(c.KVURL),
		WithReadOnlyDeployment(c.ReadOnlyDeployment),
		WithOffline(c.Offline),
		WithPageSize(c.PageSize),
	}
}
