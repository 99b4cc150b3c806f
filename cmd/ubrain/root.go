package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/ubrain/internal/platform"
	"github.com/aretw0/ubrain/pkg/mapping"
)

var (
	verbose bool
	v       *viper.Viper
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ubrain",
	Short: "Property mapping and schema coercion over a Notion workspace",
	Long: `ubrain maps friendly entity aliases (tasks, projects, study notes…) to the
tables and columns of a Notion workspace, coercing every write to the live
column types.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (UB_*, NOTION_TOKEN, NOTION_VERSION, VERCEL)
3. Configuration file (UB_CONFIG or ./ubrain.yaml)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	var err error
	v, err = platform.NewViper()
	if err != nil {
		fatal("Failed to load configuration", err)
	}
	flags := rootCmd.PersistentFlags()
	for key, flag := range map[string]string{
		platform.KeyMappingPath: "mapping",
		platform.KeyKVURL:       "kv-url",
		platform.KeyOffline:     "offline",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fatal("Failed to bind flags", err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("mapping", "", "Mapping file (.json or .yaml)")
	rootCmd.PersistentFlags().String("kv-url", "", "Remote mapping store (postgres:// or sqlite://)")
	rootCmd.PersistentFlags().Bool("offline", false, "Serve empty study collections and reject study writes")
}

func loadConfig() platform.Config {
	cfg, err := platform.LoadConfig(v)
	if err != nil {
		fatal("Invalid configuration", err)
	}
	if cfg.ConfigFile != "" {
		slog.Debug("configuration loaded", "file", cfg.ConfigFile)
	}
	return cfg
}

// openRuntime wires the brain service from the process configuration.
func openRuntime(ctx context.Context) (*platform.Runtime, platform.Config) {
	cfg := loadConfig()
	rt, err := platform.New(ctx, cfg.Options(slog.Default())...)
	if err != nil {
		fatal("Failed to initialize ubrain", err)
	}
	return rt, cfg
}

// openStore builds the mapping store alone; no API token is needed.
func openStore(ctx context.Context) (*mapping.Store, func()) {
	cfg := loadConfig()
	store, closers, err := platform.OpenStore(ctx, cfg.Options(slog.Default())...)
	if err != nil {
		fatal("Failed to open mapping store", err)
	}
	return store, func() {
		for _, c := range closers {
			c.Close()
		}
	}
}

func printJSON(w io.Writer, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatal("Error encoding JSON", err)
	}
}

// parseData merges a JSON object and key=value pairs into a payload.
func parseData(raw string, pairs []string) (map[string]any, error) {
	in := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return nil, fmt.Errorf("invalid --data: %w", err)
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want key=value", p)
		}
		in[key] = value
	}
	return in, nil
}
