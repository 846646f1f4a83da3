package commands

import (
	"errors"
	"log/slog"
	"os"
	"time"
	"parcoursupstats/internal/components/telemetry"
	"parcoursupstats/internal/scrapers/parcoursup"
	"parcoursupstats/lib/configutil"
	"parcoursupstats/lib/restyutil"
	libtelemetry "parcoursupstats/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Config struct {
	BaseUrl           string              `json:"base_url"`
	Output            string              `json:"output"`
	TimeoutSeconds    int                 `json:"timeout_seconds"`
	RequestsPerSecond float64             `json:"requests_per_second"`
	UserAgent         string              `json:"user_agent"`
	BrowserTLS        bool                `json:"browser_tls"`
	Communes          []string            `json:"communes"`
	Dedupe            bool                `json:"dedupe"`
	// DumpDir receives every exchange with the portal when set.
	DumpDir           string              `json:"dump_dir"`
	Telemetry         libtelemetry.Config `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl:        parcoursup.DefaultBaseUrl,
		Output:         "parcoursup.csv",
		TimeoutSeconds: int(parcoursup.DefaultTimeout / time.Second),
		UserAgent:      parcoursup.DefaultUserAgent,
	}
}

// loadConfig reads the config file, a missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig(path, defaultConfig())
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		return cfg, nil
	}
	return cfg, err
}

func (c Config) clientOptions() parcoursup.ClientOptions {
	return parcoursup.ClientOptions{
		BaseUrl:           c.BaseUrl,
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		BrowserTLS:        c.BrowserTLS,
	}
}

func newClient(cfg Config, tel telemetry.API) (*parcoursup.Client, error) {
	opts := cfg.clientOptions()
	if cfg.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			return nil, err
		}
		opts.Dump = output
		slog.Info("dumping portal exchanges", "dir", cfg.DumpDir)
	}
	return parcoursup.NewClient(opts, tel)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
