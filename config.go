package testreport

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-testreport/flags"
	"github.com/ethereum-optimism/infra/op-testreport/reporting"
)

// Config holds the application configuration
type Config struct {
	EventsFile      string
	RunnerStatsFile string
	RunConfigFile   string
	OutputDir       string // Overrides reporterOptions.outputDir of the run config when set
	ReportFilename  string // Overrides reporterOptions.reportFilename of the run config when set
	ScreenshotDir   string
	SpecRoot        string
	HTML            bool
	TextSummary     bool
	HistoryDB       string // SQLite run history, disabled when empty
	S3              reporting.S3Config
	Serve           bool   // Keep running and serve the report after writing it
	ServeAddr       string
	MetricsAddr     string // Prometheus listen address, empty when metrics are disabled
	FailOnFailures  bool
	Log             log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	paths := map[string]string{
		flags.Events.Name:      ctx.String(flags.Events.Name),
		flags.RunnerStats.Name: ctx.String(flags.RunnerStats.Name),
		flags.RunConfig.Name:   ctx.String(flags.RunConfig.Name),
		flags.OutputDir.Name:   ctx.String(flags.OutputDir.Name),
		flags.HistoryDB.Name:   ctx.String(flags.HistoryDB.Name),
	}
	for name, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s '%s': %w", name, p, err)
		}
		paths[name] = abs
	}

	var metricsAddr string
	if metricsCfg := opmetrics.ReadCLIConfig(ctx); metricsCfg.Enabled {
		if err := metricsCfg.Check(); err != nil {
			return nil, fmt.Errorf("invalid metrics config: %w", err)
		}
		metricsAddr = net.JoinHostPort(metricsCfg.ListenAddr, strconv.Itoa(metricsCfg.ListenPort))
	}

	serve := ctx.Bool(flags.Serve.Name)
	serveAddr := ctx.String(flags.ServeAddr.Name)
	if serve && serveAddr == "" {
		return nil, fmt.Errorf("%s is required with --%s", flags.ServeAddr.Name, flags.Serve.Name)
	}

	return &Config{
		EventsFile:      paths[flags.Events.Name],
		RunnerStatsFile: paths[flags.RunnerStats.Name],
		RunConfigFile:   paths[flags.RunConfig.Name],
		OutputDir:       paths[flags.OutputDir.Name],
		ReportFilename:  ctx.String(flags.ReportFilename.Name),
		ScreenshotDir:   ctx.String(flags.ScreenshotDir.Name),
		SpecRoot:        ctx.String(flags.SpecRoot.Name),
		HTML:            ctx.Bool(flags.HTML.Name),
		TextSummary:     ctx.Bool(flags.TextSummary.Name),
		HistoryDB:       paths[flags.HistoryDB.Name],
		S3: reporting.S3Config{
			Bucket:   ctx.String(flags.S3Bucket.Name),
			Prefix:   ctx.String(flags.S3Prefix.Name),
			Region:   ctx.String(flags.S3Region.Name),
			Endpoint: ctx.String(flags.S3Endpoint.Name),
		},
		Serve:          serve,
		ServeAddr:      serveAddr,
		MetricsAddr:    metricsAddr,
		FailOnFailures: ctx.Bool(flags.FailOnFailures.Name),
		Log:            log,
	}, nil
}
