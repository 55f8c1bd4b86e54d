package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_TESTREPORT"

var (
	Events = &cli.StringFlag{
		Name:     "events",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "EVENTS"),
		Usage:    "Path to the JSON lines capture of annotation, screenshot and suite events",
	}
	RunnerStats = &cli.StringFlag{
		Name:     "runner-stats",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "RUNNER_STATS"),
		Usage:    "Path to the runner statistics snapshot (eg. 'runner-stats.json')",
	}
	RunConfig = &cli.StringFlag{
		Name:     "run-config",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "RUN_CONFIG"),
		Usage:    "Path to the run configuration file, YAML or TOML (eg. 'wdio.yaml')",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_DIR"),
		Usage:   "Directory to write reports to. Overrides reporterOptions.outputDir of the run config",
	}
	ReportFilename = &cli.StringFlag{
		Name:    "report-filename",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_FILENAME"),
		Usage:   "Name of the JSON report. '.json' is appended when missing. Overrides reporterOptions.reportFilename",
	}
	ScreenshotDir = &cli.StringFlag{
		Name:    "screenshot-dir",
		Value:   "../screenshots",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SCREENSHOT_DIR"),
		Usage:   "Directory screenshot links of the HTML report point into, relative to the output directory",
	}
	SpecRoot = &cli.StringFlag{
		Name:    "spec-root",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SPEC_ROOT"),
		Usage:   "Path prefix trimmed from spec file names in the HTML report, summary and table",
	}
	HTML = &cli.BoolFlag{
		Name:    "html",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HTML"),
		Usage:   "Write the HTML report next to the JSON report",
	}
	TextSummary = &cli.BoolFlag{
		Name:    "text-summary",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEXT_SUMMARY"),
		Usage:   "Write a plain text summary of the report",
	}
	HistoryDB = &cli.StringFlag{
		Name:    "history-db",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HISTORY_DB"),
		Usage:   "Path to a SQLite database recording every run. Disabled when empty",
	}
	S3Bucket = &cli.StringFlag{
		Name:    "s3.bucket",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "S3_BUCKET"),
		Usage:   "Bucket to publish the written reports to. Disabled when empty",
	}
	S3Prefix = &cli.StringFlag{
		Name:    "s3.prefix",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "S3_PREFIX"),
		Usage:   "Key prefix of published reports. Objects are stored under <prefix>/<run id>/",
	}
	S3Region = &cli.StringFlag{
		Name:    "s3.region",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "S3_REGION"),
		Usage:   "AWS region of the bucket. Defaults to the AWS credential chain",
	}
	S3Endpoint = &cli.StringFlag{
		Name:    "s3.endpoint",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "S3_ENDPOINT"),
		Usage:   "Custom S3 endpoint (eg. a MinIO or LocalStack URL)",
	}
	Serve = &cli.BoolFlag{
		Name:    "serve",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE"),
		Usage:   "Keep running after the report is written and serve it over HTTP",
	}
	ServeAddr = &cli.StringFlag{
		Name:    "serve.addr",
		Value:   "0.0.0.0:8080",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE_ADDR"),
		Usage:   "Listen address of the report server",
	}
	FailOnFailures = &cli.BoolFlag{
		Name:    "fail-on-failures",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ON_FAILURES"),
		Usage:   "Exit with code 1 when the report contains failed tests",
	}
)

var requiredFlags = []cli.Flag{
	Events,
	RunnerStats,
	RunConfig,
}

var optionalFlags = []cli.Flag{
	OutputDir,
	ReportFilename,
	ScreenshotDir,
	SpecRoot,
	HTML,
	TextSummary,
	HistoryDB,
	S3Bucket,
	S3Prefix,
	S3Region,
	S3Endpoint,
	Serve,
	ServeAddr,
	FailOnFailures,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
