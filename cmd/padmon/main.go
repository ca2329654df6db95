package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/relic-se/usbgamepad/internal/config"
	"github.com/relic-se/usbgamepad/internal/configpaths"
	"github.com/relic-se/usbgamepad/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("padmon"),
		kong.Description("USB host gamepad monitor: reads HID input reports from a connected controller."),
		kong.UsageOnError(),
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to setup logger:", err)
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	reportLogger := setupReportLogger(&cli, logger, &closeFiles)

	ctx.Bind(logger)
	ctx.BindTo(reportLogger, (*log.ReportLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i, a := range args {
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("PADMON_CONFIG")
}

func setupReportLogger(cli *config.CLI, logger *slog.Logger, closeFiles *[]io.Closer) log.ReportLogger {
	if cli.Log.RawFile != "" {
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw report log file", "file", cli.Log.RawFile, "error", err)
			return log.NewReport(nil)
		}
		*closeFiles = append(*closeFiles, f)
		return log.NewReport(f)
	}
	if cli.Log.Level == "trace" {
		return log.NewReport(os.Stdout)
	}
	return log.NewReport(nil)
}
