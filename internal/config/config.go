// Package config defines the CLI structure and configuration for padmon.
package config

import (
	"github.com/relic-se/usbgamepad/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"PADMON_LOG_LEVEL"`
	File    string `help:"Log file path (default: none; logs only to console)" env:"PADMON_LOG_FILE"`
	RawFile string `help:"Raw report log file path (default: none)" env:"PADMON_LOG_RAW_FILE"`
}

// CLI is the root command structure for Kong CLI parsing.
type CLI struct {
	Log `embed:"" prefix:"log."`

	Monitor cmd.Monitor `cmd:"" default:"withargs" help:"Connect to a gamepad and log input events"`
	Devices cmd.Devices `cmd:"" help:"List connected devices that look like gamepads"`
	Layout  cmd.Inspect `cmd:"" help:"Show the report layout selected for a device"`
}
