// Package cmd implements the padmon CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/relic-se/usbgamepad/gamepad"
	"github.com/relic-se/usbgamepad/internal/log"
	"github.com/relic-se/usbgamepad/layout"
	"github.com/relic-se/usbgamepad/usbhost"
)

type Monitor struct {
	Vendor   string        `help:"Match vendor id (e.g. 0x057e)" env:"PADMON_VENDOR"`
	Product  string        `help:"Match product id (e.g. 0x2009)" env:"PADMON_PRODUCT"`
	Port     int           `help:"Match physical port number" env:"PADMON_PORT"`
	Timeout  time.Duration `help:"Per-poll read timeout" default:"20ms"`
	Profiles string        `help:"YAML file with additional device profiles" env:"PADMON_PROFILES"`
	Player   uint8         `help:"Player indicator to light after connect" default:"1"`
	Retry    time.Duration `help:"Delay between connection attempts" default:"1s"`
}

// Run is called by Kong when the monitor command is executed.
func (m *Monitor) Run(logger *slog.Logger, reports log.ReportLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := m.sessionOptions(logger, reports)
	if err != nil {
		return err
	}

	logger.Info("Waiting for gamepad")
	for ctx.Err() == nil {
		session, err := gamepad.Connect(opts)
		if err != nil {
			if !errors.Is(err, usbhost.ErrNoDevice) {
				logger.Warn("connect failed", "error", err)
			}
			sleepCtx(ctx, m.Retry)
			continue
		}
		if err := session.SetPlayerLED(m.Player); err != nil {
			logger.Warn("player LED", "error", err)
		}
		m.pollLoop(ctx, session, logger)
		_ = session.Close()
	}
	return nil
}

func (m *Monitor) pollLoop(ctx context.Context, session *gamepad.Session, logger *slog.Logger) {
	for ctx.Err() == nil {
		updated, err := session.Poll()
		if errors.Is(err, usbhost.ErrDisconnected) {
			return
		}
		if err != nil {
			logger.Warn("report dropped", "error", err)
			continue
		}
		for _, ev := range session.Events() {
			logger.Info(ev.String(),
				"buttons", session.Buttons(),
				"hat", session.Hat(),
			)
		}
		if !updated {
			sleepCtx(ctx, time.Millisecond)
		}
	}
}

func (m *Monitor) sessionOptions(logger *slog.Logger, reports log.ReportLogger) (gamepad.Options, error) {
	vendor, err := parseID(m.Vendor)
	if err != nil {
		return gamepad.Options{}, fmt.Errorf("--vendor: %w", err)
	}
	product, err := parseID(m.Product)
	if err != nil {
		return gamepad.Options{}, fmt.Errorf("--product: %w", err)
	}
	opts := gamepad.Options{
		VendorID:    vendor,
		ProductID:   product,
		Port:        m.Port,
		ReadTimeout: m.Timeout,
		Logger:      logger,
		Reports:     reports,
	}
	if m.Profiles != "" {
		profiles, err := layout.LoadProfiles(m.Profiles)
		if err != nil {
			return gamepad.Options{}, err
		}
		opts.Profiles = profiles
		logger.Debug("loaded device profiles", "file", m.Profiles, "count", len(profiles))
	}
	return opts, nil
}

// parseID parses a USB vendor/product id; base prefixes like 0x are honored.
func parseID(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
