// Package daemon serves collected system facts on D-Bus as
// com.redhat.RHSM1.Facts.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/nikicat/rhsm-facts/internal/facts"
)

// D-Bus names for the facts service.
const (
	BusName    = "com.redhat.RHSM1.Facts"
	ObjectPath = dbus.ObjectPath("/com/redhat/RHSM1/Facts")
	Interface  = "com.redhat.RHSM1.Facts"

	ConfigPath      = dbus.ObjectPath("/com/redhat/RHSM1/Facts/Config")
	ConfigInterface = "com.redhat.RHSM1.Facts.Config"
)

// Config holds daemon startup parameters.
type Config struct {
	// BusAddress is the D-Bus address to connect to.
	// Empty means the system bus (production). Non-empty connects to a custom
	// address, e.g. a private dbus-daemon in integration tests.
	BusAddress string

	// SessionBus selects the user's session bus instead of the system bus.
	SessionBus bool

	// Version is the string reported by GetVersion() and the Version property.
	Version string

	Collector *facts.CachedCollector
}

func connect(cfg Config) (*dbus.Conn, error) {
	switch {
	case cfg.BusAddress != "":
		return dbus.Connect(cfg.BusAddress)
	case cfg.SessionBus:
		return dbus.ConnectSessionBus()
	default:
		return dbus.ConnectSystemBus()
	}
}

// Run starts the daemon, registers on D-Bus, sends READY=1 via sd-notify,
// and blocks until ctx is cancelled. Returns nil on clean shutdown.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Collector == nil {
		return errors.New("daemon: no facts collector configured")
	}

	conn, err := connect(cfg)
	if err != nil {
		return fmt.Errorf("connect to D-Bus: %w", err)
	}
	defer conn.Close()

	svc := NewService(cfg.Version, cfg.Collector)
	if err := svc.Export(conn); err != nil {
		return err
	}

	// The cache directory may be unwritable for a session daemon; the
	// service still works, LastUpdate just won't follow other writers.
	ctx, cancel := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	defer func() {
		cancel()
		<-watchDone
	}()
	watcher, err := newCacheWatcher(cfg.Collector.Cache().Path(), svc.ReloadSnapshot)
	if err != nil {
		slog.Warn("cache watcher disabled", "path", cfg.Collector.Cache().Path(), "error", err)
		close(watchDone)
	} else {
		go func() {
			defer close(watchDone)
			watcher.Run(ctx)
		}()
	}

	// Request the well-known bus name.
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name %q: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("not primary owner of %q (reply=%d); policy rejected or name already taken", BusName, reply)
	}

	slog.Info("daemon ready",
		"bus_name", BusName,
		"arch", cfg.Collector.Arch(),
		"cache", cfg.Collector.Cache().Path(),
		"freshness", cfg.Collector.Threshold())

	// Notify systemd that startup is complete.
	SdNotify("READY=1", "STATUS=Serving facts on "+BusName)

	// Block until context is cancelled (SIGTERM/SIGINT handled by caller).
	<-ctx.Done()

	SdNotify("STOPPING=1")
	slog.Info("daemon shutting down")
	return nil
}
