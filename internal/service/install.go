// Package service manages the systemd user service running the rhsm-facts
// D-Bus daemon.
package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const unitFileName = "rhsm-facts.service"

const unitTemplate = `[Unit]
Description=RHSM Facts - system facts D-Bus service
Documentation=https://github.com/nikicat/rhsm-facts

[Service]
Type=notify
ExecStart=%s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// Options configures service installation.
type Options struct {
	// ConfigPath, if set, adds --config <path> to ExecStart.
	ConfigPath string
	// Start the service immediately after enabling.
	Start bool
	// Output receives progress messages. Nil means stdout.
	Output io.Writer
}

func (o Options) out() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// unitDir returns the systemd user unit directory.
// Uses $XDG_CONFIG_HOME/systemd/user/ with fallback to ~/.config/systemd/user/.
func unitDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "systemd", "user"), nil
}

// UnitPath returns the full path where the unit file is (or would be) installed.
func UnitPath() (string, error) {
	dir, err := unitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, unitFileName), nil
}

// ExecStart returns the command line the unit runs for executable self.
func ExecStart(self, configPath string) string {
	args := []string{self, "daemon", "--session-bus"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return strings.Join(args, " ")
}

// Install writes the systemd user unit file, reloads systemd, and enables the service.
func Install(opts Options) error {
	out := opts.out()

	self, err := executableFunc()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	unitContent := fmt.Sprintf(unitTemplate, ExecStart(self, configPath))

	dir, err := unitDir()
	if err != nil {
		return err
	}
	unitPath := filepath.Join(dir, unitFileName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create unit dir: %w", err)
	}

	if err := os.WriteFile(unitPath, []byte(unitContent), 0644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}
	fmt.Fprintf(out, "Wrote unit file: %s\n", unitPath)

	if err := systemctlFunc("daemon-reload"); err != nil {
		return err
	}

	if err := systemctlFunc("enable", unitFileName); err != nil {
		return err
	}
	fmt.Fprintf(out, "Enabled %s\n", unitFileName)

	if opts.Start {
		if err := systemctlFunc("start", unitFileName); err != nil {
			return err
		}
		fmt.Fprintf(out, "Started %s\n", unitFileName)
	}

	return nil
}

// Uninstall stops and disables the service, removes the unit file, and reloads systemd.
func Uninstall(out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	// Stop first (ignore error; it may not be running).
	_ = systemctlFunc("stop", unitFileName)

	if err := systemctlFunc("disable", unitFileName); err != nil {
		return err
	}
	fmt.Fprintf(out, "Disabled %s\n", unitFileName)

	dir, err := unitDir()
	if err != nil {
		return err
	}
	unitPath := filepath.Join(dir, unitFileName)

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit file: %w", err)
	}
	fmt.Fprintf(out, "Removed %s\n", unitPath)

	return systemctlFunc("daemon-reload")
}

// Status prints systemctl --user status for the service to out.
func Status(out io.Writer) error {
	output, err := statusFunc()
	out.Write(output) //nolint:errcheck
	// systemctl status exits non-zero when inactive; that is not an error for us.
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("systemctl status: %w", err)
	}
	return nil
}

// systemctlFunc is the function used to run systemctl commands.
// Replaced in tests to avoid requiring a real systemd.
var systemctlFunc = systemctlExec

var statusFunc = func() ([]byte, error) {
	return exec.Command("systemctl", "--user", "status", unitFileName).CombinedOutput()
}

var executableFunc = func() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(self)
}

func systemctlExec(args ...string) error {
	fullArgs := append([]string{"--user"}, args...)
	cmd := exec.Command("systemctl", fullArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w", args[0], err)
	}
	return nil
}
