// Package testutil provides helpers for tests that need a private D-Bus.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

// policyConfigTemplate mirrors the system bus default-deny policy and
// punches holes for the current user to own and call the given names.
//
// Without the receive_type allows the service's method_return replies are
// rejected by the bus.
//
// Args: sockPath, uid (numeric string), per-name rules
const policyConfigTemplate = `<?xml version="1.0"?>
<!DOCTYPE busconfig PUBLIC "-//freedesktop//DTD D-BUS Bus Configuration 1.0//EN"
 "http://www.freedesktop.org/standards/dbus/1.0/busconfig.dtd">
<busconfig>
  <type>session</type>
  <listen>unix:path=%s</listen>
  <policy context="default">
    <allow user="*"/>
    <deny own="*"/>
    <deny send_type="method_call"/>
    <allow send_type="signal"/>
    <allow send_requested_reply="true" send_type="method_return"/>
    <allow send_requested_reply="true" send_type="error"/>
    <allow receive_type="method_call"/>
    <allow receive_type="method_return"/>
    <allow receive_type="error"/>
    <allow receive_type="signal"/>
    <allow send_destination="org.freedesktop.DBus"/>
  </policy>
  <policy user="%s">
%s  </policy>
</busconfig>`

// StartBus starts a private dbus-daemon whose policy lets the current user
// own and call names. It returns the bus address. The test is skipped when
// dbus-daemon is not installed.
//
// Filesystem sockets are used rather than abstract ones so parallel tests
// never collide.
func StartBus(t *testing.T, names ...string) string {
	t.Helper()

	if _, err := exec.LookPath("dbus-daemon"); err != nil {
		t.Skip("dbus-daemon not available")
	}

	tmpDir := t.TempDir()
	sockPath := filepath.Join(tmpDir, "test.sock")
	confPath := filepath.Join(tmpDir, "policy.conf")

	var rules strings.Builder
	for _, name := range names {
		fmt.Fprintf(&rules, "    <allow own=%q/>\n", name)
		fmt.Fprintf(&rules, "    <allow send_destination=%q/>\n", name)
	}
	uid := fmt.Sprintf("%d", os.Getuid())
	conf := fmt.Sprintf(policyConfigTemplate, sockPath, uid, rules.String())

	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		t.Fatalf("write policy config: %v", err)
	}

	cmd := exec.Command("dbus-daemon", "--config-file="+confPath, "--nofork")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start dbus-daemon: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill() //nolint:errcheck
		cmd.Wait()         //nolint:errcheck
	})

	// Wait for socket file to appear (50 * 100ms = 5s max).
	for range 50 {
		if _, err := os.Stat(sockPath); err == nil {
			return "unix:path=" + sockPath
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("dbus-daemon socket not created in time")
	return ""
}

// Connect opens a connection to addr that is closed when the test ends.
func Connect(t *testing.T, addr string) *dbus.Conn {
	t.Helper()
	conn, err := dbus.Connect(addr)
	if err != nil {
		t.Fatalf("connect %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// WaitForName polls until name is registered on the bus at addr.
func WaitForName(t *testing.T, addr, name string) {
	t.Helper()
	for range 50 {
		conn, err := dbus.Connect(addr)
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		var owners []string
		err = conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&owners)
		conn.Close()
		if err == nil && slices.Contains(owners, name) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("bus name %q not registered in time", name)
}
